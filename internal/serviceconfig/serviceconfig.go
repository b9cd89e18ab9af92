// Package serviceconfig parses the services document (spec §6) that maps
// a named downstream service to its base URL and auth spec, used by the
// call_rest tool's URL-prefix routing.
package serviceconfig

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AuthKind distinguishes the two supported auth header shapes.
type AuthKind string

const (
	AuthBearer AuthKind = "bearer"
	AuthBasic  AuthKind = "basic"
)

// Auth is a parsed "<kind>:<secret_key>" auth spec.
type Auth struct {
	Kind      AuthKind
	SecretKey string
}

// Service is a single downstream service entry.
type Service struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Auth    string `yaml:"auth,omitempty" json:"auth,omitempty"`
}

// ParsedAuth parses the Auth string ("bearer:crm-token") into its kind and
// secret key. Returns ok=false when no auth is configured for the service.
func (s Service) ParsedAuth() (Auth, bool) {
	if s.Auth == "" {
		return Auth{}, false
	}
	kind, key, found := strings.Cut(s.Auth, ":")
	if !found {
		return Auth{}, false
	}
	return Auth{Kind: AuthKind(kind), SecretKey: key}, true
}

// Document is the top-level services document: services.{name}.{base_url,auth}.
type Document struct {
	Services map[string]Service `yaml:"services" json:"services"`
}

// Load reads and parses a service config YAML document from disk.
func Load(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service config %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing service config: %w", err)
	}
	if doc.Services == nil {
		doc.Services = map[string]Service{}
	}
	return &doc, nil
}

// Lookup resolves the service entry whose name matches the given URL path
// prefix, e.g. "/crm/" -> "crm". Returns ok=false when no configured
// service name matches the prefix.
func (d *Document) Lookup(urlPathPrefix string) (Service, bool) {
	name := strings.Trim(urlPathPrefix, "/")
	svc, ok := d.Services[name]
	return svc, ok
}
