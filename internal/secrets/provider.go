// Package secrets resolves named secrets from environment variables, files,
// and a static mapping, and builds the Authorization header a downstream
// call_rest invocation needs (spec §4.3, §6).
package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/serviceconfig"
)

// ErrNotFound is returned when a secret name resolves through none of the
// three sources.
var ErrNotFound = fmt.Errorf("secret not found in environment, files, or static map")

// Provider resolves secret values in priority order: environment variable,
// then a configured file path, then the static mapping. Read-only after
// construction — safe for concurrent use across events.
type Provider struct {
	files  map[string]string // secrets.files.<key> -> file path
	static map[string]string // secrets.static.<key> -> literal value
}

// NewProvider constructs a Provider from the files and static maps parsed
// out of the secrets document.
func NewProvider(files, static map[string]string) *Provider {
	if files == nil {
		files = map[string]string{}
	}
	if static == nil {
		static = map[string]string{}
	}
	return &Provider{files: files, static: static}
}

// Resolve returns the secret value for name, trying environment, then
// file, then static, in that order. The environment lookup tries the exact
// name first, then an uppercased/underscored form (e.g. "crm-token" ->
// "CRM_TOKEN") so operators can use either convention.
func (p *Provider) Resolve(name string) (string, error) {
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	envName := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
	if v, ok := os.LookupEnv(envName); ok {
		return v, nil
	}
	if path, ok := p.files[name]; ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading secret file for %q: %w", name, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	if v, ok := p.static[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// BuildAuthHeader resolves the secret named by auth.SecretKey and renders
// the Authorization header value for auth.Kind.
func (p *Provider) BuildAuthHeader(auth serviceconfig.Auth) (headerValue string, err error) {
	val, err := p.Resolve(auth.SecretKey)
	if err != nil {
		return "", fmt.Errorf("resolving auth secret %q: %w", auth.SecretKey, err)
	}
	switch auth.Kind {
	case serviceconfig.AuthBearer:
		return "Bearer " + val, nil
	case serviceconfig.AuthBasic:
		return "Basic " + val, nil
	default:
		return "", fmt.Errorf("unsupported auth kind %q", auth.Kind)
	}
}
