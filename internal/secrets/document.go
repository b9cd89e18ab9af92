package secrets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk secrets document: file-backed and static secret
// entries keyed by name (spec §6, "secrets.files.<key>" / "secrets.static.<key>").
// It never holds resolved environment values — those are looked up directly
// by Provider.Resolve at call time.
type Document struct {
	Files  map[string]string `yaml:"files"`
	Static map[string]string `yaml:"static"`
}

// LoadDocument reads and parses a secrets document from disk. An empty path
// returns an empty Document so a deployment that relies solely on
// environment variables needs no file at all.
func LoadDocument(path string) (*Document, error) {
	if path == "" {
		return &Document{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets document %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing secrets document: %w", err)
	}
	return &doc, nil
}

// NewProviderFromDocument builds a Provider from a parsed Document.
func NewProviderFromDocument(doc *Document) *Provider {
	if doc == nil {
		return NewProvider(nil, nil)
	}
	return NewProvider(doc.Files, doc.Static)
}
