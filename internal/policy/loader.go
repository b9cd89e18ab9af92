package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResolvePathUnderBase resolves path relative to baseDir and returns an
// absolute path guaranteed to be under baseDir, preventing traversal when
// the path came from a request or CLI flag.
func ResolvePathUnderBase(baseDir, path string) (string, error) {
	dirAbs, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return "", fmt.Errorf("base directory: %w", err)
	}
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(dirAbs, path)
	}
	full = filepath.Clean(full)
	pathAbs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	rel, err := filepath.Rel(dirAbs, pathAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes base directory %q", path, baseDir)
	}
	return pathAbs, nil
}

// Load reads and parses a policies file from disk, applying defaults and
// computing its version tag. baseDir, when non-empty, constrains path to
// stay within it (used when the path came from an HTTP request).
func Load(path string, baseDir string) (*Policy, error) {
	resolved := path
	if baseDir != "" {
		var err error
		resolved, err = ResolvePathUnderBase(baseDir, path)
		if err != nil {
			return nil, err
		}
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading policies file %s: %w", resolved, err)
	}

	var pol Policy
	if err := yaml.Unmarshal(content, &pol); err != nil {
		return nil, fmt.Errorf("parsing policies file: %w", err)
	}

	applyDefaults(&pol)
	if err := Validate(&pol); err != nil {
		return nil, fmt.Errorf("validating policies file: %w", err)
	}

	pol.VersionTag = computeVersionTag(content)
	return &pol, nil
}

func applyDefaults(p *Policy) {
	if p.SLO.MaxSteps <= 0 {
		p.SLO.MaxSteps = 20
	}
	if p.SLO.MaxRetries < 0 {
		p.SLO.MaxRetries = 0
	}
	if p.Execution.Retry.BaseMS <= 0 {
		p.Execution.Retry.BaseMS = 200
	}
	if p.Execution.Retry.MaxMS <= 0 {
		p.Execution.Retry.MaxMS = 5000
	}
	if p.RBAC.Roles == nil {
		p.RBAC.Roles = map[string]RoleConfig{}
	}
}
