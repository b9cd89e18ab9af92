// Package policy loads the operator-authored policy document that bounds
// planning, execution, and logging for every event the middleware handles,
// and evaluates RBAC/SLO rules against it via embedded OPA Rego modules.
package policy

import (
	"crypto/sha256"
	"encoding/hex"
)

// Policy is the parsed form of the policies file (spec §6): SLO bounds,
// retry backoff parameters, RBAC allow-lists, and redaction field names.
type Policy struct {
	SLO        SLOConfig        `yaml:"slo" json:"slo"`
	Execution  ExecutionConfig  `yaml:"execution" json:"execution"`
	RBAC       RBACConfig       `yaml:"rbac" json:"rbac"`
	DataPolicy DataPolicyConfig `yaml:"data_policy" json:"data_policy"`

	// VersionTag identifies the loaded document for logs and traces; it is
	// derived from the file content, not stored in the YAML itself.
	VersionTag string `yaml:"-" json:"version_tag"`
}

// SLOConfig bounds plan size, end-to-end latency, and retry count.
type SLOConfig struct {
	MaxSteps     int `yaml:"max_steps" json:"max_steps"`
	MaxLatencyMS int `yaml:"max_latency_ms" json:"max_latency_ms"`
	MaxRetries   int `yaml:"max_retries" json:"max_retries"`
}

// ExecutionConfig holds the retry backoff parameters the Executor reads.
type ExecutionConfig struct {
	Retry RetryConfig `yaml:"retry" json:"retry"`
}

// RetryConfig is the exponential backoff envelope: base_ms · 2^(attempt-1), capped at max_ms.
type RetryConfig struct {
	BaseMS int `yaml:"base_ms" json:"base_ms"`
	MaxMS  int `yaml:"max_ms" json:"max_ms"`
}

// RBACConfig holds the per-role tool allow-lists. The only role the spec
// names is "agent" (the orchestrator acting on behalf of the event), but the
// shape leaves room for more without a breaking change.
type RBACConfig struct {
	Roles map[string]RoleConfig `yaml:"roles" json:"roles"`
}

// RoleConfig is the allow-list for a single role.
type RoleConfig struct {
	AllowTools []string `yaml:"allow_tools" json:"allow_tools"`
}

// DataPolicyConfig names the fields the Sanitizer must redact.
type DataPolicyConfig struct {
	RedactFields []string `yaml:"redact_fields" json:"redact_fields"`
}

// AllowToolsFor returns the tool allow-list for a role, or nil if the role
// is not declared (dispatch must treat an undeclared role as allowing nothing).
func (p *Policy) AllowToolsFor(role string) []string {
	if p.RBAC.Roles == nil {
		return nil
	}
	return p.RBAC.Roles[role].AllowTools
}

// computeVersionTag derives a short, stable tag from the raw document bytes
// so logs and traces can cite which policy revision was in force.
func computeVersionTag(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:12]
}
