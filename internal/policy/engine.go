package policy

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
)

//go:embed rego/*.rego
var embeddedPolicies embed.FS

// Decision is the outcome of a single Rego evaluation.
type Decision struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}

type regoModule struct {
	file  string
	query string
}

var modules = []regoModule{
	{file: "rego/tool_access.rego", query: "data.middleware.policy.tool_access.deny"},
	{file: "rego/slo.rego", query: "data.middleware.policy.slo.deny"},
}

// Engine evaluates the embedded RBAC and SLO Rego rules against a loaded
// Policy document. One Engine is built per policy snapshot and reused for
// every tool dispatch and critic pass within that snapshot's lifetime.
type Engine struct {
	policy   *Policy
	prepared map[string]rego.PreparedEvalQuery
}

// NewEngine compiles the embedded Rego modules against pol and returns a
// ready-to-evaluate Engine.
func NewEngine(ctx context.Context, pol *Policy) (*Engine, error) {
	data, err := policyToData(pol)
	if err != nil {
		return nil, fmt.Errorf("converting policy to OPA data: %w", err)
	}

	prepared := make(map[string]rego.PreparedEvalQuery, len(modules))
	for _, m := range modules {
		content, err := embeddedPolicies.ReadFile(m.file)
		if err != nil {
			return nil, fmt.Errorf("reading embedded policy %s: %w", m.file, err)
		}
		store := inmem.NewFromObject(map[string]interface{}{"policy": data})
		r := rego.New(
			rego.Query(m.query),
			rego.Module(m.file, string(content)),
			rego.Store(store),
		)
		pq, err := r.PrepareForEval(ctx)
		if err != nil {
			return nil, fmt.Errorf("preparing Rego policy %s: %w", m.file, err)
		}
		prepared[m.file] = pq
	}

	return &Engine{policy: pol, prepared: prepared}, nil
}

// Authorize evaluates the RBAC allow-list for toolName. An undeclared
// "agent" role (no allow_tools entry at all) denies every tool.
func (e *Engine) Authorize(ctx context.Context, toolName string) (*Decision, error) {
	reasons, err := e.evaluateDeny(ctx, "rego/tool_access.rego", map[string]interface{}{
		"tool_name": toolName,
	})
	if err != nil {
		return nil, err
	}
	return &Decision{Allowed: len(reasons) == 0, Reasons: reasons}, nil
}

// CheckLatency evaluates the SLO latency rule for an observed latency in
// milliseconds.
func (e *Engine) CheckLatency(ctx context.Context, latencyMS int64) (*Decision, error) {
	reasons, err := e.evaluateDeny(ctx, "rego/slo.rego", map[string]interface{}{
		"latency_ms": latencyMS,
	})
	if err != nil {
		return nil, err
	}
	return &Decision{Allowed: len(reasons) == 0, Reasons: reasons}, nil
}

func (e *Engine) evaluateDeny(ctx context.Context, module string, input map[string]interface{}) ([]string, error) {
	pq, ok := e.prepared[module]
	if !ok {
		return nil, fmt.Errorf("policy module %s not prepared", module)
	}
	results, err := pq.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", module, err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	var reasons []string
	switch v := results[0].Expressions[0].Value.(type) {
	case []interface{}:
		for _, m := range v {
			if s, ok := m.(string); ok {
				reasons = append(reasons, s)
			}
		}
	case map[string]interface{}:
		for _, m := range v {
			if s, ok := m.(string); ok {
				reasons = append(reasons, s)
			}
		}
	}
	return reasons, nil
}

// policyToData round-trips Policy through JSON so OPA sees plain maps
// rather than Go struct types.
func policyToData(pol *Policy) (map[string]interface{}, error) {
	raw, err := json.Marshal(pol)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
