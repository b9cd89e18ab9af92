// Package toolregistry holds the set of tools a plan step can invoke and
// gates every dispatch against the active RBAC policy (spec §4.3).
package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
)

// Params is the JSON-object input to a tool invocation.
type Params map[string]interface{}

// Result is the JSON-object output of a tool invocation, recorded in the
// outbox and consulted by the Critic.
type Result map[string]interface{}

// Handler executes one tool call. isCompensation is true when the
// orchestrator is running the step's compensating action during recovery
// rather than its forward action (spec §4.6).
type Handler func(ctx context.Context, params Params, isCompensation bool) (Result, error)

// Tool pairs a handler with the name the plan and RBAC policy address it by.
type Tool struct {
	Name    string
	Handler Handler
}

// ErrDenied is returned when RBAC denies the caller's role access to a tool.
type ErrDenied struct {
	ToolName string
	Reasons  []string
}

func (e *ErrDenied) Error() string {
	return fmt.Sprintf("tool %q denied by policy: %v", e.ToolName, e.Reasons)
}

// Registry is a thread-safe set of tools, gated by a policy engine.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	engine *policy.Engine
}

// New creates a registry that authorizes every dispatch against engine.
func New(engine *policy.Engine) *Registry {
	return &Registry{tools: make(map[string]Tool), engine: engine}
}

// Register adds a tool, replacing any existing tool of the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Dispatch authorizes and then invokes the named tool. RBAC is checked on
// every dispatch, including compensating calls, since a compensation runs
// with the same role as the step it undoes.
func (r *Registry) Dispatch(ctx context.Context, name string, params Params, isCompensation bool) (Result, error) {
	decision, err := r.engine.Authorize(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("authorizing tool %q: %w", name, err)
	}
	if !decision.Allowed {
		return nil, &ErrDenied{ToolName: name, Reasons: decision.Reasons}
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool %q is not registered", name)
	}

	return tool.Handler(ctx, params, isCompensation)
}

// MarshalResult is a convenience for handlers building a Result from a typed
// value.
func MarshalResult(v interface{}) (Result, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("unmarshaling tool result: %w", err)
	}
	return res, nil
}
