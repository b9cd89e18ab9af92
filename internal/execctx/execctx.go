// Package execctx carries the per-event execution state a tool or critic
// needs beyond its own parameters — the event, the policy snapshot, and
// handles to the shared Outbox/Approvals stores (spec §3 Context).
//
// The orchestrator owns one ExecContext per event and discards it at
// completion; it is never shared across events.
package execctx

import (
	"context"
	"time"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/approvals"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
)

// ExecContext is the per-event state a tool handler needs to reach shared
// infrastructure and to identify which step is currently running — named
// to avoid colliding with the standard library's context.Context, which it
// travels alongside rather than replaces.
type ExecContext struct {
	Event     *eventing.Event
	Policy    *policy.Policy
	Outbox    *outbox.Store
	Approvals *approvals.Store

	StartedAt time.Time

	CompletedSteps []string
	Results        map[string]interface{}
	CurrentStep    string
}

// New creates an ExecContext for a single event, stamping the start time
// used to derive step latency for the Critic's SLO check.
func New(event *eventing.Event, pol *policy.Policy, store *outbox.Store, appr *approvals.Store, startedAt time.Time) *ExecContext {
	return &ExecContext{
		Event:     event,
		Policy:    pol,
		Outbox:    store,
		Approvals: appr,
		StartedAt: startedAt,
		Results:   make(map[string]interface{}),
	}
}

// LatencyMS returns the elapsed time since the context was created, in
// milliseconds, as observed at the moment of the call — the Critic reads
// this at step completion so apparent latency grows with event age
// (spec §5).
func (c *ExecContext) LatencyMS(now time.Time) int64 {
	return now.Sub(c.StartedAt).Milliseconds()
}

// RecordCompletion appends stepName to the completion trail and stores its
// result; from then on the step is eligible for compensation.
func (c *ExecContext) RecordCompletion(stepName string, result interface{}) {
	c.CompletedSteps = append(c.CompletedSteps, stepName)
	c.Results[stepName] = result
}

type execCtxKey struct{}

// WithExecContext binds ec to ctx so tool handlers can retrieve it via
// FromContext without changing the toolregistry.Handler signature.
func WithExecContext(ctx context.Context, ec *ExecContext) context.Context {
	return context.WithValue(ctx, execCtxKey{}, ec)
}

// FromContext retrieves the ExecContext bound by WithExecContext, if any.
func FromContext(ctx context.Context) (*ExecContext, bool) {
	ec, ok := ctx.Value(execCtxKey{}).(*ExecContext)
	return ec, ok
}
