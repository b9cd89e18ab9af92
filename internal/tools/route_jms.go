package tools

import (
	"context"
	"fmt"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

// JMSRouter implements the route_jms tool: a monotonic message counter per
// destination (spec §4.3).
type JMSRouter struct {
	outbox *outbox.Store
}

// NewJMSRouter builds a JMSRouter backed by store's per-destination counter.
func NewJMSRouter(store *outbox.Store) *JMSRouter {
	return &JMSRouter{outbox: store}
}

// Tool returns the registry entry for route_jms.
func (j *JMSRouter) Tool() toolregistry.Tool {
	return toolregistry.Tool{Name: "route_jms", Handler: j.Handle}
}

// Handle executes one route_jms invocation. params: {destination, payload?}.
func (j *JMSRouter) Handle(ctx context.Context, params toolregistry.Params, _ bool) (toolregistry.Result, error) {
	destination, _ := params["destination"].(string)

	n, err := j.outbox.NextCounter(ctx, "jms:"+destination)
	if err != nil {
		return nil, fmt.Errorf("allocating jms sequence for %s: %w", destination, err)
	}
	return toolregistry.Result{
		"destination": destination,
		"message_id":  fmt.Sprintf("jms-%d", n),
	}, nil
}
