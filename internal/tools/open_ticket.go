package tools

import (
	"context"
	"fmt"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/executor"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

// TicketOpener implements the open_ticket tool: P0 priority tickets require
// a recorded approval before the ticket is created (spec §4.3, §4.7).
type TicketOpener struct {
	outbox *outbox.Store
}

// NewTicketOpener builds a TicketOpener backed by store's ticket counter.
func NewTicketOpener(store *outbox.Store) *TicketOpener {
	return &TicketOpener{outbox: store}
}

// Tool returns the registry entry for open_ticket.
func (t *TicketOpener) Tool() toolregistry.Tool {
	return toolregistry.Tool{Name: "open_ticket", Handler: t.Handle}
}

// Handle executes one open_ticket invocation. params: {priority?, title?}.
func (t *TicketOpener) Handle(ctx context.Context, params toolregistry.Params, _ bool) (toolregistry.Result, error) {
	priority, _ := params["priority"].(string)

	if priority == "P0" {
		ec, ok := execctx.FromContext(ctx)
		if !ok {
			return nil, fmt.Errorf("open_ticket requires an exec context")
		}
		if !ec.Approvals.IsApproved(ec.Event.TraceID, ec.CurrentStep) {
			return nil, executor.ErrApprovalRequired
		}
	}

	n, err := t.outbox.NextCounter(ctx, "ticket_number")
	if err != nil {
		return nil, fmt.Errorf("allocating ticket number: %w", err)
	}
	return toolregistry.Result{"ticket_id": fmt.Sprintf("T-%d", n)}, nil
}
