package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/broker"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

// Publisher implements the publish_kafka tool: publish via the broker when
// available, falling back to an outbox-allocated offset otherwise (spec
// §4.3, §9 Producer fallback).
type Publisher struct {
	producer broker.Producer
	outbox   *outbox.Store
}

// NewPublisher builds a Publisher over producer, using store for the
// fallback offset sequence.
func NewPublisher(producer broker.Producer, store *outbox.Store) *Publisher {
	return &Publisher{producer: producer, outbox: store}
}

// Tool returns the registry entry for publish_kafka.
func (p *Publisher) Tool() toolregistry.Tool {
	return toolregistry.Tool{Name: "publish_kafka", Handler: p.Handle}
}

// Handle executes one publish_kafka invocation. params: {topic}.
func (p *Publisher) Handle(ctx context.Context, params toolregistry.Params, _ bool) (toolregistry.Result, error) {
	topic, _ := params["topic"].(string)

	ec, ok := execctx.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("publish_kafka requires an exec context")
	}

	payload := map[string]interface{}{"trace_id": ec.Event.TraceID, "event": ec.Event.Payload}
	value, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling publish payload: %w", err)
	}

	_, available, produceErr := p.producer.Produce(ctx, topic, []byte(ec.Event.ID), value)
	if available && produceErr == nil {
		return toolregistry.Result{"offset": nil, "topic": topic}, nil
	}

	offset, err := p.outbox.NextOffset(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("allocating fallback offset for %s: %w", topic, err)
	}
	return toolregistry.Result{"offset": offset, "topic": topic, "fallback": true}, nil
}
