// Package executor drives a single plan step: idempotency short-circuit,
// dispatch via the tool registry, and retry with exponential backoff and
// jitter on transient failure (spec §4.4).
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/telemetry"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

var tracer = telemetry.Tracer("github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/executor")

// ErrApprovalRequired is the distinguished signal a tool returns when a
// priority-gated action lacks a recorded approval. It is never retried
// (spec §4.4 step 4, §9 — no string matching on error text).
var ErrApprovalRequired = errors.New("approval_required")

// RetryPolicy is the subset of the policy snapshot the executor consults.
type RetryPolicy struct {
	BaseMS     int
	MaxMS      int
	MaxRetries int
}

// Dispatcher invokes a named tool; toolregistry.Registry satisfies this.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, params toolregistry.Params, isCompensation bool) (toolregistry.Result, error)
}

// Executor runs individual plan steps against a tool dispatcher, backed by
// an outbox for idempotency.
type Executor struct {
	dispatcher Dispatcher
	outbox     *outbox.Store
	sleep      func(time.Duration)
}

// New builds an Executor. sleep is overridable so tests can run retry loops
// without real-time delay; nil defaults to time.Sleep.
func New(dispatcher Dispatcher, store *outbox.Store, sleep func(time.Duration)) *Executor {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Executor{dispatcher: dispatcher, outbox: store, sleep: sleep}
}

// Run executes one step: if the outbox already holds a result for
// (eventID, stepName) it is returned unchanged; otherwise the tool is
// dispatched and retried under retryPolicy until it succeeds, hits
// ErrApprovalRequired or a toolregistry.ErrDenied (neither is retried), or
// exhausts max_retries.
func (e *Executor) Run(ctx context.Context, eventID, stepName, toolName string, params toolregistry.Params, retryPolicy RetryPolicy) (toolregistry.Result, error) {
	ctx, span := tracer.Start(ctx, "act."+stepName,
		trace.WithAttributes(attribute.String("step.name", stepName), attribute.String("step.tool", toolName)))
	defer span.End()

	idemKey := eventID + ":" + stepName
	if rec, ok, err := e.outbox.Get(ctx, eventID, stepName); err != nil {
		return nil, fmt.Errorf("checking outbox for %s: %w", idemKey, err)
	} else if ok && rec.Status == "succeeded" {
		var result toolregistry.Result
		if err := json.Unmarshal(rec.ResultRaw, &result); err != nil {
			return nil, fmt.Errorf("decoding cached result for %s: %w", idemKey, err)
		}
		return result, nil
	}

	attempt := 1
	for {
		result, err := e.dispatcher.Dispatch(ctx, toolName, params, false)
		if err == nil {
			if putErr := e.storeSuccess(ctx, eventID, stepName, result); putErr != nil {
				return nil, putErr
			}
			return result, nil
		}

		if errors.Is(err, ErrApprovalRequired) {
			_ = e.storeFailure(ctx, eventID, stepName, err)
			return nil, err
		}

		var denied *toolregistry.ErrDenied
		if errors.As(err, &denied) {
			_ = e.storeFailure(ctx, eventID, stepName, err)
			return nil, err
		}

		if attempt > retryPolicy.MaxRetries {
			_ = e.storeFailure(ctx, eventID, stepName, err)
			return nil, fmt.Errorf("step %q failed after %d attempts: %w", stepName, attempt, err)
		}

		e.sleep(backoffWithJitter(attempt, retryPolicy.BaseMS, retryPolicy.MaxMS))
		attempt++
	}
}

func (e *Executor) storeSuccess(ctx context.Context, eventID, stepName string, result toolregistry.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result for %s:%s: %w", eventID, stepName, err)
	}
	return e.outbox.Put(ctx, &outbox.Record{
		TraceID:   eventID,
		StepName:  stepName,
		Status:    "succeeded",
		ResultRaw: raw,
	})
}

func (e *Executor) storeFailure(ctx context.Context, eventID, stepName string, err error) error {
	return e.outbox.Put(ctx, &outbox.Record{
		TraceID:  eventID,
		StepName: stepName,
		Status:   "failed",
		Error:    err.Error(),
	})
}

// backoffWithJitter computes min(max_ms, base_ms * 2^(attempt-1)) plus
// uniform jitter in [0, 50ms) (spec §4.4 step 4).
func backoffWithJitter(attempt, baseMS, maxMS int) time.Duration {
	backoff := baseMS << (attempt - 1)
	if backoff > maxMS || backoff <= 0 {
		backoff = maxMS
	}
	jitter := time.Duration(rand.Intn(50)) * time.Millisecond
	return time.Duration(backoff)*time.Millisecond + jitter
}
