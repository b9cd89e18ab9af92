// Package orchestrator binds a Context to an incoming event and drives
// topological execution of its plan, triggering saga recovery on failure
// (spec §4.6).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/approvals"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/critic"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/executor"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/planner"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/telemetry"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

var tracer = telemetry.Tracer("github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/orchestrator")

// Outcome is the result handle_event returns.
type Outcome struct {
	Status     string                 `json:"status"` // "ok" | "failed"
	TraceID    string                 `json:"trace_id"`
	Results    map[string]interface{} `json:"results,omitempty"`
	Partial    map[string]interface{} `json:"partial,omitempty"`
	FailedStep string                 `json:"failed_step,omitempty"`
}

// Orchestrator binds the shared infrastructure an event needs and drives it
// through planning and execution.
type Orchestrator struct {
	policy    *policy.Policy
	engine    *policy.Engine
	registry  *toolregistry.Registry
	executor  *executor.Executor
	outbox    *outbox.Store
	approvals *approvals.Store
	logger    zerolog.Logger
}

// New builds an Orchestrator over the given policy snapshot and shared
// infrastructure.
func New(pol *policy.Policy, engine *policy.Engine, registry *toolregistry.Registry, exec *executor.Executor, store *outbox.Store, appr *approvals.Store, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		policy:    pol,
		engine:    engine,
		registry:  registry,
		executor:  exec,
		outbox:    store,
		approvals: appr,
		logger:    logger,
	}
}

// HandleEvent runs the full event-to-plan-to-execution pipeline for one
// event (spec §4.6).
func (o *Orchestrator) HandleEvent(ctx context.Context, event *eventing.Event) (*Outcome, error) {
	traceID := event.EnsureTraceID()
	ec := execctx.New(event, o.policy, o.outbox, o.approvals, time.Now())
	ctx = execctx.WithExecContext(ctx, ec)

	ctx, senseSpan := tracer.Start(ctx, "sense", trace.WithAttributes(attribute.String("trace_id", traceID)))
	obs := eventing.Observe(event)
	senseSpan.End()

	ctx, planSpan := tracer.Start(ctx, "think_plan", trace.WithAttributes(attribute.String("trace_id", traceID)))
	intents := planner.InferIntents(obs)
	plan := planner.BuildPlan(intents)
	planErr := plan.Validate(o.policy.SLO.MaxSteps)
	planSpan.End()

	if planErr != nil {
		o.logger.Error().Str("trace_id", traceID).Err(planErr).Msg("plan rejected")
		return &Outcome{Status: "failed", TraceID: traceID}, nil
	}

	order, err := plan.TopologicalOrder()
	if err != nil {
		o.logger.Error().Str("trace_id", traceID).Err(err).Msg("plan rejected")
		return &Outcome{Status: "failed", TraceID: traceID}, nil
	}

	for _, stepName := range order {
		step := plan.Steps[stepName]
		ec.CurrentStep = stepName

		retryPolicy := executor.RetryPolicy{
			BaseMS:     o.policy.Execution.Retry.BaseMS,
			MaxMS:      o.policy.Execution.Retry.MaxMS,
			MaxRetries: o.policy.SLO.MaxRetries,
		}

		result, err := o.executor.Run(ctx, event.ID, step.Name, step.Tool, toolregistry.Params(step.Params), retryPolicy)
		if err != nil {
			o.logger.Error().Str("trace_id", traceID).Str("step", step.Name).Err(err).Msg("step failed")
			o.recover(ctx, ec, plan)
			return &Outcome{
				Status:     "failed",
				TraceID:    traceID,
				Partial:    ec.Results,
				FailedStep: step.Name,
			}, nil
		}

		ec.RecordCompletion(step.Name, map[string]interface{}(result))

		latencyMS := ec.LatencyMS(time.Now())
		decision := critic.Validate(step.Tool, result, latencyMS, latencyChecker{engine: o.engine})
		if !decision.Accepted {
			o.logger.Error().Str("trace_id", traceID).Str("step", step.Name).Str("reason", decision.Reason).Msg("critic rejected step")
			o.recover(ctx, ec, plan)
			return &Outcome{
				Status:     "failed",
				TraceID:    traceID,
				Partial:    ec.Results,
				FailedStep: step.Name,
			}, nil
		}
	}

	return &Outcome{Status: "ok", TraceID: traceID, Results: ec.Results}, nil
}

// recover runs saga compensation in reverse completion order, best-effort
// (spec §4.6).
func (o *Orchestrator) recover(ctx context.Context, ec *execctx.ExecContext, plan *planner.Plan) {
	for i := len(ec.CompletedSteps) - 1; i >= 0; i-- {
		stepName := ec.CompletedSteps[i]
		step := plan.Steps[stepName]
		if step.Compensation == nil {
			continue
		}
		_, err := o.registry.Dispatch(ctx, step.Compensation.Tool, toolregistry.Params(step.Compensation.Params), true)
		if err != nil {
			o.logger.Error().Str("trace_id", ec.Event.TraceID).Str("step", stepName).Err(err).Msg("compensation failed")
		}
	}
}

type latencyChecker struct {
	engine *policy.Engine
}

func (l latencyChecker) CheckLatency(latencyMS int64) (ok bool, reason string) {
	decision, err := l.engine.CheckLatency(context.Background(), latencyMS)
	if err != nil {
		return false, fmt.Sprintf("latency check error: %v", err)
	}
	if !decision.Allowed {
		reason := ""
		if len(decision.Reasons) > 0 {
			reason = decision.Reasons[0]
		}
		return false, reason
	}
	return true, ""
}
