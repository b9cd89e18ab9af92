// Package critic validates a step's result after a successful tool
// invocation, independently of whether the tool itself reported an error
// (spec §4.5).
package critic

import (
	"fmt"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

// Decision is the critic's verdict on a single step result.
type Decision struct {
	Accepted bool
	Reason   string
}

// MaxLatencyChecker reports whether a latency, in milliseconds, violates the
// active SLO. It is a narrow seam so critic tests don't need a full policy
// engine.
type MaxLatencyChecker interface {
	CheckLatency(latencyMS int64) (ok bool, reason string)
}

// Validate applies the tool-specific and SLO post-conditions to a step's
// result. A rejection ends the plan and triggers recovery (spec §4.6).
func Validate(stepTool string, result toolregistry.Result, latencyMS int64, latency MaxLatencyChecker) Decision {
	switch stepTool {
	case "call_rest":
		if status, ok := asInt(result["status"]); ok && status >= 500 {
			return Decision{Accepted: false, Reason: fmt.Sprintf("call_rest returned status %d", status)}
		}
	case "publish_kafka":
		// The broker success path returns offset: null with no fallback flag;
		// only a fallback publish is required to carry a non-null offset —
		// amending the literal source rule, which would reject every
		// successful broker publish (spec §9 open question).
		fallback, _ := result["fallback"].(bool)
		if fallback {
			if _, hasOffset := result["offset"]; !hasOffset || result["offset"] == nil {
				return Decision{Accepted: false, Reason: "publish_kafka fallback result missing offset"}
			}
		}
	}

	if latency != nil {
		if ok, reason := latency.CheckLatency(latencyMS); !ok {
			return Decision{Accepted: false, Reason: reason}
		}
	}

	return Decision{Accepted: true}
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
