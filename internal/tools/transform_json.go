package tools

import (
	"context"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

// Transformer implements the transform_json tool: named templates over the
// event payload and prior step results (spec §4.3).
type Transformer struct{}

// Tool returns the registry entry for transform_json.
func (Transformer) Tool() toolregistry.Tool {
	return toolregistry.Tool{Name: "transform_json", Handler: Handle}
}

// Handle executes one transform_json invocation. params: {template_or_fn}.
func Handle(ctx context.Context, params toolregistry.Params, _ bool) (toolregistry.Result, error) {
	template, _ := params["template_or_fn"].(string)

	ec, ok := execctx.FromContext(ctx)
	if !ok {
		return toolregistry.Result{"data": nil}, nil
	}

	if template == "merge_customer" {
		merged := make(map[string]interface{}, len(ec.Event.Payload)+1)
		for k, v := range ec.Event.Payload {
			merged[k] = v
		}
		if fetchResult, ok := ec.Results["fetch_customer"]; ok {
			if fetchMap, ok := fetchResult.(map[string]interface{}); ok {
				merged["customer"] = fetchMap["json"]
			}
		}
		return toolregistry.Result{"data": merged}, nil
	}

	return toolregistry.Result{"data": map[string]interface{}{
		"event": ec.Event.Payload,
		"prior": ec.Results,
	}}, nil
}
