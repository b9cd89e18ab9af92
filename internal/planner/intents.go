package planner

import "github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"

const (
	IntentEnrichOrder     = "enrich_order"
	IntentReserveInventory = "reserve_inventory"
	IntentNotifyOMS       = "notify_oms"
)

var usEUOrderCreated = map[string]struct{}{"US": {}, "EU": {}}

// InferIntents maps an observation to an ordered list of intent tags via a
// deterministic, top-to-bottom rule table. The initial table has one rule:
// an ORDER_CREATED event for a US/EU region enriches and reserves before
// notifying OMS; everything else only notifies OMS.
func InferIntents(obs eventing.Observation) []string {
	if obs.Type == "ORDER_CREATED" {
		if region, ok := obs.PayloadString("region"); ok {
			if _, inUSOrEU := usEUOrderCreated[region]; inUSOrEU {
				return []string{IntentEnrichOrder, IntentReserveInventory, IntentNotifyOMS}
			}
		}
	}
	return []string{IntentNotifyOMS}
}
