package planner

// BuildPlan assembles a DAG from the given intents (spec §4.2). Each intent
// contributes its steps independently, but a later intent's steps may
// depend on an earlier intent's steps having actually been added — the
// dependency is only attached when the referenced step exists, so a plan
// built from an unexpected intent combination never dangles a depends_on
// (spec §9 open question: source dangles publish.depends_on=["reserve"]
// even when reserve was never added).
func BuildPlan(intents []string) *Plan {
	plan := NewPlan()
	has := make(map[string]bool, len(intents))
	for _, intent := range intents {
		has[intent] = true
	}

	if has[IntentEnrichOrder] {
		plan.AddStep(&PlanStep{
			Name:   "fetch_customer",
			Tool:   "call_rest",
			Params: map[string]interface{}{"url": "/crm/customer", "method": "GET"},
		})
		plan.AddStep(&PlanStep{
			Name:      "merge_profile",
			Tool:      "transform_json",
			Params:    map[string]interface{}{"template_or_fn": "merge_customer"},
			DependsOn: []string{"fetch_customer"},
		})
	}

	if has[IntentReserveInventory] {
		step := &PlanStep{
			Name:   "reserve",
			Tool:   "call_rest",
			Params: map[string]interface{}{"url": "/wms/reservations", "method": "POST"},
			Compensation: &Compensation{
				Tool:   "call_rest",
				Params: map[string]interface{}{"url": "/wms/cancel_reservation", "method": "POST"},
			},
		}
		if plan.Has("merge_profile") {
			step.DependsOn = []string{"merge_profile"}
		}
		plan.AddStep(step)
	}

	if has[IntentNotifyOMS] {
		step := &PlanStep{
			Name:   "publish",
			Tool:   "publish_kafka",
			Params: map[string]interface{}{"topic": "oms.events"},
		}
		if plan.Has("reserve") {
			step.DependsOn = []string{"reserve"}
		}
		plan.AddStep(step)
	}

	return plan
}
