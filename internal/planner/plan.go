// Package planner turns an observed event into an ordered, idempotent
// execution plan: intent inference followed by DAG construction and
// topological scheduling (spec §4.2).
package planner

import "fmt"

// Compensation is the inverse tool call a step declares for saga recovery.
type Compensation struct {
	Tool   string
	Params map[string]interface{}
}

// PlanStep is one node in a Plan's DAG.
type PlanStep struct {
	Name         string
	Tool         string
	Params       map[string]interface{}
	DependsOn    []string
	Compensation *Compensation
}

// Plan is the DAG the orchestrator executes, keyed by step name.
type Plan struct {
	Steps map[string]*PlanStep
	// order preserves insertion order so topological tie-breaking among
	// zero-in-degree steps is deterministic (spec §4.2).
	order []string
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{Steps: make(map[string]*PlanStep)}
}

// AddStep appends a step to the plan, preserving insertion order.
func (p *Plan) AddStep(step *PlanStep) {
	p.Steps[step.Name] = step
	p.order = append(p.order, step.Name)
}

// Has reports whether a step with the given name exists in the plan.
func (p *Plan) Has(name string) bool {
	_, ok := p.Steps[name]
	return ok
}

// Validate checks that every depends_on name resolves to a step in the plan
// and that the plan fits within maxSteps (spec §3, §4.6 step 4).
func (p *Plan) Validate(maxSteps int) error {
	if maxSteps > 0 && len(p.Steps) > maxSteps {
		return fmt.Errorf("plan has %d steps, exceeds slo.max_steps (%d)", len(p.Steps), maxSteps)
	}
	for _, step := range p.Steps {
		for _, dep := range step.DependsOn {
			if !p.Has(dep) {
				return fmt.Errorf("step %q depends on undefined step %q", step.Name, dep)
			}
		}
	}
	return nil
}

// TopologicalOrder returns step names in an order where every step follows
// all of its dependencies, via Kahn's algorithm. Ties among zero-in-degree
// steps break by plan insertion order, so the result is deterministic for a
// given plan. Returns an error if the plan contains a cycle.
func (p *Plan) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(p.Steps))
	dependents := make(map[string][]string, len(p.Steps))
	for _, name := range p.order {
		step := p.Steps[name]
		inDegree[name] = len(step.DependsOn)
		for _, dep := range step.DependsOn {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range p.order {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	var result []string
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		result = append(result, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(result) != len(p.Steps) {
		return nil, fmt.Errorf("plan contains a cycle: only %d of %d steps are orderable", len(result), len(p.Steps))
	}
	return result, nil
}
