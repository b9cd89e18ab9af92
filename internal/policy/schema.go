package policy

import "fmt"

// Validate applies business-rule checks beyond what YAML unmarshalling
// enforces on its own — a malformed policies file should fail loudly at
// startup (or at `validate`) rather than surface as a confusing SLO
// violation mid-run.
func Validate(p *Policy) error {
	if p.SLO.MaxSteps <= 0 {
		return fmt.Errorf("slo.max_steps must be positive, got %d", p.SLO.MaxSteps)
	}
	if p.SLO.MaxRetries < 0 {
		return fmt.Errorf("slo.max_retries must not be negative, got %d", p.SLO.MaxRetries)
	}
	if p.Execution.Retry.BaseMS <= 0 {
		return fmt.Errorf("execution.retry.base_ms must be positive, got %d", p.Execution.Retry.BaseMS)
	}
	if p.Execution.Retry.MaxMS < p.Execution.Retry.BaseMS {
		return fmt.Errorf("execution.retry.max_ms (%d) must be >= base_ms (%d)", p.Execution.Retry.MaxMS, p.Execution.Retry.BaseMS)
	}
	return nil
}
