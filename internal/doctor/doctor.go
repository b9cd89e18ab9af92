// Package doctor runs preflight checks against a middleware deployment's
// configuration: can the outbox be opened, does the policy document load and
// compile, does the service config parse, is a broker configured. It backs
// both the "doctor" CLI command and can be reused by an operational health
// endpoint.
package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/config"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/serviceconfig"
)

// Check is the outcome of one preflight probe.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report bundles every check run against a configuration, plus the overall
// pass/fail verdict (Warnings do not affect Passed).
type Report struct {
	Checks   []Check
	Warnings []Check
	Passed   bool
}

// Run executes every preflight check against cfg.
func Run(ctx context.Context, cfg *config.Config) Report {
	var report Report
	report.Passed = true

	report.Checks = append(report.Checks, checkOutbox(cfg))
	report.Checks = append(report.Checks, checkPolicy(ctx, cfg))
	report.Checks = append(report.Checks, checkServices(cfg))

	for _, c := range report.Checks {
		if !c.OK {
			report.Passed = false
		}
	}

	report.Warnings = append(report.Warnings, checkBroker(cfg))
	report.Warnings = append(report.Warnings, checkSecrets(cfg))

	return report
}

func checkOutbox(cfg *config.Config) Check {
	if err := cfg.EnsureOutboxDir(); err != nil {
		return Check{Name: "outbox", OK: false, Detail: err.Error()}
	}
	store, err := outbox.Open(cfg.OutboxPath)
	if err != nil {
		return Check{Name: "outbox", OK: false, Detail: err.Error()}
	}
	defer store.Close()
	return Check{Name: "outbox", OK: true, Detail: cfg.OutboxPath}
}

func checkPolicy(ctx context.Context, cfg *config.Config) Check {
	pol, err := policy.Load(cfg.PolicyPath, "")
	if err != nil {
		return Check{Name: "policy", OK: false, Detail: err.Error()}
	}
	if _, err := policy.NewEngine(ctx, pol); err != nil {
		return Check{Name: "policy", OK: false, Detail: fmt.Sprintf("compiling rego: %v", err)}
	}
	return Check{Name: "policy", OK: true, Detail: "version " + pol.VersionTag}
}

func checkServices(cfg *config.Config) Check {
	doc, err := serviceconfig.Load(cfg.ServicesPath)
	if err != nil {
		return Check{Name: "services", OK: false, Detail: err.Error()}
	}
	return Check{Name: "services", OK: true, Detail: fmt.Sprintf("%d service(s)", len(doc.Services))}
}

func checkBroker(cfg *config.Config) Check {
	if !cfg.Broker.Configured() {
		return Check{Name: "broker", OK: false, Detail: "no bootstrap servers configured, publish_kafka will use outbox fallback offsets"}
	}
	return Check{Name: "broker", OK: true, Detail: fmt.Sprintf("%d bootstrap server(s)", len(cfg.Broker.Brokers))}
}

func checkSecrets(cfg *config.Config) Check {
	if cfg.SecretsSource == "" || cfg.SecretsSource == "env" {
		return Check{Name: "secrets", OK: true, Detail: "environment only"}
	}
	if _, err := os.Stat(cfg.SecretsSource); err != nil {
		return Check{Name: "secrets", OK: false, Detail: err.Error()}
	}
	return Check{Name: "secrets", OK: true, Detail: cfg.SecretsSource}
}
