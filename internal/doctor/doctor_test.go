package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunAllChecksPass(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	servicesPath := filepath.Join(dir, "services.yaml")
	writeFile(t, policyPath, `
slo:
  max_steps: 10
  max_retries: 2
rbac:
  roles:
    agent:
      allow_tools: ["call_rest"]
`)
	writeFile(t, servicesPath, `
services:
  crm:
    base_url: https://crm.example.com
`)

	cfg := &config.Config{
		OutboxPath:    filepath.Join(dir, "outbox.db"),
		PolicyPath:    policyPath,
		ServicesPath:  servicesPath,
		SecretsSource: "env",
	}

	report := Run(context.Background(), cfg)
	assert.True(t, report.Passed)
	for _, c := range report.Checks {
		assert.True(t, c.OK, "%s: %s", c.Name, c.Detail)
	}
}

func TestRunFailsOnMissingPolicy(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		OutboxPath:   filepath.Join(dir, "outbox.db"),
		PolicyPath:   filepath.Join(dir, "missing.yaml"),
		ServicesPath: filepath.Join(dir, "missing-services.yaml"),
	}

	report := Run(context.Background(), cfg)
	assert.False(t, report.Passed)
}

func TestRunWarnsOnUnconfiguredBroker(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	servicesPath := filepath.Join(dir, "services.yaml")
	writeFile(t, policyPath, "slo:\n  max_steps: 5\n")
	writeFile(t, servicesPath, "services: {}\n")

	cfg := &config.Config{
		OutboxPath:   filepath.Join(dir, "outbox.db"),
		PolicyPath:   policyPath,
		ServicesPath: servicesPath,
	}

	report := Run(context.Background(), cfg)
	assert.True(t, report.Passed)
	found := false
	for _, w := range report.Warnings {
		if w.Name == "broker" {
			found = true
			assert.False(t, w.OK)
		}
	}
	assert.True(t, found)
}
