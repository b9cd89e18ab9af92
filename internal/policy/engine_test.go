package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPolicy() *Policy {
	return &Policy{
		SLO: SLOConfig{MaxSteps: 20, MaxLatencyMS: 3000, MaxRetries: 3},
		Execution: ExecutionConfig{
			Retry: RetryConfig{BaseMS: 200, MaxMS: 5000},
		},
		RBAC: RBACConfig{
			Roles: map[string]RoleConfig{
				"agent": {AllowTools: []string{"enrich_order", "reserve_inventory"}},
			},
		},
	}
}

func TestAuthorizeAllowsListedTool(t *testing.T) {
	engine, err := NewEngine(context.Background(), newTestPolicy())
	require.NoError(t, err)

	decision, err := engine.Authorize(context.Background(), "enrich_order")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reasons)
}

func TestAuthorizeDeniesUnlistedTool(t *testing.T) {
	engine, err := NewEngine(context.Background(), newTestPolicy())
	require.NoError(t, err)

	decision, err := engine.Authorize(context.Background(), "open_ticket")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reasons)
}

func TestCheckLatencyWithinBoundIsAllowed(t *testing.T) {
	engine, err := NewEngine(context.Background(), newTestPolicy())
	require.NoError(t, err)

	decision, err := engine.CheckLatency(context.Background(), 1000)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheckLatencyOverBoundIsDenied(t *testing.T) {
	engine, err := NewEngine(context.Background(), newTestPolicy())
	require.NoError(t, err)

	decision, err := engine.CheckLatency(context.Background(), 9000)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reasons[0], "exceeds slo.max_latency_ms")
}

func TestCheckLatencyDisabledWhenMaxIsZero(t *testing.T) {
	pol := newTestPolicy()
	pol.SLO.MaxLatencyMS = 0
	engine, err := NewEngine(context.Background(), pol)
	require.NoError(t, err)

	decision, err := engine.CheckLatency(context.Background(), 999999)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
