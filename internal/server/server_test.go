package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/approvals"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/orchestrator"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/policy"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/executor"
)

func newTestServer(t *testing.T) (*Server, *approvals.Store) {
	t.Helper()
	pol := &policy.Policy{
		SLO: policy.SLOConfig{MaxSteps: 20, MaxRetries: 1},
		RBAC: policy.RBACConfig{
			Roles: map[string]policy.RoleConfig{"agent": {AllowTools: []string{"call_rest", "transform_json", "publish_kafka"}}},
		},
	}
	engine, err := policy.NewEngine(context.Background(), pol)
	require.NoError(t, err)

	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry := toolregistry.New(engine)
	registry.Register(toolregistry.Tool{Name: "call_rest", Handler: func(_ context.Context, _ toolregistry.Params, _ bool) (toolregistry.Result, error) {
		return toolregistry.Result{"status": 200}, nil
	}})
	registry.Register(toolregistry.Tool{Name: "transform_json", Handler: func(_ context.Context, _ toolregistry.Params, _ bool) (toolregistry.Result, error) {
		return toolregistry.Result{"data": map[string]interface{}{}}, nil
	}})
	registry.Register(toolregistry.Tool{Name: "publish_kafka", Handler: func(_ context.Context, _ toolregistry.Params, _ bool) (toolregistry.Result, error) {
		n, err := store.NextOffset(context.Background(), "oms.events")
		require.NoError(t, err)
		return toolregistry.Result{"offset": n, "topic": "oms.events", "fallback": true}, nil
	}})

	exec := executor.New(registry, store, nil)
	appr := approvals.New()
	orch := orchestrator.New(pol, engine, registry, exec, store, appr, zerolog.Nop())

	return New(orch, appr, nil, 0), appr
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
}

func TestIngestHappyPath(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"id":"e1","source":"oms","type":"ORDER_CREATED","payload":{"region":"JP"}}`
	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, true, out["ok"])
}

func TestIngestMalformedBodyReturns500(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIngestMissingIDReturns500(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString(`{"type":"ORDER_CREATED"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApproveRecordsApproval(t *testing.T) {
	srv, appr := newTestServer(t)
	body := `{"trace_id":"trc_1","step_name":"open_ticket","approved_by":"[email protected]"}`
	req := httptest.NewRequest(http.MethodPost, "/approve", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, appr.IsApproved("trc_1", "open_ticket"))
}

func TestApproveMissingFieldsReturns500(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/approve", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConsumeStartWithoutBrokerReturns500(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/consume/start?group_id=g1&topic=t1", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConsumeStartInvokesFactory(t *testing.T) {
	srv, _ := newTestServer(t)
	var started bool
	srv.consumers = func(groupID, topic string) (func(), error) {
		started = true
		assert.Equal(t, "g1", groupID)
		assert.Equal(t, "t1", topic)
		return func() {}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/consume/start?group_id=g1&topic=t1", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, started)
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(1)
	assert.True(t, rl.Allow("caller-a"))
	assert.False(t, rl.Allow("caller-a"))
	assert.True(t, rl.Allow("caller-b"))
}
