package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/secrets"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/serviceconfig"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

func withExecCtx(t *testing.T) context.Context {
	t.Helper()
	ec := execctx.New(&eventing.Event{ID: "e1", TraceID: "trc_1", Headers: map[string]string{"x-correlation-id": "corr_1"}}, nil, nil, nil, time.Now())
	return execctx.WithExecContext(context.Background(), ec)
}

func TestCallRestRoutesByPrefixAndSendsAuth(t *testing.T) {
	var gotAuth, gotTraceID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTraceID = r.Header.Get("x-trace-id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"customer_id":"c1"}`))
	}))
	defer srv.Close()

	services := &serviceconfig.Document{Services: map[string]serviceconfig.Service{
		"crm": {BaseURL: srv.URL, Auth: "bearer:crm-token"},
	}}
	provider := secrets.NewProvider(nil, map[string]string{"crm-token": "secret-value"})
	caller := NewRESTCaller(services, provider)

	result, err := caller.Handle(withExecCtx(t), toolregistry.Params{"url": "/crm/customer", "method": "GET"}, false)
	require.NoError(t, err)
	assert.Equal(t, 200, result["status"])
	assert.Equal(t, "c1", result["json"].(map[string]interface{})["customer_id"])
	assert.Equal(t, "Bearer secret-value", gotAuth)
	assert.Equal(t, "trc_1", gotTraceID)
}

func TestCallRestAbsoluteURLBypassesRoutingAndAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	caller := NewRESTCaller(&serviceconfig.Document{Services: map[string]serviceconfig.Service{}}, secrets.NewProvider(nil, nil))
	result, err := caller.Handle(withExecCtx(t), toolregistry.Params{"url": srv.URL, "method": "GET"}, false)
	require.NoError(t, err)
	assert.Equal(t, 200, result["status"])
	assert.Nil(t, result["json"])
	assert.Empty(t, gotAuth)
}

func TestCallRestDoesNotRaiseOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	caller := NewRESTCaller(&serviceconfig.Document{Services: map[string]serviceconfig.Service{}}, secrets.NewProvider(nil, nil))
	result, err := caller.Handle(withExecCtx(t), toolregistry.Params{"url": srv.URL, "method": "GET"}, false)
	require.NoError(t, err)
	assert.Equal(t, 503, result["status"])
}

func TestCallRestTransportErrorIsHTTPError(t *testing.T) {
	caller := NewRESTCaller(&serviceconfig.Document{Services: map[string]serviceconfig.Service{}}, secrets.NewProvider(nil, nil))
	_, err := caller.Handle(withExecCtx(t), toolregistry.Params{"url": "http://127.0.0.1:1", "method": "GET"}, false)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrHTTPError)
}
