package tools

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/broker"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

type fakeProducer struct {
	available bool
	err       error
}

func (f fakeProducer) Produce(_ context.Context, _ string, _ []byte, _ []byte) (int64, bool, error) {
	return -1, f.available, f.err
}
func (fakeProducer) Close() error { return nil }

func newPublishCtx(t *testing.T, store *outbox.Store) context.Context {
	t.Helper()
	ec := execctx.New(&eventing.Event{ID: "e1", TraceID: "trc_1", Payload: map[string]interface{}{"order_id": "o1"}}, nil, store, nil, time.Now())
	return execctx.WithExecContext(context.Background(), ec)
}

func TestPublishKafkaReturnsNullOffsetWhenBrokerAvailable(t *testing.T) {
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	defer store.Close()

	p := NewPublisher(fakeProducer{available: true}, store)
	result, err := p.Handle(newPublishCtx(t, store), toolregistry.Params{"topic": "oms.events"}, false)
	require.NoError(t, err)
	assert.Nil(t, result["offset"])
	assert.Empty(t, result["fallback"])
}

func TestPublishKafkaFallsBackWhenBrokerUnavailable(t *testing.T) {
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	defer store.Close()

	p := NewPublisher(broker.Unavailable{}, store)
	result, err := p.Handle(newPublishCtx(t, store), toolregistry.Params{"topic": "oms.events"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result["offset"])
	assert.Equal(t, true, result["fallback"])
}

func TestPublishKafkaFallsBackWhenPublishRaises(t *testing.T) {
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	defer store.Close()

	p := NewPublisher(fakeProducer{available: true, err: assert.AnError}, store)
	result, err := p.Handle(newPublishCtx(t, store), toolregistry.Params{"topic": "oms.events"}, false)
	require.NoError(t, err)
	assert.Equal(t, true, result["fallback"])
}
