package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

func TestRouteJMSAssignsMonotonicIDsPerDestination(t *testing.T) {
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	defer store.Close()

	router := NewJMSRouter(store)
	first, err := router.Handle(context.Background(), toolregistry.Params{"destination": "ORDERS.QUEUE"}, false)
	require.NoError(t, err)
	second, err := router.Handle(context.Background(), toolregistry.Params{"destination": "ORDERS.QUEUE"}, false)
	require.NoError(t, err)
	otherDest, err := router.Handle(context.Background(), toolregistry.Params{"destination": "SHIPPING.QUEUE"}, false)
	require.NoError(t, err)

	assert.Equal(t, "jms-1", first["message_id"])
	assert.Equal(t, "jms-2", second["message_id"])
	assert.Equal(t, "jms-1", otherDest["message_id"])
}
