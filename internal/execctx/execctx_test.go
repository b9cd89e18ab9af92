package execctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
)

func TestWithExecContextRoundTrips(t *testing.T) {
	ec := New(&eventing.Event{ID: "e1"}, nil, nil, nil, time.Now())
	ctx := WithExecContext(context.Background(), ec)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "e1", got.Event.ID)
}

func TestFromContextMissingReturnsFalse(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestRecordCompletionAppendsAndStores(t *testing.T) {
	ec := New(&eventing.Event{ID: "e1"}, nil, nil, nil, time.Now())
	ec.RecordCompletion("fetch_customer", map[string]interface{}{"status": 200})
	ec.RecordCompletion("merge_profile", map[string]interface{}{"data": "x"})

	assert.Equal(t, []string{"fetch_customer", "merge_profile"}, ec.CompletedSteps)
	assert.Equal(t, 200, ec.Results["fetch_customer"].(map[string]interface{})["status"])
}

func TestLatencyMSGrowsWithElapsedTime(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)
	ec := New(&eventing.Event{ID: "e1"}, nil, nil, nil, started)
	assert.GreaterOrEqual(t, ec.LatencyMS(time.Now()), int64(1900))
}
