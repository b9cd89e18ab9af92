package outbox

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetMissReturnsNotOK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, ok, err := store.Get(ctx, "trc_1", "enrich_order")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, _ := json.Marshal(map[string]string{"order_id": "ord_1"})
	err := store.Put(ctx, &Record{
		TraceID:   "trc_1",
		StepName:  "enrich_order",
		Status:    "succeeded",
		ResultRaw: result,
	})
	require.NoError(t, err)

	rec, ok, err := store.Get(ctx, "trc_1", "enrich_order")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "succeeded", rec.Status)
	assert.JSONEq(t, `{"order_id":"ord_1"}`, string(rec.ResultRaw))
}

func TestPutIsIdempotentOnRetry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Record{
		TraceID:  "trc_1",
		StepName: "reserve_inventory",
		Status:   "failed",
		Error:    "timeout",
	}))
	require.NoError(t, store.Put(ctx, &Record{
		TraceID:   "trc_1",
		StepName:  "reserve_inventory",
		Status:    "succeeded",
		ResultRaw: json.RawMessage(`{"reserved":true}`),
	}))

	rec, ok, err := store.Get(ctx, "trc_1", "reserve_inventory")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "succeeded", rec.Status)
	assert.Empty(t, rec.Error)
}

func TestNextOffsetIsMonotonicPerTopic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.NextOffset(ctx, "orders.enriched")
	require.NoError(t, err)
	second, err := store.NextOffset(ctx, "orders.enriched")
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	otherTopic, err := store.NextOffset(ctx, "orders.reserved")
	require.NoError(t, err)
	assert.Equal(t, int64(0), otherTopic)
}

func TestNextCounterIsMonotonic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.NextCounter(ctx, "ticket_number")
	require.NoError(t, err)
	second, err := store.NextCounter(ctx, "ticket_number")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}
