package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixperk/lockcache/pkg/registry"
	"github.com/pixperk/lockcache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the registry never needs a callback for a single uncontended holder
type noCallbacks struct{}

func (noCallbacks) Revoke(context.Context, types.ClientID, types.LockID) error { return nil }
func (noCallbacks) Retry(context.Context, types.ClientID, types.LockID) error  { return nil }

func newTestGateway(t *testing.T) (*registry.Registry, http.Handler) {
	t.Helper()

	reg := registry.New(noCallbacks{}, registry.Config{})
	st, err := reg.Acquire(context.Background(), 12, "a:1")
	require.NoError(t, err)
	require.Equal(t, types.StatusOK, st)

	return reg, NewServer("127.0.0.1:0", reg, "node-1", nil).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	_, h := newTestGateway(t)

	rec := get(t, h, "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "node-1", resp.NodeID)
	assert.Equal(t, registry.Stats{Locks: 1, Held: 1, Acquisitions: 1}, resp.Stats)
}

func TestLockEndpoint(t *testing.T) {
	_, h := newTestGateway(t)

	rec := get(t, h, "/v1/locks/12")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap registry.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, types.LockID(12), snap.ID)
	assert.False(t, snap.Free)
	assert.Equal(t, types.ClientID("a:1"), snap.Holder)
	assert.Empty(t, snap.Waiting)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/locks/13").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/locks/twelve").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestGateway(t)

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lockcache_")
}

func TestMethodNotAllowed(t *testing.T) {
	_, h := newTestGateway(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
