package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/registry"
	"github.com/pixperk/lockcache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// records callbacks and answers with a fixed status
type recordingCallbacks struct {
	pb.UnimplementedLockCallbackServer

	mu      sync.Mutex
	revokes []uint64
	retries []uint64
	answer  pb.Status
}

func (r *recordingCallbacks) Revoke(ctx context.Context, req *pb.RevokeRequest) (*pb.CallbackResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokes = append(r.revokes, req.GetLockId())
	return &pb.CallbackResponse{Status: r.answer}, nil
}

func (r *recordingCallbacks) Retry(ctx context.Context, req *pb.RetryRequest) (*pb.CallbackResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries = append(r.retries, req.GetLockId())
	return &pb.CallbackResponse{Status: r.answer}, nil
}

func (r *recordingCallbacks) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revokes), len(r.retries)
}

// serves cb on a loopback port and returns the address
func serveCallbacks(t *testing.T, cb pb.LockCallbackServer) types.ClientID {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	gs := grpc.NewServer()
	pb.RegisterLockCallbackServer(gs, cb)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	return types.ClientID(lis.Addr().String())
}

func newTestServer(t *testing.T) (*Server, *CallbackPool) {
	t.Helper()

	pool := NewCallbackPool(nil)
	t.Cleanup(func() { pool.Close() })

	reg := registry.New(pool, registry.Config{CallbackTimeout: time.Second})
	return NewServer(reg, uuid.New()), pool
}

func TestToGRPCError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{types.ErrNotFound, codes.NotFound},
		{types.ErrInvalidClientID, codes.InvalidArgument},
		{fmt.Errorf("release lock 3: %w", types.ErrNotHolder), codes.PermissionDenied},
		{types.ErrProtocolViolation, codes.FailedPrecondition},
		{types.ErrTransport, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			st, ok := status.FromError(toGRPCError(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
		})
	}

	assert.NoError(t, toGRPCError(nil))
}

func TestServerRequiresClientID(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.Acquire(ctx, &pb.AcquireRequest{LockId: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.Release(ctx, &pb.ReleaseRequest{LockId: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServerAcquireSendsRevoke(t *testing.T) {
	s, _ := newTestServer(t)
	holder := &recordingCallbacks{}
	holderID := serveCallbacks(t, holder)
	ctx := context.Background()

	resp, err := s.Acquire(ctx, &pb.AcquireRequest{LockId: 4, ClientId: string(holderID)})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, resp.Status)

	waiter := &recordingCallbacks{}
	waiterID := serveCallbacks(t, waiter)

	resp, err = s.Acquire(ctx, &pb.AcquireRequest{LockId: 4, ClientId: string(waiterID)})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_RETRY, resp.Status)

	revokes, _ := holder.counts()
	assert.Equal(t, 1, revokes)

	rel, err := s.Release(ctx, &pb.ReleaseRequest{LockId: 4, ClientId: string(holderID)})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, rel.Status)

	_, retries := waiter.counts()
	assert.Equal(t, 1, retries)

	resp, err = s.Acquire(ctx, &pb.AcquireRequest{LockId: 4, ClientId: string(waiterID)})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, resp.Status)

	stat, err := s.Stat(ctx, &pb.StatRequest{LockId: 4})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_OK, stat.Status)
	assert.Equal(t, uint64(2), stat.Count)
}

func TestServerReleaseUnknownLock(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.Release(context.Background(), &pb.ReleaseRequest{LockId: 8, ClientId: "a:1"})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_NOENT, resp.Status)

	stat, err := s.Stat(context.Background(), &pb.StatRequest{LockId: 8})
	require.NoError(t, err)
	assert.Equal(t, pb.Status_NOENT, stat.Status)
}

func TestServerGetStatus(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.Acquire(ctx, &pb.AcquireRequest{LockId: 1, ClientId: "a:1"})
	require.NoError(t, err)

	resp, err := s.GetStatus(ctx, &pb.GetStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, s.nodeID.String(), resp.NodeId)
	assert.Equal(t, int32(1), resp.GetStats().Locks)
	assert.Equal(t, int32(1), resp.GetStats().Held)
	assert.Equal(t, uint64(1), resp.GetStats().GetAcquisitions())
}

func TestCallbackPool(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers", func(t *testing.T) {
		pool := NewCallbackPool(nil)
		defer pool.Close()

		cb := &recordingCallbacks{}
		to := serveCallbacks(t, cb)

		require.NoError(t, pool.Revoke(ctx, to, 3))
		require.NoError(t, pool.Retry(ctx, to, 3))
		require.NoError(t, pool.Retry(ctx, to, 4))

		cb.mu.Lock()
		defer cb.mu.Unlock()
		assert.Equal(t, []uint64{3}, cb.revokes)
		assert.Equal(t, []uint64{3, 4}, cb.retries)

		pool.mu.Lock()
		defer pool.mu.Unlock()
		assert.Len(t, pool.conns, 1, "one connection per client")
	})

	t.Run("rejected", func(t *testing.T) {
		pool := NewCallbackPool(nil)
		defer pool.Close()

		to := serveCallbacks(t, &recordingCallbacks{answer: pb.Status_NOENT})

		err := pool.Retry(ctx, to, 3)
		assert.ErrorIs(t, err, types.ErrCallbackRejected)
	})

	t.Run("unreachable", func(t *testing.T) {
		pool := NewCallbackPool(nil)
		defer pool.Close()

		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		to := types.ClientID(lis.Addr().String())
		lis.Close()

		rctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		err = pool.Revoke(rctx, to, 1)
		assert.ErrorIs(t, err, types.ErrTransport)
	})
}
