package cache_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixperk/lockcache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A acquires, B's acquire revokes A and waits, A's release retries B
func TestBasicHandoffBetweenClients(t *testing.T) {
	n := newNetwork()
	a, _ := n.join("a")
	b, _ := n.join("b")
	ctx := context.Background()

	require.NoError(t, a.Acquire(ctx, 5))

	done := acquireAsync(b, ctx, 5)
	require.Eventually(t, func() bool {
		return a.State(5) == types.StateReleasing
	}, time.Second, 5*time.Millisecond, "A in use, so the revoke is deferred")

	snap, _ := n.reg.Lookup(5)
	assert.Equal(t, types.ClientID("a:1"), snap.Holder)

	require.NoError(t, a.Release(ctx, 5))
	require.NoError(t, waitDone(t, done))

	assert.Equal(t, types.StateNone, a.State(5))
	assert.Equal(t, types.StateOwn, b.State(5))

	snap, _ = n.reg.Lookup(5)
	assert.Equal(t, types.ClientID("b:1"), snap.Holder)
	assert.Empty(t, snap.Waiting)
}

// T1 releases while T2 waits in the same process: no server traffic
func TestInProcessHandoff(t *testing.T) {
	n := newNetwork()
	a, link := n.join("a")
	ctx := context.Background()

	require.NoError(t, a.Acquire(ctx, 7))
	assert.Equal(t, int64(1), link.calls())

	t2 := acquireAsync(a, ctx, 7)
	require.Eventually(t, func() bool { return a.Waiters(7) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Release(ctx, 7))
	require.NoError(t, waitDone(t, t2))

	assert.Equal(t, types.StateOwn, a.State(7))
	assert.Equal(t, int64(1), link.calls(), "the handoff must not contact the server")

	require.NoError(t, a.Release(ctx, 7))
	assert.Equal(t, int64(2), link.calls())
	assert.Equal(t, types.StateNone, a.State(7))
}

// an idle cached lock is handed back as soon as another client asks
func TestIdleLockReturnedOnRevoke(t *testing.T) {
	n := newNetwork()
	a, _ := n.join("a")
	b, _ := n.join("b")
	ctx := context.Background()

	require.NoError(t, a.Acquire(ctx, 3))
	a.SetState(3, types.StateFree)

	require.NoError(t, waitDone(t, acquireAsync(b, ctx, 3)))
	assert.Equal(t, types.StateNone, a.State(3))
	assert.Equal(t, types.StateOwn, b.State(3))
}

// a waiter that gave up must not swallow the only retry
func TestAbandonedWaiterDoesNotStallOthers(t *testing.T) {
	n := newNetwork()
	a, _ := n.join("a")
	b, _ := n.join("b")
	c, _ := n.join("c")
	ctx := context.Background()

	require.NoError(t, a.Acquire(ctx, 1))

	bctx, cancel := context.WithCancel(ctx)
	bDone := acquireAsync(b, bctx, 1)
	cDone := acquireAsync(c, ctx, 1)
	require.Eventually(t, func() bool {
		snap, _ := n.reg.Lookup(1)
		return len(snap.Waiting) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, waitDone(t, bDone), context.Canceled)

	require.NoError(t, a.Release(ctx, 1))
	require.NoError(t, waitDone(t, cDone))
	assert.Equal(t, types.StateOwn, c.State(1))
}

// many clients, many goroutines each, few locks: never two holders at once
// and every acquire eventually succeeds
func TestMutualExclusionUnderContention(t *testing.T) {
	const (
		clients    = 3
		goroutines = 4
		locks      = 3
		iterations = 40
	)

	n := newNetwork()
	var holders [locks]atomic.Int32
	var violations atomic.Int32

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		c, _ := n.join(fmt.Sprintf("client-%d", i))
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rnd := rand.New(rand.NewSource(seed))
				for it := 0; it < iterations; it++ {
					lid := types.LockID(rnd.Intn(locks))
					if err := c.Acquire(ctx, lid); err != nil {
						t.Errorf("acquire %d: %v", lid, err)
						return
					}
					if holders[lid].Add(1) != 1 {
						violations.Add(1)
					}
					time.Sleep(time.Duration(rnd.Intn(200)) * time.Microsecond)
					holders[lid].Add(-1)
					if err := c.Release(ctx, lid); err != nil {
						t.Errorf("release %d: %v", lid, err)
						return
					}
				}
			}(int64(i*goroutines + g))
		}
	}
	wg.Wait()

	assert.Zero(t, violations.Load(), "a lock was held by two goroutines at once")
	stats := n.reg.Stats()
	assert.Zero(t, stats.Held, "every lock goes back once nobody wants it")
}

// the server granted but the reply never arrived: the lock must not be
// orphaned at the server
func TestLostGrantReplyIsReclaimed(t *testing.T) {
	n := newNetwork()
	a, la := n.join("a")
	b, _ := n.join("b")
	ctx := context.Background()

	la.lostReplies.Store(1)
	err := a.Acquire(ctx, 1)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, types.StateFree, a.State(1), "the grant is kept cached")

	snap, _ := n.reg.Lookup(1)
	assert.Equal(t, types.ClientID("a:1"), snap.Holder)

	require.NoError(t, waitDone(t, acquireAsync(b, ctx, 1)))
	assert.Equal(t, types.StateNone, a.State(1))
	assert.Equal(t, types.StateOwn, b.State(1))

	snap, _ = n.reg.Lookup(1)
	assert.Equal(t, types.ClientID("b:1"), snap.Holder)
}

func TestRevokeDuringLostGrantReply(t *testing.T) {
	n := newNetwork()
	a, la := n.join("a")
	b, _ := n.join("b")
	ctx := context.Background()

	var bDone <-chan error
	la.lostReplies.Store(1)
	la.beforeLoss = func() {
		bDone = acquireAsync(b, ctx, 2)
		require.Eventually(t, func() bool {
			return n.revokes.Load() == 1
		}, time.Second, 5*time.Millisecond, "B's acquire revokes A while A's reply is on the wire")
	}

	err := a.Acquire(ctx, 2)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, types.StateNone, a.State(2), "the revoked grant went straight back")

	require.NoError(t, waitDone(t, bDone))
	assert.Equal(t, types.StateOwn, b.State(2))

	snap, _ := n.reg.Lookup(2)
	assert.Equal(t, types.ClientID("b:1"), snap.Holder)
	assert.Empty(t, snap.Waiting)
}
