package cache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pixperk/lockcache/pkg/cache"
	"github.com/pixperk/lockcache/pkg/registry"
	"github.com/pixperk/lockcache/pkg/types"
)

// in-process stand-in for the RPC layer: caches call the registry directly
// and the registry's callbacks land on the caches
type network struct {
	reg *registry.Registry

	revokes atomic.Int64 // revokes answered by a cache

	mu     sync.Mutex
	caches map[types.ClientID]*cache.Cache
	links  map[types.ClientID]*link
}

// one client's connection to the server, counting the calls it makes
type link struct {
	net      *network
	acquires atomic.Int64
	releases atomic.Int64

	// acquire replies to drop after the registry has answered
	lostReplies atomic.Int32
	// runs between the registry's answer and a dropped reply
	beforeLoss func()
}

func newNetwork() *network {
	n := &network{
		caches: make(map[types.ClientID]*cache.Cache),
		links:  make(map[types.ClientID]*link),
	}
	n.reg = registry.New(n, registry.Config{CallbackTimeout: 5 * time.Second})
	return n
}

func (n *network) join(name string, opts ...cache.Option) (*cache.Cache, *link) {
	id := types.ClientID(fmt.Sprintf("%s:1", name))
	l := &link{net: n}
	c := cache.New(id, l, opts...)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.caches[id] = c
	n.links[id] = l
	return c, l
}

func (n *network) cache(id types.ClientID) *cache.Cache {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.caches[id]
}

func (n *network) Revoke(ctx context.Context, to types.ClientID, lid types.LockID) error {
	c := n.cache(to)
	if c == nil {
		return types.ErrTransport
	}
	st := c.Revoke(ctx, lid)
	n.revokes.Add(1)
	if st != types.StatusOK {
		return fmt.Errorf("%w: %s", types.ErrCallbackRejected, st)
	}
	return nil
}

func (n *network) Retry(ctx context.Context, to types.ClientID, lid types.LockID) error {
	c := n.cache(to)
	if c == nil {
		return types.ErrTransport
	}
	if st := c.Retry(ctx, lid); st != types.StatusOK {
		return fmt.Errorf("%w: %s", types.ErrCallbackRejected, st)
	}
	return nil
}

func (l *link) Acquire(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error) {
	l.acquires.Add(1)
	st, err := l.net.reg.Acquire(ctx, lid, cid)
	if err == nil && l.dropReply() {
		if l.beforeLoss != nil {
			l.beforeLoss()
		}
		return types.StatusIOErr, context.DeadlineExceeded
	}
	return st, err
}

func (l *link) dropReply() bool {
	for {
		n := l.lostReplies.Load()
		if n <= 0 {
			return false
		}
		if l.lostReplies.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (l *link) Release(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error) {
	l.releases.Add(1)
	return l.net.reg.Release(ctx, lid, cid)
}

func (l *link) calls() int64 {
	return l.acquires.Load() + l.releases.Load()
}
