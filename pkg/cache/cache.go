// Package cache implements the client side of the caching lock protocol.
//
// A Cache is shared by every goroutine of one client process. It keeps each
// lock it has been granted until the server revokes it, so a lock released by
// one goroutine can be handed to another local goroutine without a round trip.
// The server reaches the cache through Revoke and Retry, which the transport
// layer wires to inbound callbacks.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/metrics"
	"github.com/pixperk/lockcache/pkg/types"
)

// LockServer is the cache's view of the lock server. Errors are transport
// failures, protocol outcomes come back as a Status.
type LockServer interface {
	Acquire(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error)
	Release(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error)
}

// ReleaseFunc runs before a lock is returned to the server, while no local
// goroutine uses it. An error keeps the lock at this client.
type ReleaseFunc func(ctx context.Context, lid types.LockID) error

type Option func(*Cache)

// WithLogger sets the logger, a null logger is used otherwise.
func WithLogger(l hclog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithReleaseHook sets the function run before each return to the server.
func WithReleaseHook(fn ReleaseFunc) Option {
	return func(c *Cache) { c.onRelease = fn }
}

// WithRPCTimeout bounds every call to the server. Zero leaves calls bounded
// only by the caller's context.
func WithRPCTimeout(d time.Duration) Option {
	return func(c *Cache) { c.rpcTimeout = d }
}

type Cache struct {
	id     types.ClientID
	server LockServer

	onRelease  ReleaseFunc
	rpcTimeout time.Duration
	log        hclog.Logger

	mu    sync.Mutex
	locks map[types.LockID]*entry
}

// one cached lock
// critical :
// - state only changes with Cache.mu held
// - inFlight is set while an acquire or release RPC for this lock is outstanding
type entry struct {
	state         types.CacheState
	revokePending bool // revoke answered before the lock could go back
	retried       bool // retry arrived while the acquire RPC was in flight
	inFlight      bool
	waiters       int
	wake          chan struct{}
}

// closes the current wake channel so every local waiter re-evaluates
func (e *entry) broadcast() {
	close(e.wake)
	e.wake = make(chan struct{})
}

// New returns a cache that identifies itself to server as id. id must be the
// address the server can reach this process's callbacks on.
func New(id types.ClientID, server LockServer, opts ...Option) *Cache {
	c := &Cache{
		id:     id,
		server: server,
		locks:  make(map[types.LockID]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNull(c.log).Named("cache").With("client", id)
	return c
}

func (c *Cache) ID() types.ClientID {
	return c.id
}

// Acquire blocks until the calling goroutine holds lid or ctx is done.
func (c *Cache) Acquire(ctx context.Context, lid types.LockID) error {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(lid)
	for {
		switch e.state {
		case types.StateFree:
			e.state = types.StateOwn
			if e.revokePending {
				e.revokePending = false
				e.state = types.StateReleasing
			}
			c.log.Trace("cached lock taken", "lock", lid)
			metrics.ClientAcquireTotal.WithLabelValues("cached").Inc()
			metrics.ClientAcquireDuration.Observe(time.Since(start).Seconds())
			return nil

		case types.StateNone:
			granted, err := c.acquireFromServer(ctx, lid, e)
			if err != nil {
				return err
			}
			if granted {
				metrics.ClientAcquireTotal.WithLabelValues("server").Inc()
				metrics.ClientAcquireDuration.Observe(time.Since(start).Seconds())
				return nil
			}
			if e.state == types.StateNone {
				//a retry overtook the RETRY reply, ask again right away
				continue
			}
		}

		//OWN, ACQUIRING or RELEASING: wait to be woken
		if err := c.wait(ctx, e); err != nil {
			return err
		}
	}
}

// sends one acquire for lid and applies the reply. Reports whether the lock
// was granted. On RETRY the entry stays ACQUIRING until a retry callback.
// must be called with c.mu held and e in NONE, returns with c.mu held
func (c *Cache) acquireFromServer(ctx context.Context, lid types.LockID, e *entry) (bool, error) {
	e.state = types.StateAcquiring
	e.inFlight = true
	c.mu.Unlock()

	st, err := c.callServer(ctx, "acquire", func(ctx context.Context) (types.Status, error) {
		return c.server.Acquire(ctx, lid, c.id)
	})

	c.mu.Lock()
	e.inFlight = false

	if err != nil {
		c.log.Warn("acquire failed", "lock", lid, "error", err)
		if !c.reclaim(ctx, lid, e) {
			e.state = types.StateNone
			e.retried = false
			e.revokePending = false
			e.broadcast()
		}
		return false, fmt.Errorf("%w: acquire lock %d: %v", types.ErrTransport, lid, err)
	}

	switch st {
	case types.StatusOK:
		e.retried = false
		if e.revokePending {
			//revoked before the grant arrived, give it back after this use
			e.revokePending = false
			e.state = types.StateReleasing
			c.log.Debug("granted with revoke pending", "lock", lid)
		} else {
			e.state = types.StateOwn
			c.log.Debug("granted", "lock", lid)
		}
		return true, nil

	case types.StatusRetry:
		if e.retried {
			e.retried = false
			e.state = types.StateNone
			e.broadcast()
		}
		return false, nil

	default:
		c.log.Error("unexpected acquire status", "lock", lid, "status", st)
		e.state = types.StateNone
		e.broadcast()
		return false, fmt.Errorf("%w: acquire lock %d answered %s", types.ErrProtocolViolation, lid, st)
	}
}

// settles an acquire whose outcome is unknown: the server may have granted
// before the reply was lost. Asking again is safe since the server re-grants
// to its current holder. A lock found granted is kept cached as FREE, or
// returned at once if a revoke already came for it. Reports whether e was
// settled that way; otherwise the caller resets it.
// must be called with c.mu held and e in ACQUIRING, returns with c.mu held
func (c *Cache) reclaim(ctx context.Context, lid types.LockID, e *entry) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.returnTimeout())
	defer cancel()

	e.inFlight = true
	c.mu.Unlock()

	st, err := c.callServer(ctx, "acquire", func(ctx context.Context) (types.Status, error) {
		return c.server.Acquire(ctx, lid, c.id)
	})

	c.mu.Lock()
	e.inFlight = false

	if err != nil || st != types.StatusOK {
		c.log.Debug("no grant to reclaim", "lock", lid, "status", st, "error", err)
		return false
	}

	e.retried = false
	if !e.revokePending {
		e.state = types.StateFree
		e.broadcast()
		c.log.Debug("reclaimed grant with lost reply", "lock", lid)
		return true
	}

	e.revokePending = false
	e.state = types.StateReleasing
	if err := c.giveBack(ctx, lid, e); err != nil {
		//the revoke was already answered, so the next local use gives it back
		e.state = types.StateFree
		e.revokePending = true
		e.broadcast()
	}
	return true
}

// blocks until e is broadcast or ctx is done
// must be called with c.mu held, returns with it held
func (c *Cache) wait(ctx context.Context, e *entry) error {
	ch := e.wake
	e.waiters++
	c.mu.Unlock()

	var err error
	select {
	case <-ch:
	case <-ctx.Done():
		err = ctx.Err()
	}

	c.mu.Lock()
	e.waiters--
	return err
}

// Release gives up the calling goroutine's hold on lid. The lock stays cached
// for a local waiter if there is one, otherwise it goes back to the server.
func (c *Cache) Release(ctx context.Context, lid types.LockID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.locks[lid]
	if !exists {
		c.log.Warn("release of unknown lock", "lock", lid)
		return fmt.Errorf("%w: release of unknown lock %d", types.ErrProtocolViolation, lid)
	}

	switch e.state {
	case types.StateOwn:
		if e.waiters > 0 {
			e.state = types.StateFree
			e.broadcast()
			c.log.Trace("lock handed to local waiter", "lock", lid)
			return nil
		}
		e.state = types.StateReleasing
		return c.giveBack(ctx, lid, e)

	case types.StateReleasing:
		return c.giveBack(ctx, lid, e)

	default:
		c.log.Warn("release in unexpected state", "lock", lid, "state", e.state)
		return fmt.Errorf("%w: release of lock %d in state %s", types.ErrProtocolViolation, lid, e.state)
	}
}

// returns lid to the server. On failure the entry stays RELEASING.
// must be called with c.mu held and e in RELEASING, returns with c.mu held
func (c *Cache) giveBack(ctx context.Context, lid types.LockID, e *entry) error {
	if e.inFlight {
		return fmt.Errorf("%w: lock %d is already being returned", types.ErrProtocolViolation, lid)
	}
	e.inFlight = true
	c.mu.Unlock()

	var st types.Status
	err := c.runReleaseHook(ctx, lid)
	if err == nil {
		st, err = c.callServer(ctx, "release", func(ctx context.Context) (types.Status, error) {
			return c.server.Release(ctx, lid, c.id)
		})
	}

	c.mu.Lock()
	e.inFlight = false

	if err != nil {
		c.log.Warn("returning lock failed", "lock", lid, "error", err)
		return fmt.Errorf("%w: release lock %d: %v", types.ErrTransport, lid, err)
	}
	if st != types.StatusOK {
		c.log.Warn("server did not know returned lock", "lock", lid, "status", st)
	}

	e.state = types.StateNone
	e.revokePending = false
	e.broadcast()
	c.log.Debug("returned to server", "lock", lid)
	return nil
}

func (c *Cache) runReleaseHook(ctx context.Context, lid types.LockID) error {
	if c.onRelease == nil {
		return nil
	}
	if err := c.onRelease(ctx, lid); err != nil {
		return fmt.Errorf("release hook: %w", err)
	}
	return nil
}

// Revoke answers the server's request to give lid back. An idle lock is
// returned before Revoke answers; a lock in use is returned when its holder
// releases it.
func (c *Cache) Revoke(ctx context.Context, lid types.LockID) types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.locks[lid]
	state := types.StateNone
	if exists {
		state = e.state
	}
	metrics.ClientCallbackTotal.WithLabelValues("revoke", state.String()).Inc()

	switch state {
	case types.StateFree:
		e.state = types.StateReleasing
		//the caller's deadline belongs to the server's callback, not to this return
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.returnTimeout())
		defer cancel()
		if err := c.giveBack(ctx, lid, e); err != nil {
			//keep it cached, the server re-sends the revoke on the next conflicting acquire
			e.state = types.StateFree
			e.broadcast()
			return types.StatusIOErr
		}
		return types.StatusOK

	case types.StateOwn:
		e.state = types.StateReleasing
		c.log.Debug("revoke deferred until release", "lock", lid)
		return types.StatusOK

	case types.StateAcquiring:
		e.revokePending = true
		c.log.Debug("revoke pending on acquire", "lock", lid)
		return types.StatusOK

	case types.StateReleasing:
		return types.StatusOK

	default:
		c.log.Warn("revoke for lock not held", "lock", lid)
		return types.StatusIOErr
	}
}

// Retry answers the server's notice that lid may now be free. Goroutines
// waiting on a refused acquire ask the server again.
//
// A retry nobody here will act on is declined with StatusNoEnt so the server
// hands it to another waiter: there is no pending acquire, or every goroutine
// that wanted the lock gave up waiting.
func (c *Cache) Retry(ctx context.Context, lid types.LockID) types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.locks[lid]
	state := types.StateNone
	if exists {
		state = e.state
	}
	metrics.ClientCallbackTotal.WithLabelValues("retry", state.String()).Inc()

	switch {
	case state == types.StateNone:
		c.log.Debug("retry declined, no acquire pending", "lock", lid)
		return types.StatusNoEnt

	case state != types.StateAcquiring:
		c.log.Debug("stale retry ignored", "lock", lid, "state", state)
		return types.StatusOK

	case e.inFlight:
		e.retried = true
		return types.StatusOK

	case e.waiters == 0:
		e.state = types.StateNone
		c.log.Debug("retry declined, acquire abandoned", "lock", lid)
		return types.StatusNoEnt
	}

	e.state = types.StateNone
	e.broadcast()
	return types.StatusOK
}

// State reports the cached state of lid.
func (c *Cache) State(lid types.LockID) types.CacheState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.locks[lid]; exists {
		return e.state
	}
	return types.StateNone
}

func (c *Cache) entry(lid types.LockID) *entry {
	e, exists := c.locks[lid]
	if !exists {
		e = &entry{
			state: types.StateNone,
			wake:  make(chan struct{}),
		}
		c.locks[lid] = e
	}
	return e
}

func (c *Cache) callServer(ctx context.Context, method string, fn func(context.Context) (types.Status, error)) (types.Status, error) {
	if c.rpcTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.rpcTimeout)
		defer cancel()
	}

	st, err := fn(ctx)
	if err != nil {
		metrics.ClientRPCTotal.WithLabelValues(method, "error").Inc()
		return st, err
	}
	metrics.ClientRPCTotal.WithLabelValues(method, st.String()).Inc()
	return st, nil
}

const defaultReturnTimeout = 5 * time.Second

func (c *Cache) returnTimeout() time.Duration {
	if c.rpcTimeout > 0 {
		return c.rpcTimeout
	}
	return defaultReturnTimeout
}
