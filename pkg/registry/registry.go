package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	tm "time"

	"github.com/hashicorp/go-hclog"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/metrics"
	"github.com/pixperk/lockcache/pkg/time"
	"github.com/pixperk/lockcache/pkg/types"
)

// Notifier delivers server-initiated callbacks to clients.
// a non-nil error means the client did not take the callback; an error
// wrapping types.ErrCallbackRejected means it answered and declined
type Notifier interface {
	Revoke(ctx context.Context, to types.ClientID, lid types.LockID) error
	Retry(ctx context.Context, to types.ClientID, lid types.LockID) error
}

type Config struct {
	// bound on every outbound revoke/retry call
	CallbackTimeout tm.Duration

	// reject releases from clients other than the current holder
	// off by default: releases are trusted
	VerifyHolder bool

	Logger hclog.Logger
}

const DefaultCallbackTimeout = 5 * tm.Second

// the server side lock table
// critical :
// - holder is set iff the lock is not free
// - at most one revoke is outstanding per lock
// - the mutex is never held across a callback
type Registry struct {
	mu sync.Mutex

	locks    map[types.LockID]*record
	notifier Notifier

	acquisitions uint64 // grants across all locks

	cfg   Config
	log   hclog.Logger
	clock *time.Clock
}

type record struct {
	free              bool
	holder            types.ClientID
	waiting           map[types.ClientID]struct{}
	revokeOutstanding bool

	acquisitions uint64
	grantedAt    tm.Duration
}

func New(notifier Notifier, cfg Config) *Registry {
	if cfg.CallbackTimeout <= 0 {
		cfg.CallbackTimeout = DefaultCallbackTimeout
	}

	return &Registry{
		locks:    make(map[types.LockID]*record),
		notifier: notifier,
		cfg:      cfg,
		log:      logging.OrNull(cfg.Logger).Named("registry"),
		clock:    time.NewClock(),
	}
}

// grants lid to cid if it is free, otherwise queues cid and asks the holder
// to give the lock back. A queued client gets StatusRetry and must wait for a
// retry callback before asking again.
func (r *Registry) Acquire(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error) {
	if cid == "" {
		return types.StatusIOErr, types.ErrInvalidClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.record(lid)

	if rec.free {
		r.grant(rec, cid)
		r.log.Debug("granted", "lock", lid, "client", cid)
		metrics.ServerAcquireTotal.WithLabelValues(types.StatusOK.String()).Inc()
		return types.StatusOK, nil
	}

	//the grant reached the holder's side but its reply did not, hand it out again
	if rec.holder == cid {
		delete(rec.waiting, cid)
		r.log.Debug("re-granted to current holder", "lock", lid, "client", cid)
		metrics.ServerAcquireTotal.WithLabelValues(types.StatusOK.String()).Inc()
		return types.StatusOK, nil
	}

	rec.waiting[cid] = struct{}{}

	if !rec.revokeOutstanding {
		rec.revokeOutstanding = true
		holder := rec.holder

		err := r.callout(ctx, func(ctx context.Context) error {
			return r.notifier.Revoke(ctx, holder, lid)
		})
		if err != nil {
			r.log.Warn("revoke failed", "lock", lid, "holder", holder, "error", err)
			metrics.CallbackTotal.WithLabelValues("revoke", "failed").Inc()
			//let the next requester send it again, unless the lock changed hands meanwhile
			if !rec.free && rec.holder == holder {
				rec.revokeOutstanding = false
			}
		} else {
			r.log.Debug("revoke sent", "lock", lid, "holder", holder)
			metrics.CallbackTotal.WithLabelValues("revoke", "ok").Inc()
		}
	}

	metrics.ServerAcquireTotal.WithLabelValues(types.StatusRetry.String()).Inc()
	return types.StatusRetry, nil
}

// frees lid and tells one waiter to retry. The lock is not reserved for that
// waiter: any client may take it first.
func (r *Registry) Release(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.locks[lid]
	if !exists {
		r.log.Warn("release of unknown lock", "lock", lid, "client", cid)
		metrics.ServerReleaseTotal.WithLabelValues(types.StatusNoEnt.String()).Inc()
		return types.StatusNoEnt, nil
	}

	if r.cfg.VerifyHolder && (rec.free || rec.holder != cid) {
		return types.StatusIOErr, fmt.Errorf("%w: lock %d held by %q, released by %q",
			types.ErrNotHolder, lid, rec.holder, cid)
	}

	if !rec.free {
		metrics.HoldDuration.Observe(r.clock.Since(rec.grantedAt).Seconds())
		metrics.LocksHeld.Dec()
	}

	rec.free = true
	rec.holder = ""
	rec.revokeOutstanding = false
	metrics.ServerReleaseTotal.WithLabelValues(types.StatusOK.String()).Inc()

	r.retryWaiter(ctx, lid, rec)

	return types.StatusOK, nil
}

// sends retry to one waiter while the lock stays free. A waiter that declines
// the retry no longer wants the lock and is dropped. One that cannot be
// reached stays queued for the next release, and the next waiter is tried.
// must be called with r.mu held
func (r *Registry) retryWaiter(ctx context.Context, lid types.LockID, rec *record) {
	tried := make(map[types.ClientID]struct{})

	for rec.free {
		next, ok := untried(rec.waiting, tried)
		if !ok {
			return
		}
		tried[next] = struct{}{}

		err := r.callout(ctx, func(ctx context.Context) error {
			return r.notifier.Retry(ctx, next, lid)
		})
		switch {
		case err == nil:
			r.log.Debug("retry sent", "lock", lid, "client", next)
			metrics.CallbackTotal.WithLabelValues("retry", "ok").Inc()
			return

		case errors.Is(err, types.ErrCallbackRejected):
			r.log.Debug("retry declined, dropping waiter", "lock", lid, "client", next)
			metrics.CallbackTotal.WithLabelValues("retry", "declined").Inc()
			delete(rec.waiting, next)

		default:
			r.log.Warn("retry failed", "lock", lid, "client", next, "error", err)
			metrics.CallbackTotal.WithLabelValues("retry", "failed").Inc()
		}
	}
}

// any member of waiting not in tried
func untried(waiting, tried map[types.ClientID]struct{}) (types.ClientID, bool) {
	for cid := range waiting {
		if _, done := tried[cid]; !done {
			return cid, true
		}
	}
	return "", false
}

// returns the number of grants of lid
func (r *Registry) Stat(lid types.LockID) (uint64, types.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.locks[lid]
	if !exists {
		return 0, types.StatusNoEnt
	}
	return rec.acquisitions, types.StatusOK
}

// point-in-time view of one lock
type Snapshot struct {
	ID                types.LockID     `json:"id"`
	Free              bool             `json:"free"`
	Holder            types.ClientID   `json:"holder,omitempty"`
	Waiting           []types.ClientID `json:"waiting"`
	RevokeOutstanding bool             `json:"revoke_outstanding"`
	Acquisitions      uint64           `json:"acquisitions"`
}

// returns a copy of the record for lid
func (r *Registry) Lookup(lid types.LockID) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.locks[lid]
	if !exists {
		return Snapshot{}, false
	}

	waiting := make([]types.ClientID, 0, len(rec.waiting))
	for cid := range rec.waiting {
		waiting = append(waiting, cid)
	}
	sort.Slice(waiting, func(i, j int) bool { return waiting[i] < waiting[j] })

	return Snapshot{
		ID:                lid,
		Free:              rec.free,
		Holder:            rec.holder,
		Waiting:           waiting,
		RevokeOutstanding: rec.revokeOutstanding,
		Acquisitions:      rec.acquisitions,
	}, true
}

// current registry stats
type Stats struct {
	Locks        int    `json:"locks"`
	Held         int    `json:"held"`
	Waiting      int    `json:"waiting"`
	Acquisitions uint64 `json:"acquisitions"`
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Locks:        len(r.locks),
		Acquisitions: r.acquisitions,
	}
	for _, rec := range r.locks {
		if !rec.free {
			s.Held++
		}
		s.Waiting += len(rec.waiting)
	}
	return s
}

// returns the record for lid, creating a free one on first use
func (r *Registry) record(lid types.LockID) *record {
	rec, exists := r.locks[lid]
	if !exists {
		rec = &record{
			free:    true,
			waiting: make(map[types.ClientID]struct{}),
		}
		r.locks[lid] = rec
	}
	return rec
}

func (r *Registry) grant(rec *record, cid types.ClientID) {
	rec.free = false
	rec.holder = cid
	rec.revokeOutstanding = false
	delete(rec.waiting, cid)

	rec.acquisitions++
	r.acquisitions++
	rec.grantedAt = r.clock.Elapsed()
	metrics.LocksHeld.Inc()
}

// runs fn with r.mu released. The callee may need to call back into the
// registry (a revoked client releasing right away) before it answers.
// must be called with r.mu held, returns with it held
func (r *Registry) callout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.CallbackTimeout)
	defer cancel()

	r.mu.Unlock()
	defer r.mu.Lock()

	return fn(ctx)
}
