package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// server acquire outcomes
	// labels: status (OK/RETRY)
	// a high RETRY share means locks are contended across clients
	ServerAcquireTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_server_acquire_total",
			Help: "acquire requests handled by the lock server",
		},
		[]string{"status"},
	)

	// server release outcomes
	// labels: status (OK/NOENT)
	ServerReleaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_server_release_total",
			Help: "release requests handled by the lock server",
		},
		[]string{"status"},
	)

	// outbound callbacks from server to clients
	// labels: kind (revoke/retry), result (ok/failed/declined)
	// failed revokes self-heal on the next acquire, failed retries drop the waiter
	CallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_server_callback_total",
			Help: "revoke and retry callbacks sent to clients",
		},
		[]string{"kind", "result"},
	)

	// locks currently held by some client
	LocksHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockcache_server_locks_held",
			Help: "current number of locks held by a client",
		},
	)

	// how long a client kept a lock before returning it
	// long tails here are clients that cache locks nobody else wants
	HoldDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lockcache_server_hold_duration_seconds",
			Help:    "time between grant and release of a lock",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		},
	)

	// client acquisitions by path
	// labels: path (cached = FREE->OWN handoff, server = round trip)
	ClientAcquireTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_client_acquire_total",
			Help: "successful local acquisitions",
		},
		[]string{"path"},
	)

	// time a local caller spent in Acquire, including waits for retry
	ClientAcquireDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lockcache_client_acquire_duration_seconds",
			Help:    "time taken by a local acquire",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
		},
	)

	// client RPCs to the server
	// labels: method (acquire/release), result (OK/RETRY/NOENT/error)
	ClientRPCTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_client_rpc_total",
			Help: "RPCs issued by the client cache to the lock server",
		},
		[]string{"method", "result"},
	)

	// inbound callbacks answered by the client cache
	// labels: kind (revoke/retry), state (cache state when it arrived)
	ClientCallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_client_callback_total",
			Help: "revoke and retry callbacks received by the client cache",
		},
		[]string{"kind", "state"},
	)

	// service uptime - always 1 when running
	Up = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockcache_up",
			Help: "whether the service is up (always 1 when running)",
		},
	)
)

func init() {
	Up.Set(1)
}
