package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pixperk/lockcache/pkg/client"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/types"
	"golang.org/x/sync/errgroup"
)

var errViolation = errors.New("mutual exclusion violated")

// hammers a lock server from several clients and checks that no lock is
// ever held twice at once
func main() {
	var (
		serverAddr = flag.String("server", "127.0.0.1:9000", "Lock server gRPC address")
		numClients = flag.Int("clients", 3, "Number of lock clients")
		goroutines = flag.Int("goroutines", 4, "Goroutines per client")
		numLocks   = flag.Int("locks", 3, "Number of distinct locks")
		iterations = flag.Int("iterations", 200, "Acquire/release rounds per goroutine")
		holdFor    = flag.Duration("hold", 200*time.Microsecond, "Upper bound on time spent holding a lock")
		baseLock   = flag.Uint64("base-lock", 0, "First lock id used")
		timeout    = flag.Duration("timeout", 2*time.Minute, "Overall deadline")
		logLevel   = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	)
	flag.Parse()

	logger := logging.New(logging.Options{Name: "lockcache-tester", Level: *logLevel})

	t := &tester{
		serverAddr: *serverAddr,
		clients:    *numClients,
		goroutines: *goroutines,
		locks:      *numLocks,
		iterations: *iterations,
		hold:       *holdFor,
		base:       types.LockID(*baseLock),
		log:        logger.With("run", uuid.NewString()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := t.run(ctx); err != nil {
		logger.Error("test failed", "error", err)
		os.Exit(1)
	}
}

type tester struct {
	serverAddr string
	clients    int
	goroutines int
	locks      int
	iterations int
	hold       time.Duration
	base       types.LockID

	log hclog.Logger

	holders []atomic.Int32
	rounds  atomic.Int64
}

func (t *tester) run(ctx context.Context) error {
	if t.clients <= 0 || t.goroutines <= 0 || t.locks <= 0 {
		return errors.New("clients, goroutines and locks must be positive")
	}
	t.holders = make([]atomic.Int32, t.locks)

	clients := make([]*client.Client, 0, t.clients)
	defer func() {
		for _, c := range clients {
			c.Stop()
		}
	}()

	for i := 0; i < t.clients; i++ {
		c, err := client.NewClient(client.Config{
			ServerAddr: t.serverAddr,
			Logger:     t.log.Named(fmt.Sprintf("client-%d", i)),
		})
		if err != nil {
			return fmt.Errorf("client %d: %w", i, err)
		}
		clients = append(clients, c)

		if err := c.Start(); err != nil {
			return fmt.Errorf("client %d: %w", i, err)
		}
	}

	t.log.Info("starting",
		"server", t.serverAddr,
		"clients", t.clients,
		"goroutines", t.goroutines,
		"locks", t.locks,
		"iterations", t.iterations,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range clients {
		for j := 0; j < t.goroutines; j++ {
			seed := int64(i*t.goroutines + j)
			g.Go(func() error {
				return t.worker(ctx, c, rand.New(rand.NewSource(seed)))
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	t.log.Info("passed",
		"rounds", t.rounds.Load(),
		"elapsed", elapsed,
		"rounds_per_sec", fmt.Sprintf("%.0f", float64(t.rounds.Load())/elapsed.Seconds()),
	)

	for i := 0; i < t.locks; i++ {
		lid := t.base + types.LockID(i)
		count, err := clients[0].Stat(context.Background(), lid)
		if err != nil {
			t.log.Warn("stat failed", "lock", lid, "error", err)
			continue
		}
		t.log.Info("lock stats", "lock", lid, "grants", count)
	}

	return nil
}

func (t *tester) worker(ctx context.Context, c *client.Client, rnd *rand.Rand) error {
	for i := 0; i < t.iterations; i++ {
		slot := rnd.Intn(t.locks)
		lid := t.base + types.LockID(slot)

		lock, err := c.Acquire(ctx, lid)
		if err != nil {
			return fmt.Errorf("%s: %w", c.ID(), err)
		}

		if n := t.holders[slot].Add(1); n != 1 {
			t.log.Error("lock held twice", "lock", lid, "holders", n, "client", c.ID())
			return fmt.Errorf("%w: lock %d has %d holders", errViolation, lid, n)
		}
		if t.hold > 0 {
			time.Sleep(time.Duration(rnd.Int63n(int64(t.hold))))
		}
		t.holders[slot].Add(-1)

		if err := lock.Release(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.ID(), err)
		}
		t.rounds.Add(1)
	}
	return nil
}
