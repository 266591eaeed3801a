package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/cache"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Config struct {
	ServerAddr string // lock server gRPC address

	// callback listener; the default binds a free loopback port
	ListenAddr string
	// id sent to the server, it must reach the listener
	// defaults to the listener's address
	AdvertiseAddr string

	RPCTimeout  time.Duration
	ReleaseHook cache.ReleaseFunc
	Logger      hclog.Logger
	DialOptions []grpc.DialOption
}

const (
	DefaultListenAddr = "127.0.0.1:0"
	DefaultRPCTimeout = 10 * time.Second
)

// a lock client process: one cache shared by all goroutines, a connection to
// the lock server and the callback endpoint the server revokes through
type Client struct {
	id     types.ClientID
	conn   *grpc.ClientConn
	client pb.LockServiceClient
	cache  *cache.Cache

	listener  net.Listener
	callbacks *grpc.Server

	log hclog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ServerAddr == "" {
		return nil, errors.New("server address required")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = DefaultRPCTimeout
	}

	log := logging.OrNull(cfg.Logger)

	dialOpts := cfg.DialOptions
	if len(dialOpts) == 0 {
		dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(cfg.ServerAddr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to listen for callbacks on %s: %w", cfg.ListenAddr, err)
	}

	id := types.ClientID(cfg.AdvertiseAddr)
	if id == "" {
		id = types.ClientID(listener.Addr().String())
	}

	c := &Client{
		id:       id,
		conn:     conn,
		client:   pb.NewLockServiceClient(conn),
		listener: listener,
		log:      log.Named("client").With("client", id),
	}

	c.cache = cache.New(id, remoteServer{client: c.client},
		cache.WithLogger(log),
		cache.WithRPCTimeout(cfg.RPCTimeout),
		cache.WithReleaseHook(cfg.ReleaseHook),
	)

	c.callbacks = grpc.NewServer()
	pb.RegisterLockCallbackServer(c.callbacks, &callbackService{cache: c.cache})

	return c, nil
}

// starts answering revoke and retry callbacks
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return types.ErrClosed
	}
	if c.started {
		return nil
	}
	c.started = true

	go func() {
		c.log.Debug("serving callbacks", "addr", c.listener.Addr().String())
		if err := c.callbacks.Serve(c.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			c.log.Error("callback server failed", "error", err)
		}
	}()

	return nil
}

// the id the server knows this client by
func (c *Client) ID() types.ClientID {
	return c.id
}

// blocks until lid is held by the caller or ctx is done
func (c *Client) Acquire(ctx context.Context, lid types.LockID) (*Lock, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	if err := c.cache.Acquire(ctx, lid); err != nil {
		return nil, fmt.Errorf("acquire lock %d: %w", lid, err)
	}

	return &Lock{
		client: c,
		id:     lid,
	}, nil
}

func (c *Client) Release(ctx context.Context, lid types.LockID) error {
	if err := c.cache.Release(ctx, lid); err != nil {
		return fmt.Errorf("release lock %d: %w", lid, err)
	}
	return nil
}

// number of times the server has granted lid
func (c *Client) Stat(ctx context.Context, lid types.LockID) (uint64, error) {
	resp, err := c.client.Stat(ctx, &pb.StatRequest{LockId: uint64(lid)})
	if err != nil {
		return 0, fmt.Errorf("%w: stat lock %d: %v", types.ErrTransport, lid, err)
	}
	if resp.Status == pb.Status_NOENT {
		return 0, fmt.Errorf("%w: %d", types.ErrNotFound, lid)
	}
	return resp.Count, nil
}

func (c *Client) Status(ctx context.Context) (*pb.GetStatusResponse, error) {
	return c.client.GetStatus(ctx, &pb.GetStatusRequest{})
}

// cached state of lid in this process
func (c *Client) State(lid types.LockID) types.CacheState {
	return c.cache.State(lid)
}

// stops serving callbacks and closes the server connection. Locks still
// cached here stay held at the server.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	started := c.started
	c.mu.Unlock()

	if started {
		c.callbacks.GracefulStop()
	} else {
		c.listener.Close()
	}

	return c.conn.Close()
}

func (c *Client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return types.ErrClosed
	}
	return nil
}
