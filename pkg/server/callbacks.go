package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// delivers revoke and retry callbacks to clients over gRPC
// one connection per client id, dialed lazily and kept for reuse
type CallbackPool struct {
	mu       sync.Mutex
	conns    map[types.ClientID]*grpc.ClientConn
	dialOpts []grpc.DialOption
	log      hclog.Logger
}

func NewCallbackPool(logger hclog.Logger, opts ...grpc.DialOption) *CallbackPool {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	return &CallbackPool{
		conns:    make(map[types.ClientID]*grpc.ClientConn),
		dialOpts: opts,
		log:      logging.OrNull(logger).Named("callbacks"),
	}
}

func (p *CallbackPool) Revoke(ctx context.Context, to types.ClientID, lid types.LockID) error {
	cl, err := p.client(to)
	if err != nil {
		return err
	}

	resp, err := cl.Revoke(ctx, &pb.RevokeRequest{LockId: uint64(lid)})
	if err != nil {
		return fmt.Errorf("%w: revoke lock %d at %s: %v", types.ErrTransport, lid, to, err)
	}
	return checkCallback("revoke", to, lid, resp)
}

func (p *CallbackPool) Retry(ctx context.Context, to types.ClientID, lid types.LockID) error {
	cl, err := p.client(to)
	if err != nil {
		return err
	}

	resp, err := cl.Retry(ctx, &pb.RetryRequest{LockId: uint64(lid)})
	if err != nil {
		return fmt.Errorf("%w: retry lock %d at %s: %v", types.ErrTransport, lid, to, err)
	}
	return checkCallback("retry", to, lid, resp)
}

func checkCallback(kind string, to types.ClientID, lid types.LockID, resp *pb.CallbackResponse) error {
	if st := resp.GetStatus().Types(); st != types.StatusOK {
		return fmt.Errorf("%w: %s lock %d at %s answered %s", types.ErrCallbackRejected, kind, lid, to, st)
	}
	return nil
}

func (p *CallbackPool) client(to types.ClientID) (pb.LockCallbackClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, exists := p.conns[to]
	if !exists {
		var err error
		conn, err = grpc.NewClient(string(to), p.dialOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %v", types.ErrTransport, to, err)
		}
		p.conns[to] = conn
		p.log.Debug("dialed client", "client", to)
	}

	return pb.NewLockCallbackClient(conn), nil
}

// closes every client connection
func (p *CallbackPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for id, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, id)
	}
	return firstErr
}
