package client

import (
	"context"

	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/types"
)

// the lock server as seen by the cache
type remoteServer struct {
	client pb.LockServiceClient
}

func (r remoteServer) Acquire(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error) {
	resp, err := r.client.Acquire(ctx, &pb.AcquireRequest{
		LockId:   uint64(lid),
		ClientId: string(cid),
	})
	if err != nil {
		return types.StatusIOErr, err
	}
	return resp.GetStatus().Types(), nil
}

func (r remoteServer) Release(ctx context.Context, lid types.LockID, cid types.ClientID) (types.Status, error) {
	resp, err := r.client.Release(ctx, &pb.ReleaseRequest{
		LockId:   uint64(lid),
		ClientId: string(cid),
	})
	if err != nil {
		return types.StatusIOErr, err
	}
	return resp.GetStatus().Types(), nil
}
