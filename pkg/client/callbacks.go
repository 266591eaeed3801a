package client

import (
	"context"

	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/cache"
	"github.com/pixperk/lockcache/pkg/types"
)

// serves the server's revoke and retry calls from the cache
type callbackService struct {
	pb.UnimplementedLockCallbackServer
	cache *cache.Cache
}

func (s *callbackService) Revoke(ctx context.Context, req *pb.RevokeRequest) (*pb.CallbackResponse, error) {
	st := s.cache.Revoke(ctx, types.LockID(req.LockId))
	return &pb.CallbackResponse{Status: pb.StatusFrom(st)}, nil
}

func (s *callbackService) Retry(ctx context.Context, req *pb.RetryRequest) (*pb.CallbackResponse, error) {
	st := s.cache.Retry(ctx, types.LockID(req.LockId))
	return &pb.CallbackResponse{Status: pb.StatusFrom(st)}, nil
}
