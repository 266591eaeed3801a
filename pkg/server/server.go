package server

import (
	"context"

	"github.com/google/uuid"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/registry"
	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	pb.UnimplementedLockServiceServer
	registry *registry.Registry
	nodeID   uuid.UUID
}

// wraps the lock registry into a gRPC server
func NewServer(reg *registry.Registry, nodeID uuid.UUID) *Server {
	return &Server{
		registry: reg,
		nodeID:   nodeID,
	}
}

func (s *Server) Acquire(ctx context.Context, req *pb.AcquireRequest) (*pb.AcquireResponse, error) {
	if req.ClientId == "" {
		return nil, status.Error(codes.InvalidArgument, "client_id required")
	}

	st, err := s.registry.Acquire(ctx, types.LockID(req.LockId), types.ClientID(req.ClientId))
	if err != nil {
		return nil, toGRPCError(err)
	}

	return &pb.AcquireResponse{Status: pb.StatusFrom(st)}, nil
}

func (s *Server) Release(ctx context.Context, req *pb.ReleaseRequest) (*pb.ReleaseResponse, error) {
	if req.ClientId == "" {
		return nil, status.Error(codes.InvalidArgument, "client_id required")
	}

	st, err := s.registry.Release(ctx, types.LockID(req.LockId), types.ClientID(req.ClientId))
	if err != nil {
		return nil, toGRPCError(err)
	}

	return &pb.ReleaseResponse{Status: pb.StatusFrom(st)}, nil
}

func (s *Server) Stat(ctx context.Context, req *pb.StatRequest) (*pb.StatResponse, error) {
	count, st := s.registry.Stat(types.LockID(req.LockId))
	return &pb.StatResponse{
		Status: pb.StatusFrom(st),
		Count:  count,
	}, nil
}

func (s *Server) GetStatus(ctx context.Context, req *pb.GetStatusRequest) (*pb.GetStatusResponse, error) {
	stats := s.registry.Stats()

	return &pb.GetStatusResponse{
		NodeId: s.nodeID.String(),
		Stats: &pb.Stats{
			Locks:        int32(stats.Locks),
			Held:         int32(stats.Held),
			Waiting:      int32(stats.Waiting),
			Acquisitions: stats.Acquisitions,
		},
	}, nil
}
