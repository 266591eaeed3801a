package server

import (
	"errors"

	"github.com/pixperk/lockcache/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// converts domain errors to gRPC status errors
func toGRPCError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, types.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, types.ErrInvalidClientID):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, types.ErrNotHolder):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, types.ErrProtocolViolation):
		return status.Error(codes.FailedPrecondition, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
