package server

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lendrewards/services/rewards/engine"
)

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return status.Errorf(codes.NotFound, "resource not found")
	case errors.Is(err, engine.ErrPaused):
		return status.Errorf(codes.Unavailable, "operation paused")
	case errors.Is(err, engine.ErrUnauthorized):
		return status.Errorf(codes.PermissionDenied, "unauthorized")
	case errors.Is(err, engine.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrInsufficientFunds):
		return status.Errorf(codes.ResourceExhausted, "insufficient reward token balance")
	case errors.Is(err, engine.ErrInsufficientBalance):
		return status.Errorf(codes.FailedPrecondition, "insufficient balance")
	case errors.Is(err, engine.ErrConflict):
		return status.Errorf(codes.FailedPrecondition, "conflicting state")
	case errors.Is(err, engine.ErrInternal):
		return status.Errorf(codes.Internal, "internal error")
	default:
		return status.Errorf(codes.Internal, "internal error")
	}
}

// batchError renders a per-account failure for ClaimBatch responses.
func batchError(err error) string {
	if err == nil {
		return ""
	}
	return status.Convert(toStatus(err)).Message()
}
