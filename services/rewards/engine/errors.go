package engine

import "errors"

var (
	ErrNotFound            = errors.New("rewards: not found")
	ErrPaused              = errors.New("rewards: operation paused")
	ErrUnauthorized        = errors.New("rewards: unauthorized")
	ErrInvalidArgument     = errors.New("rewards: invalid argument")
	ErrInsufficientFunds   = errors.New("rewards: insufficient reward token balance")
	ErrConflict            = errors.New("rewards: conflicting state")
	ErrInsufficientBalance = errors.New("rewards: insufficient ledger balance")
	ErrInternal            = errors.New("rewards: internal error")
)
