package types

import "errors"

var (
	// Protocol errors
	ErrProtocolViolation = errors.New("protocol violation")
	ErrNotHolder         = errors.New("caller is not the lock holder")
	ErrInvalidClientID   = errors.New("client id required")

	// Lookup errors
	ErrNotFound = errors.New("lock not found")

	// Transport errors
	ErrTransport        = errors.New("transport failure")
	ErrCallbackRejected = errors.New("callback rejected by client")
	ErrClosed           = errors.New("client closed")
)
