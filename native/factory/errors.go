package factory

import "errors"

var (
	ErrNotOwner          = errors.New("factory: caller is not the owner")
	ErrInvalidOwner      = errors.New("factory: invalid owner address")
	ErrPaused            = errors.New("factory: paused")
	ErrNotInitialized    = errors.New("factory: not initialized")
	ErrInsufficientFunds = errors.New("factory: insufficient funds")
	ErrSequenceNotFound  = errors.New("factory: no lottery at sequence")
)
