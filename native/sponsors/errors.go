package sponsors

import "errors"

var (
	ErrAlreadyRegistered   = errors.New("sponsors: account already registered")
	ErrUnregisteredSponsor = errors.New("sponsors: unregistered sponsor")
	ErrUnauthorizedCaller  = errors.New("sponsors: unauthorized caller")
	ErrInvalidAccount      = errors.New("sponsors: invalid account")
)
