package token

import "errors"

var (
	ErrUnknownToken          = errors.New("token: unknown token")
	ErrTokenExists           = errors.New("token: token already registered")
	ErrInvalidToken          = errors.New("token: invalid token definition")
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)
