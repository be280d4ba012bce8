package lottery

import "errors"

var (
	ErrNotFound           = errors.New("lottery: lottery not found")
	ErrUnauthorizedCaller = errors.New("lottery: unauthorized caller")
	ErrInvalidAmount      = errors.New("lottery: amount must be positive")
	ErrCapacityExceeded   = errors.New("lottery: purchase exceeds remaining boxes")
	ErrNotCompleted       = errors.New("lottery: lottery not completed")
	ErrAlreadyCompleted   = errors.New("lottery: lottery already completed")
	ErrInsufficientFunds  = errors.New("lottery: insufficient funds")
	ErrInvalidConfig      = errors.New("lottery: invalid lottery configuration")
	ErrLotteryExists      = errors.New("lottery: lottery already exists")
)
