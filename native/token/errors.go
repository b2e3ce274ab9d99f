package token

import "errors"

var (
	ErrUnknownToken        = errors.New("token: unknown token")
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrPaused              = errors.New("token: transfers paused")
	ErrCapExceeded         = errors.New("token: cap exceeded")
	ErrTransferLocked      = errors.New("token: esNUT transfers are locked")
	ErrZeroAddress         = errors.New("token: zero address")
)
