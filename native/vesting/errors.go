package vesting

import "errors"

var (
	ErrNilState                 = errors.New("vesting: state not configured")
	ErrNilLedger                = errors.New("vesting: ledger not configured")
	ErrInvalidAmount            = errors.New("vesting: amount must be positive")
	ErrInvalidParams            = errors.New("vesting: invalid parameters")
	ErrZeroAddress              = errors.New("vesting: zero address")
	ErrInsufficientBalance      = errors.New("vesting: insufficient esNUT balance")
	ErrInsufficientLockedAmount = errors.New("vesting: insufficient esNUT locked")
	ErrVestingComplete          = errors.New("vesting: vesting complete, no early withdrawal available")
	ErrNoActiveVesting          = errors.New("vesting: no vesting in progress")
	ErrTimestampNotFuture       = errors.New("vesting: timestamp should be in the future")
	ErrLockIneligible           = errors.New("vesting: account ineligible for locking")
	ErrFeeCollectorUnset        = errors.New("vesting: fee collector not set")
	ErrCannotRescueCustody      = errors.New("vesting: cannot rescue esNUT")
)
