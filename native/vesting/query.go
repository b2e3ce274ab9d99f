package vesting

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VestingSchedule returns the holder's schedule, or an empty schedule.
func (e *Engine) VestingSchedule(holder common.Address) (*Schedule, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	s, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &Schedule{Account: holder, Total: big.NewInt(0), Claimed: big.NewInt(0)}, nil
	}
	return s, nil
}

// LockSchedule returns the holder's lock. The boolean is false when the
// holder has never been locked.
func (e *Engine) LockSchedule(holder common.Address) (*Lock, bool, error) {
	if e.state == nil {
		return nil, false, ErrNilState
	}
	l, err := e.loadLock(holder)
	if err != nil {
		return nil, false, err
	}
	if l == nil {
		return &Lock{Account: holder, Amount: big.NewInt(0)}, false, nil
	}
	return l, true, nil
}

// Releasable previews what ClaimVestedTokens would pay now.
func (e *Engine) Releasable(holder common.Address) (*big.Int, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	s, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	return Releasable(s, e.now(), e.params.Duration), nil
}

// FeeCollector returns the configured penalty recipient.
func (e *Engine) FeeCollector() (common.Address, bool, error) {
	if e.state == nil {
		return common.Address{}, false, ErrNilState
	}
	return e.state.FeeCollector()
}

// MinPenalty returns the penalty floor as a 1e18 fixed point rate.
func (e *Engine) MinPenalty() *big.Int {
	return cloneBigInt(e.params.MinPenalty)
}
