package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/vesting"
)

func (n *Node) StartVesting(holder common.Address, amount *big.Int) (*vesting.Schedule, error) {
	var out *vesting.Schedule
	err := n.execute(vesting.ModuleName, "start", holder, func(tx *txContext) error {
		var err error
		out, err = tx.vesting.StartVesting(holder, amount)
		return err
	})
	return out, err
}

func (n *Node) ClaimVestedTokens(holder common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.execute(vesting.ModuleName, "claim", holder, func(tx *txContext) error {
		var err error
		out, err = tx.vesting.ClaimVestedTokens(holder)
		return err
	})
	return out, err
}

func (n *Node) EarlyWithdraw(holder common.Address) (*vesting.EarlyWithdrawal, error) {
	var out *vesting.EarlyWithdrawal
	err := n.execute(vesting.ModuleName, "early_withdraw", holder, func(tx *txContext) error {
		var err error
		out, err = tx.vesting.EarlyWithdraw(holder)
		return err
	})
	if err == nil {
		n.metrics.AddPenalty(out.Penalty)
	}
	return out, err
}

func (n *Node) CancelVesting(holder common.Address) (*vesting.Cancellation, error) {
	var out *vesting.Cancellation
	err := n.execute(vesting.ModuleName, "cancel", holder, func(tx *txContext) error {
		var err error
		out, err = tx.vesting.CancelVesting(holder)
		return err
	})
	return out, err
}

// Lock commits amount of the holder's esNUT for duration seconds.
func (n *Node) Lock(holder common.Address, duration uint64, amount *big.Int) (*vesting.Lock, error) {
	var out *vesting.Lock
	err := n.execute(vesting.ModuleName, "lock", holder, func(tx *txContext) error {
		var err error
		out, err = tx.vesting.Lock(holder, duration, amount)
		return err
	})
	return out, err
}

func (n *Node) OverrideLockEndTime(operator, account common.Address, timestamp uint64, amount *big.Int) (*vesting.Lock, error) {
	var out *vesting.Lock
	err := n.execute(vesting.ModuleName, "override_lock", operator, func(tx *txContext) error {
		var err error
		out, err = tx.vesting.OverrideLockEndTime(operator, account, timestamp, amount)
		return err
	})
	return out, err
}

func (n *Node) SetFeeCollector(operator, collector common.Address) error {
	return n.execute(vesting.ModuleName, "set_fee_collector", operator, func(tx *txContext) error {
		return tx.vesting.SetFeeCollector(operator, collector)
	})
}

// RescueVesting moves a non-esNUT token out of the linear vesting custody.
func (n *Node) RescueVesting(operator common.Address, token string, to common.Address, amount *big.Int) error {
	return n.execute(vesting.ModuleName, "rescue", operator, func(tx *txContext) error {
		return tx.vesting.Rescue(operator, token, to, amount)
	})
}

func (n *Node) VestingSchedule(holder common.Address) (*vesting.Schedule, error) {
	var out *vesting.Schedule
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.vesting.VestingSchedule(holder)
		return err
	})
	return out, err
}

// LockSchedule returns the holder's lock, or nil when none was ever set.
func (n *Node) LockSchedule(holder common.Address) (*vesting.Lock, error) {
	var out *vesting.Lock
	err := n.view(func(tx *txContext) error {
		lock, ok, err := tx.vesting.LockSchedule(holder)
		if ok {
			out = lock
		}
		return err
	})
	return out, err
}

func (n *Node) Releasable(holder common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.vesting.Releasable(holder)
		return err
	})
	return out, err
}

func (n *Node) FeeCollector() (common.Address, error) {
	var out common.Address
	err := n.view(func(tx *txContext) error {
		addr, ok, err := tx.vesting.FeeCollector()
		if err != nil {
			return err
		}
		if !ok {
			return vesting.ErrFeeCollectorUnset
		}
		out = addr
		return nil
	})
	return out, err
}
