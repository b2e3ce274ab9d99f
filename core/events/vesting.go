package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/types"
)

const (
	TypeVestingStarted         = "vesting.started"
	TypeVestingClaimed         = "vesting.claimed"
	TypeVestingEarlyWithdrawn  = "vesting.early_withdrawn"
	TypeVestingCancelled       = "vesting.cancelled"
	TypeVestingLocked          = "vesting.locked"
	TypeVestingLockOverridden  = "vesting.lock_overridden"
	TypeVestingFeeCollectorSet = "vesting.fee_collector_set"
	TypeVestingRescued         = "vesting.rescued"
)

// VestingStarted captures a fresh or rolled-over linear schedule.
type VestingStarted struct {
	Account   common.Address
	Deposit   *big.Int
	Total     *big.Int
	Released  *big.Int
	StartedAt uint64
}

func (VestingStarted) EventType() string { return TypeVestingStarted }

func (e VestingStarted) Event() *types.Event {
	evt := types.NewEvent(TypeVestingStarted).
		With("account", formatAddress(e.Account)).
		With("deposit", formatAmount(e.Deposit)).
		With("total", formatAmount(e.Total)).
		With("startedAt", formatUint(e.StartedAt))
	if e.Released != nil && e.Released.Sign() > 0 {
		evt.With("released", e.Released.String())
	}
	return evt
}

// VestingClaimed captures vested esNUT released as NUT.
type VestingClaimed struct {
	Account common.Address
	Amount  *big.Int
	Claimed *big.Int
	Total   *big.Int
}

func (VestingClaimed) EventType() string { return TypeVestingClaimed }

func (e VestingClaimed) Event() *types.Event {
	return types.NewEvent(TypeVestingClaimed).
		With("account", formatAddress(e.Account)).
		With("amount", formatAmount(e.Amount)).
		With("claimed", formatAmount(e.Claimed)).
		With("total", formatAmount(e.Total))
}

// VestingEarlyWithdrawn captures the split of an early exit.
type VestingEarlyWithdrawn struct {
	Account      common.Address
	Vested       *big.Int
	Refund       *big.Int
	Penalty      *big.Int
	PenaltyRate  *big.Int
	FeeCollector common.Address
}

func (VestingEarlyWithdrawn) EventType() string { return TypeVestingEarlyWithdrawn }

func (e VestingEarlyWithdrawn) Event() *types.Event {
	return types.NewEvent(TypeVestingEarlyWithdrawn).
		With("account", formatAddress(e.Account)).
		With("vested", formatAmount(e.Vested)).
		With("refund", formatAmount(e.Refund)).
		With("penalty", formatAmount(e.Penalty)).
		With("penaltyRate", formatAmount(e.PenaltyRate)).
		With("feeCollector", formatAddress(e.FeeCollector))
}

// VestingCancelled captures a cancellation without penalty.
type VestingCancelled struct {
	Account  common.Address
	Vested   *big.Int
	Returned *big.Int
}

func (VestingCancelled) EventType() string { return TypeVestingCancelled }

func (e VestingCancelled) Event() *types.Event {
	return types.NewEvent(TypeVestingCancelled).
		With("account", formatAddress(e.Account)).
		With("vested", formatAmount(e.Vested)).
		With("returned", formatAmount(e.Returned))
}

// VestingLocked is emitted for holder initiated and admin overridden locks.
type VestingLocked struct {
	Account    common.Address
	Amount     *big.Int
	UnlockAt   uint64
	Overridden bool
}

func (e VestingLocked) EventType() string {
	if e.Overridden {
		return TypeVestingLockOverridden
	}
	return TypeVestingLocked
}

func (e VestingLocked) Event() *types.Event {
	return types.NewEvent(e.EventType()).
		With("account", formatAddress(e.Account)).
		With("amount", formatAmount(e.Amount)).
		With("unlockAt", formatUint(e.UnlockAt))
}

// VestingFeeCollectorSet records a fee collector change.
type VestingFeeCollectorSet struct {
	Previous common.Address
	Current  common.Address
}

func (VestingFeeCollectorSet) EventType() string { return TypeVestingFeeCollectorSet }

func (e VestingFeeCollectorSet) Event() *types.Event {
	return types.NewEvent(TypeVestingFeeCollectorSet).
		With("previous", formatAddress(e.Previous)).
		With("current", formatAddress(e.Current))
}

// Rescued records tokens recovered from a module custody account.
type Rescued struct {
	Module string
	Token  string
	To     common.Address
	Amount *big.Int
}

func (Rescued) EventType() string { return TypeVestingRescued }

func (e Rescued) Event() *types.Event {
	return types.NewEvent(TypeVestingRescued).
		With("module", e.Module).
		With("token", normalizeAsset(e.Token)).
		With("to", formatAddress(e.To)).
		With("amount", formatAmount(e.Amount))
}
