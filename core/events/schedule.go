package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/types"
)

const (
	TypeScheduleSet       = "schedule.set"
	TypeScheduleVested    = "schedule.vested"
	TypeScheduleCancelled = "schedule.cancelled"
)

type ScheduleSet struct {
	Account  common.Address
	Tranches int
	Total    *big.Int
	Returned *big.Int
	FinalAt  uint64
}

func (ScheduleSet) EventType() string { return TypeScheduleSet }

func (e ScheduleSet) Event() *types.Event {
	evt := types.NewEvent(TypeScheduleSet).
		With("account", formatAddress(e.Account)).
		With("tranches", formatUint(uint64(e.Tranches))).
		With("total", formatAmount(e.Total)).
		With("finalAt", formatUint(e.FinalAt))
	if e.Returned != nil && e.Returned.Sign() > 0 {
		evt.With("returned", e.Returned.String())
	}
	return evt
}

type ScheduleVested struct {
	Account  common.Address
	Amount   *big.Int
	Released int
	Cursor   int
}

func (ScheduleVested) EventType() string { return TypeScheduleVested }

func (e ScheduleVested) Event() *types.Event {
	return types.NewEvent(TypeScheduleVested).
		With("account", formatAddress(e.Account)).
		With("amount", formatAmount(e.Amount)).
		With("released", formatUint(uint64(e.Released))).
		With("cursor", formatUint(uint64(e.Cursor)))
}

type ScheduleCancelled struct {
	Account  common.Address
	Returned *big.Int
}

func (ScheduleCancelled) EventType() string { return TypeScheduleCancelled }

func (e ScheduleCancelled) Event() *types.Event {
	return types.NewEvent(TypeScheduleCancelled).
		With("account", formatAddress(e.Account)).
		With("returned", formatAmount(e.Returned))
}
