package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/schedule"
)

func (n *Node) SetSchedule(operator, account common.Address, tranches []schedule.Tranche) (*schedule.Schedule, error) {
	var out *schedule.Schedule
	err := n.execute(schedule.ModuleName, "set", operator, func(tx *txContext) error {
		var err error
		out, err = tx.schedule.SetSchedule(operator, account, tranches)
		return err
	})
	return out, err
}

// VestTokens releases every due tranche of the account. Any caller may
// trigger it.
func (n *Node) VestTokens(caller, account common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.execute(schedule.ModuleName, "vest", caller, func(tx *txContext) error {
		var err error
		out, err = tx.schedule.VestTokens(account)
		return err
	})
	return out, err
}

func (n *Node) CancelSchedule(operator, account common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.execute(schedule.ModuleName, "cancel", operator, func(tx *txContext) error {
		var err error
		out, err = tx.schedule.CancelSchedule(operator, account)
		return err
	})
	return out, err
}

func (n *Node) RescueSchedule(operator common.Address, token string, to common.Address, amount *big.Int) error {
	return n.execute(schedule.ModuleName, "rescue", operator, func(tx *txContext) error {
		return tx.schedule.Rescue(operator, token, to, amount)
	})
}

func (n *Node) MilestoneSchedule(account common.Address) (*schedule.Schedule, error) {
	var out *schedule.Schedule
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.schedule.Schedule(account)
		return err
	})
	return out, err
}

func (n *Node) Tranche(account common.Address, i int) (schedule.Tranche, error) {
	var out schedule.Tranche
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.schedule.Tranche(account, i)
		return err
	})
	return out, err
}
