package core

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/schedule"
	"nutvest/native/token"
	"nutvest/native/vesting"
)

// AccountView aggregates everything a polling client needs about a holder.
type AccountView struct {
	Address    common.Address
	NUT        *big.Int
	EsNUT      *big.Int
	Vesting    *vesting.Schedule
	Vested     *big.Int
	Releasable *big.Int
	Lock       *vesting.Lock
	LockActive bool
	Schedule   *schedule.Schedule
	Now        uint64
}

// Account reads balances, the linear schedule, the lock and the milestone
// schedule of addr in one consistent snapshot.
func (n *Node) Account(addr common.Address) (*AccountView, error) {
	view := &AccountView{Address: addr}
	err := n.view(func(tx *txContext) error {
		now := n.nowFn()
		if now > 0 {
			view.Now = uint64(now)
		}
		var err error
		if view.NUT, err = tx.ledger.BalanceOf(token.NUT, addr); err != nil {
			return err
		}
		if view.EsNUT, err = tx.ledger.BalanceOf(token.EsNUT, addr); err != nil {
			return err
		}
		if view.Vesting, err = tx.vesting.VestingSchedule(addr); err != nil {
			return err
		}
		view.Vested = vesting.Vested(view.Vesting, view.Now, n.params.Duration)
		if view.Releasable, err = tx.vesting.Releasable(addr); err != nil {
			return err
		}
		lock, ok, err := tx.vesting.LockSchedule(addr)
		if err != nil {
			return err
		}
		if ok {
			view.Lock = lock
			view.LockActive = lock.ActiveAt(view.Now)
		}
		milestones, err := tx.schedule.Schedule(addr)
		switch {
		case errors.Is(err, schedule.ErrNoSuchSchedule):
		case err != nil:
			return err
		default:
			view.Schedule = milestones
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
