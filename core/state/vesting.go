package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/vesting"
)

type storedVestingSchedule struct {
	Start   uint64
	Total   *big.Int
	Claimed *big.Int
}

type storedLock struct {
	UnlockAt uint64
	Amount   *big.Int
	AdminSet bool
}

func vestingKey(addr common.Address) []byte {
	return composeKey(vestingPrefix, addr.Bytes())
}

func lockKey(addr common.Address) []byte {
	return composeKey(lockPrefix, addr.Bytes())
}

func (m *Manager) VestingSchedule(addr common.Address) (*vesting.Schedule, bool, error) {
	var stored storedVestingSchedule
	ok, err := m.load(vestingKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &vesting.Schedule{
		Account: addr,
		Start:   stored.Start,
		Total:   cloneAmount(stored.Total),
		Claimed: cloneAmount(stored.Claimed),
	}, true, nil
}

func (m *Manager) PutVestingSchedule(s *vesting.Schedule) error {
	return m.put(vestingKey(s.Account), &storedVestingSchedule{
		Start:   s.Start,
		Total:   cloneAmount(s.Total),
		Claimed: cloneAmount(s.Claimed),
	})
}

func (m *Manager) DeleteVestingSchedule(addr common.Address) error {
	return m.delete(vestingKey(addr))
}

func (m *Manager) LockSchedule(addr common.Address) (*vesting.Lock, bool, error) {
	var stored storedLock
	ok, err := m.load(lockKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &vesting.Lock{
		Account:  addr,
		UnlockAt: stored.UnlockAt,
		Amount:   cloneAmount(stored.Amount),
		AdminSet: stored.AdminSet,
	}, true, nil
}

func (m *Manager) PutLockSchedule(l *vesting.Lock) error {
	return m.put(lockKey(l.Account), &storedLock{
		UnlockAt: l.UnlockAt,
		Amount:   cloneAmount(l.Amount),
		AdminSet: l.AdminSet,
	})
}

func (m *Manager) FeeCollector() (common.Address, bool, error) {
	var addr common.Address
	ok, err := m.load(kvKey(feeCollectorKey), &addr)
	return addr, ok, err
}

func (m *Manager) SetFeeCollector(addr common.Address) error {
	return m.put(kvKey(feeCollectorKey), addr)
}
