package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/schedule"
)

type storedTranche struct {
	Timestamp uint64
	Amount    *big.Int
}

type storedMilestones struct {
	Tranches []storedTranche
	Cursor   uint64
}

func milestoneKey(addr common.Address) []byte {
	return composeKey(milestonePrefix, addr.Bytes())
}

func (m *Manager) MilestoneSchedule(addr common.Address) (*schedule.Schedule, bool, error) {
	var stored storedMilestones
	ok, err := m.load(milestoneKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	out := &schedule.Schedule{
		Account:  addr,
		Tranches: make([]schedule.Tranche, len(stored.Tranches)),
		Cursor:   int(stored.Cursor),
	}
	for i, t := range stored.Tranches {
		out.Tranches[i] = schedule.Tranche{Timestamp: t.Timestamp, Amount: cloneAmount(t.Amount)}
	}
	return out, true, nil
}

func (m *Manager) PutMilestoneSchedule(s *schedule.Schedule) error {
	stored := storedMilestones{Tranches: make([]storedTranche, len(s.Tranches))}
	if s.Cursor > 0 {
		stored.Cursor = uint64(s.Cursor)
	}
	for i, t := range s.Tranches {
		stored.Tranches[i] = storedTranche{Timestamp: t.Timestamp, Amount: cloneAmount(t.Amount)}
	}
	return m.put(milestoneKey(s.Account), &stored)
}

func (m *Manager) DeleteMilestoneSchedule(addr common.Address) error {
	return m.delete(milestoneKey(addr))
}
