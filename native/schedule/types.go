package schedule

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNilState                 = errors.New("schedule: state not configured")
	ErrNilLedger                = errors.New("schedule: ledger not configured")
	ErrScheduleEmpty            = errors.New("schedule: schedule length must be greater than 0")
	ErrScheduleUnordered        = errors.New("schedule: must be in sequential order")
	ErrInvalidAmount            = errors.New("schedule: tranche amount must be positive")
	ErrLockNotSet               = errors.New("schedule: lock schedule not set")
	ErrLockExpired              = errors.New("schedule: lock schedule already expired")
	ErrLockMismatch             = errors.New("schedule: lockSchedule esNUT mismatch proposed schedule")
	ErrInsufficientCustodyFunds = errors.New("schedule: insufficient esNUT to lock")
	ErrNoSuchSchedule           = errors.New("schedule: no such schedule")
	ErrZeroAddress              = errors.New("schedule: zero address")
)

// Tranche is one milestone of a plan.
type Tranche struct {
	Timestamp uint64
	Amount    *big.Int
}

// Schedule is the ordered tranche list of an account. Tranches before
// Cursor have been released.
type Schedule struct {
	Account  common.Address
	Tranches []Tranche
	Cursor   int
}

func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := &Schedule{Account: s.Account, Cursor: s.Cursor, Tranches: make([]Tranche, len(s.Tranches))}
	for i, t := range s.Tranches {
		out.Tranches[i] = Tranche{Timestamp: t.Timestamp, Amount: cloneBigInt(t.Amount)}
	}
	return out
}

// Total sums every tranche.
func (s *Schedule) Total() *big.Int {
	return sumTranches(s.Tranches)
}

// Unreleased sums the tranches at or after the cursor.
func (s *Schedule) Unreleased() *big.Int {
	if s == nil || s.Cursor >= len(s.Tranches) {
		return big.NewInt(0)
	}
	cursor := s.Cursor
	if cursor < 0 {
		cursor = 0
	}
	return sumTranches(s.Tranches[cursor:])
}

// Done reports whether every tranche was released.
func (s *Schedule) Done() bool {
	return s == nil || s.Cursor >= len(s.Tranches)
}

// Validate checks the tranche list shape.
func Validate(tranches []Tranche) error {
	if len(tranches) == 0 {
		return ErrScheduleEmpty
	}
	for i, t := range tranches {
		if t.Amount == nil || t.Amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if i > 0 && t.Timestamp <= tranches[i-1].Timestamp {
			return ErrScheduleUnordered
		}
	}
	return nil
}

func sumTranches(tranches []Tranche) *big.Int {
	total := new(big.Int)
	for _, t := range tranches {
		if t.Amount != nil {
			total.Add(total, t.Amount)
		}
	}
	return total
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
