package vesting

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDuration is the linear vesting period of the reference deployment.
const DefaultDuration uint64 = 90 * 24 * 60 * 60

var (
	// Scale is the fixed point denominator of penalty rates.
	Scale = big.NewInt(1_000_000_000_000_000_000)
	// DefaultMinPenalty is the 25% penalty floor.
	DefaultMinPenalty = big.NewInt(250_000_000_000_000_000)
)

// Params configures the linear engine.
type Params struct {
	Duration   uint64
	MinPenalty *big.Int
}

func DefaultParams() Params {
	return Params{Duration: DefaultDuration, MinPenalty: new(big.Int).Set(DefaultMinPenalty)}
}

// MinPenaltyFromBps converts basis points into a Scale fixed point rate.
func MinPenaltyFromBps(bps uint64) *big.Int {
	rate := new(big.Int).Mul(Scale, new(big.Int).SetUint64(bps))
	return rate.Quo(rate, big.NewInt(10_000))
}

func (p Params) Validate() error {
	if p.Duration == 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidParams)
	}
	if p.MinPenalty == nil || p.MinPenalty.Sign() < 0 || p.MinPenalty.Cmp(Scale) > 0 {
		return fmt.Errorf("%w: minimum penalty must be within [0, 1e18]", ErrInvalidParams)
	}
	return nil
}

// Schedule is a holder's linear vesting position. A nil schedule or one with
// a zero total is Empty.
type Schedule struct {
	Account common.Address
	Start   uint64
	Total   *big.Int
	Claimed *big.Int
}

func (s *Schedule) Active() bool {
	return s != nil && s.Total != nil && s.Total.Sign() > 0
}

func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := *s
	out.Total = cloneBigInt(s.Total)
	out.Claimed = cloneBigInt(s.Claimed)
	return &out
}

// Lock is the collateral commitment gating new vesting starts.
type Lock struct {
	Account  common.Address
	UnlockAt uint64
	Amount   *big.Int
	AdminSet bool
}

// ActiveAt reports whether the lock still constrains the holder.
func (l *Lock) ActiveAt(now uint64) bool {
	return l != nil && now < l.UnlockAt
}

func (l *Lock) Clone() *Lock {
	if l == nil {
		return nil
	}
	out := *l
	out.Amount = cloneBigInt(l.Amount)
	return &out
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
