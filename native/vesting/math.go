package vesting

import "math/big"

// All divisions floor. Rounding leaves dust in custody, never overpays.

// Vested returns total*min(now-start, duration)/duration.
func Vested(s *Schedule, now, duration uint64) *big.Int {
	if !s.Active() || duration == 0 {
		return big.NewInt(0)
	}
	elapsed := elapsedSince(s.Start, now)
	if elapsed >= duration {
		return new(big.Int).Set(s.Total)
	}
	vested := new(big.Int).Mul(s.Total, new(big.Int).SetUint64(elapsed))
	return vested.Quo(vested, new(big.Int).SetUint64(duration))
}

// Releasable returns the vested amount not yet claimed.
func Releasable(s *Schedule, now, duration uint64) *big.Int {
	if !s.Active() {
		return big.NewInt(0)
	}
	out := Vested(s, now, duration)
	out.Sub(out, cloneBigInt(s.Claimed))
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}

// PenaltyRate returns max(minPenalty, 1e18 - elapsed*1e18/duration).
func PenaltyRate(elapsed, duration uint64, minPenalty *big.Int) *big.Int {
	floor := cloneBigInt(minPenalty)
	if duration == 0 || elapsed >= duration {
		return floor
	}
	decay := new(big.Int).Mul(new(big.Int).SetUint64(elapsed), Scale)
	decay.Quo(decay, new(big.Int).SetUint64(duration))
	rate := new(big.Int).Sub(Scale, decay)
	if rate.Cmp(floor) < 0 {
		return floor
	}
	return rate
}

// SplitPenalty divides the unvested amount into penalty and refund.
func SplitPenalty(unvested, rate *big.Int) (penalty, refund *big.Int) {
	penalty = new(big.Int).Mul(cloneBigInt(unvested), cloneBigInt(rate))
	penalty.Quo(penalty, Scale)
	refund = new(big.Int).Sub(cloneBigInt(unvested), penalty)
	return penalty, refund
}

// Merge rolls an existing schedule into a fresh one starting at now. The
// vested but unclaimed part of old is returned as payout; the unvested
// remainder plus amount becomes the new total.
func Merge(old *Schedule, now uint64, amount *big.Int, duration uint64) (next *Schedule, payout *big.Int) {
	next = &Schedule{Start: now, Claimed: big.NewInt(0)}
	if old != nil {
		next.Account = old.Account
	}
	if !old.Active() {
		next.Total = cloneBigInt(amount)
		return next, big.NewInt(0)
	}
	vested := Vested(old, now, duration)
	claimed := cloneBigInt(old.Claimed)
	settled := vested
	if claimed.Cmp(settled) > 0 {
		settled = claimed
	}
	remainder := new(big.Int).Sub(old.Total, settled)
	if remainder.Sign() < 0 {
		remainder.SetInt64(0)
	}
	payout = new(big.Int).Sub(vested, claimed)
	if payout.Sign() < 0 {
		payout.SetInt64(0)
	}
	next.Total = remainder.Add(remainder, cloneBigInt(amount))
	return next, payout
}

func elapsedSince(start, now uint64) uint64 {
	if now <= start {
		return 0
	}
	return now - start
}
