package vesting

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/events"
	"nutvest/native/access"
	nativecommon "nutvest/native/common"
	"nutvest/native/token"
)

// ModuleName identifies the linear engine and derives its custody address.
const ModuleName = "vesting"

// ModuleAddress holds every esNUT deposited into linear vesting.
var ModuleAddress = nativecommon.ModuleAddress(ModuleName)

type State interface {
	VestingSchedule(addr common.Address) (*Schedule, bool, error)
	PutVestingSchedule(s *Schedule) error
	DeleteVestingSchedule(addr common.Address) error
	LockSchedule(addr common.Address) (*Lock, bool, error)
	PutLockSchedule(l *Lock) error
	FeeCollector() (common.Address, bool, error)
	SetFeeCollector(addr common.Address) error
}

// LockBacking reports esNUT another engine already holds in custody against
// an account's lock.
type LockBacking interface {
	LockBacked(addr common.Address) (*big.Int, error)
}

// Ledger is the token service the engine settles through.
type Ledger interface {
	BalanceOf(token string, addr common.Address) (*big.Int, error)
	Transfer(token string, from, to common.Address, amount *big.Int) error
	Unlock(operator, from, to common.Address, amount *big.Int) error
}

// Engine implements holder locks and linear vesting of esNUT into NUT.
type Engine struct {
	state   State
	ledger  Ledger
	auth    access.Authorizer
	emitter events.Emitter
	backing LockBacking
	params  Params
	nowFn   func() int64
}

func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.MinPenalty = cloneBigInt(params.MinPenalty)
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  params,
		nowFn:   func() int64 { return time.Now().Unix() },
	}, nil
}

func (e *Engine) SetState(state State) { e.state = state }

func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

func (e *Engine) SetAuthorizer(auth access.Authorizer) { e.auth = auth }

// SetLockBacking lets custody held elsewhere count toward active locks.
func (e *Engine) SetLockBacking(backing LockBacking) { e.backing = backing }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Params returns a copy of the engine parameters.
func (e *Engine) Params() Params {
	return Params{Duration: e.params.Duration, MinPenalty: cloneBigInt(e.params.MinPenalty)}
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) ready() error {
	if e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	return nil
}

func (e *Engine) loadSchedule(addr common.Address) (*Schedule, error) {
	s, ok, err := e.state.VestingSchedule(addr)
	if err != nil {
		return nil, err
	}
	if !ok || !s.Active() {
		return nil, nil
	}
	s.Account = addr
	return s, nil
}

func (e *Engine) loadLock(addr common.Address) (*Lock, error) {
	l, ok, err := e.state.LockSchedule(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	l.Account = addr
	return l, nil
}

// release converts custody esNUT into NUT for the holder.
func (e *Engine) release(to common.Address, amount *big.Int) error {
	if !nativecommon.IsPositive(amount) {
		return nil
	}
	return e.ledger.Unlock(ModuleAddress, ModuleAddress, to, amount)
}

func (e *Engine) returnEscrow(to common.Address, amount *big.Int) error {
	if !nativecommon.IsPositive(amount) {
		return nil
	}
	return e.ledger.Transfer(token.EsNUT, ModuleAddress, to, amount)
}

// unbackedLock is the part of lock that must still sit in the holder's
// balance.
func (e *Engine) unbackedLock(holder common.Address, lock *Lock) (*big.Int, error) {
	required := cloneBigInt(lock.Amount)
	if e.backing == nil {
		return required, nil
	}
	backed, err := e.backing.LockBacked(holder)
	if err != nil {
		return nil, err
	}
	required.Sub(required, cloneBigInt(backed))
	if required.Sign() < 0 {
		required.SetInt64(0)
	}
	return required, nil
}

// StartVesting deposits amount of the holder's esNUT. An active schedule is
// rolled over: its releasable part is paid out and its unvested remainder
// joins the deposit in a new schedule starting now.
func (e *Engine) StartVesting(holder common.Address, amount *big.Int) (*Schedule, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !nativecommon.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	now := e.now()
	balance, err := e.ledger.BalanceOf(token.EsNUT, holder)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	lock, err := e.loadLock(holder)
	if err != nil {
		return nil, err
	}
	if lock.ActiveAt(now) {
		required, err := e.unbackedLock(holder, lock)
		if err != nil {
			return nil, err
		}
		free := new(big.Int).Sub(balance, required)
		if free.Cmp(amount) < 0 {
			return nil, ErrInsufficientLockedAmount
		}
	}
	current, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	next, payout := Merge(current, now, amount, e.params.Duration)
	next.Account = holder
	if err := e.release(holder, payout); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(token.EsNUT, holder, ModuleAddress, amount); err != nil {
		return nil, err
	}
	if err := e.state.PutVestingSchedule(next); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VestingStarted{
		Account:   holder,
		Deposit:   cloneBigInt(amount),
		Total:     cloneBigInt(next.Total),
		Released:  payout,
		StartedAt: next.Start,
	})
	return next.Clone(), nil
}

// ClaimVestedTokens releases the currently vested amount as NUT. It returns
// zero without error when nothing is releasable. A fully claimed schedule is
// cleared.
func (e *Engine) ClaimVestedTokens(holder common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	s, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return big.NewInt(0), nil
	}
	amount := Releasable(s, e.now(), e.params.Duration)
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := e.release(holder, amount); err != nil {
		return nil, err
	}
	s.Claimed = new(big.Int).Add(cloneBigInt(s.Claimed), amount)
	if s.Claimed.Cmp(s.Total) >= 0 {
		err = e.state.DeleteVestingSchedule(holder)
	} else {
		err = e.state.PutVestingSchedule(s)
	}
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VestingClaimed{
		Account: holder,
		Amount:  cloneBigInt(amount),
		Claimed: cloneBigInt(s.Claimed),
		Total:   cloneBigInt(s.Total),
	})
	return amount, nil
}

// EarlyWithdrawal describes the settlement of an early exit.
type EarlyWithdrawal struct {
	Vested       *big.Int
	Refund       *big.Int
	Penalty      *big.Int
	PenaltyRate  *big.Int
	FeeCollector common.Address
}

// EarlyWithdraw pays the releasable amount, sends the penalty on the unvested
// remainder to the fee collector as esNUT, releases the rest as NUT and
// clears the schedule.
func (e *Engine) EarlyWithdraw(holder common.Address) (*EarlyWithdrawal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	s, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoActiveVesting
	}
	now := e.now()
	elapsed := elapsedSince(s.Start, now)
	if elapsed >= e.params.Duration {
		return nil, ErrVestingComplete
	}
	collector, ok, err := e.state.FeeCollector()
	if err != nil {
		return nil, err
	}
	if !ok || collector == (common.Address{}) {
		return nil, ErrFeeCollectorUnset
	}
	vested := Releasable(s, now, e.params.Duration)
	unvested := new(big.Int).Sub(s.Total, cloneBigInt(s.Claimed))
	unvested.Sub(unvested, vested)
	if unvested.Sign() < 0 {
		unvested.SetInt64(0)
	}
	rate := PenaltyRate(elapsed, e.params.Duration, e.params.MinPenalty)
	penalty, refund := SplitPenalty(unvested, rate)

	if err := e.release(holder, new(big.Int).Add(vested, refund)); err != nil {
		return nil, err
	}
	if nativecommon.IsPositive(penalty) {
		if err := e.ledger.Transfer(token.EsNUT, ModuleAddress, collector, penalty); err != nil {
			return nil, err
		}
	}
	if err := e.state.DeleteVestingSchedule(holder); err != nil {
		return nil, err
	}
	result := &EarlyWithdrawal{
		Vested:       vested,
		Refund:       refund,
		Penalty:      penalty,
		PenaltyRate:  rate,
		FeeCollector: collector,
	}
	e.emitter.Emit(events.VestingEarlyWithdrawn{
		Account:      holder,
		Vested:       cloneBigInt(vested),
		Refund:       cloneBigInt(refund),
		Penalty:      cloneBigInt(penalty),
		PenaltyRate:  cloneBigInt(rate),
		FeeCollector: collector,
	})
	return result, nil
}

// Cancellation describes the settlement of a cancelled schedule.
type Cancellation struct {
	Vested   *big.Int
	Returned *big.Int
}

// CancelVesting releases the vested amount as NUT and returns the unvested
// remainder to the holder as esNUT without penalty.
// TODO: decide with governance whether cancellation should share the early
// withdrawal penalty; today it refunds the full remainder.
func (e *Engine) CancelVesting(holder common.Address) (*Cancellation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	s, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoActiveVesting
	}
	vested := Releasable(s, e.now(), e.params.Duration)
	returned := new(big.Int).Sub(s.Total, cloneBigInt(s.Claimed))
	returned.Sub(returned, vested)
	if returned.Sign() < 0 {
		returned.SetInt64(0)
	}
	if err := e.release(holder, vested); err != nil {
		return nil, err
	}
	if err := e.returnEscrow(holder, returned); err != nil {
		return nil, err
	}
	if err := e.state.DeleteVestingSchedule(holder); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VestingCancelled{Account: holder, Vested: cloneBigInt(vested), Returned: cloneBigInt(returned)})
	return &Cancellation{Vested: vested, Returned: returned}, nil
}

// Lock commits amount of the holder's esNUT until now+duration. Locks made
// while a previous holder lock is still running accumulate; a lapsed lock
// starts over. Admin overridden locks cannot be changed by the holder until
// they expire.
func (e *Engine) Lock(holder common.Address, duration uint64, amount *big.Int) (*Lock, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !nativecommon.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	if duration == 0 {
		return nil, ErrTimestampNotFuture
	}
	now := e.now()
	balance, err := e.ledger.BalanceOf(token.EsNUT, holder)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	current, err := e.loadLock(holder)
	if err != nil {
		return nil, err
	}
	total := cloneBigInt(amount)
	if current.ActiveAt(now) {
		if current.AdminSet {
			return nil, ErrLockIneligible
		}
		total.Add(total, cloneBigInt(current.Amount))
	}
	s, err := e.loadSchedule(holder)
	if err != nil {
		return nil, err
	}
	if s != nil {
		remainder := new(big.Int).Sub(s.Total, Vested(s, now, e.params.Duration))
		if remainder.Sign() > 0 && remainder.Cmp(total) < 0 {
			return nil, ErrLockIneligible
		}
	}
	if now > ^uint64(0)-duration {
		return nil, fmt.Errorf("%w: duration overflows", ErrInvalidParams)
	}
	next := &Lock{Account: holder, UnlockAt: now + duration, Amount: total}
	if err := e.state.PutLockSchedule(next); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VestingLocked{Account: holder, Amount: cloneBigInt(total), UnlockAt: next.UnlockAt})
	return next.Clone(), nil
}

// OverrideLockEndTime replaces the account's lock. The operator must hold
// admin and the timestamp must be in the future.
func (e *Engine) OverrideLockEndTime(operator, account common.Address, timestamp uint64, amount *big.Int) (*Lock, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := access.Require(e.auth, operator, access.Admin); err != nil {
		return nil, err
	}
	if account == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if amount != nil && amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if timestamp <= e.now() {
		return nil, ErrTimestampNotFuture
	}
	next := &Lock{Account: account, UnlockAt: timestamp, Amount: cloneBigInt(amount), AdminSet: true}
	if err := e.state.PutLockSchedule(next); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VestingLocked{Account: account, Amount: cloneBigInt(next.Amount), UnlockAt: timestamp, Overridden: true})
	return next.Clone(), nil
}

// SetFeeCollector configures the recipient of early withdrawal penalties.
func (e *Engine) SetFeeCollector(operator, collector common.Address) error {
	if e.state == nil {
		return ErrNilState
	}
	if err := access.Require(e.auth, operator, access.Admin); err != nil {
		return err
	}
	if collector == (common.Address{}) {
		return ErrZeroAddress
	}
	previous, _, err := e.state.FeeCollector()
	if err != nil {
		return err
	}
	if err := e.state.SetFeeCollector(collector); err != nil {
		return err
	}
	e.emitter.Emit(events.VestingFeeCollectorSet{Previous: previous, Current: collector})
	return nil
}

// Rescue recovers tokens sent to the custody address by mistake. esNUT is
// holder custody and cannot be rescued.
func (e *Engine) Rescue(operator common.Address, tokenSymbol string, to common.Address, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := access.RequireAny(e.auth, operator, access.Rescue, access.Admin); err != nil {
		return err
	}
	symbol, err := token.Normalize(tokenSymbol)
	if err != nil {
		return err
	}
	if symbol == token.EsNUT {
		return ErrCannotRescueCustody
	}
	if err := e.ledger.Transfer(symbol, ModuleAddress, to, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.Rescued{Module: ModuleName, Token: symbol, To: to, Amount: cloneBigInt(amount)})
	return nil
}
