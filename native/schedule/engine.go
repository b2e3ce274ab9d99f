package schedule

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/events"
	"nutvest/native/access"
	nativecommon "nutvest/native/common"
	"nutvest/native/token"
	"nutvest/native/vesting"
)

// ModuleName identifies the scheduled engine and derives its custody address.
const ModuleName = "schedule"

// ModuleAddress holds the esNUT backing every milestone schedule.
var ModuleAddress = nativecommon.ModuleAddress(ModuleName)

type State interface {
	MilestoneSchedule(addr common.Address) (*Schedule, bool, error)
	PutMilestoneSchedule(s *Schedule) error
	DeleteMilestoneSchedule(addr common.Address) error
}

// LockView exposes the companion lock kept by the linear engine.
type LockView interface {
	LockSchedule(addr common.Address) (*vesting.Lock, bool, error)
}

type Ledger interface {
	BalanceOf(token string, addr common.Address) (*big.Int, error)
	Transfer(token string, from, to common.Address, amount *big.Int) error
	Unlock(operator, from, to common.Address, amount *big.Int) error
}

// Engine releases esNUT held in custody as NUT tranche by tranche.
type Engine struct {
	state   State
	locks   LockView
	ledger  Ledger
	auth    access.Authorizer
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state State) { e.state = state }

func (e *Engine) SetLocks(locks LockView) { e.locks = locks }

func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

func (e *Engine) SetAuthorizer(auth access.Authorizer) { e.auth = auth }

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

func (e *Engine) load(addr common.Address) (*Schedule, error) {
	s, ok, err := e.state.MilestoneSchedule(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	s.Account = addr
	return s, nil
}

// LockBacked returns the tranche sum of account's schedule. SetSchedule moved
// that sum into custody against the companion lock.
func (e *Engine) LockBacked(account common.Address) (*big.Int, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	s, err := e.load(account)
	if err != nil || s == nil {
		return new(big.Int), err
	}
	return s.Total(), nil
}

// SetSchedule installs tranches for account, replacing any prior schedule.
// The account must carry a linear engine lock whose amount equals the
// tranche sum and whose end equals the final tranche. Unreleased esNUT of a
// replaced schedule is returned to the account before the new sum is pulled.
func (e *Engine) SetSchedule(operator, account common.Address, tranches []Tranche) (*Schedule, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := access.Require(e.auth, operator, access.Admin); err != nil {
		return nil, err
	}
	if account == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if err := Validate(tranches); err != nil {
		return nil, err
	}
	total := sumTranches(tranches)
	final := tranches[len(tranches)-1].Timestamp

	if e.locks == nil {
		return nil, ErrLockNotSet
	}
	lock, ok, err := e.locks.LockSchedule(account)
	if err != nil {
		return nil, err
	}
	if !ok || lock == nil || lock.UnlockAt == 0 {
		return nil, ErrLockNotSet
	}
	if e.now() >= lock.UnlockAt {
		return nil, ErrLockExpired
	}
	if cloneBigInt(lock.Amount).Cmp(total) != 0 || lock.UnlockAt != final {
		return nil, ErrLockMismatch
	}

	prior, err := e.load(account)
	if err != nil {
		return nil, err
	}
	returned := prior.Unreleased()
	balance, err := e.ledger.BalanceOf(token.EsNUT, account)
	if err != nil {
		return nil, err
	}
	if new(big.Int).Add(balance, returned).Cmp(total) < 0 {
		return nil, ErrInsufficientCustodyFunds
	}
	if returned.Sign() > 0 {
		if err := e.ledger.Transfer(token.EsNUT, ModuleAddress, account, returned); err != nil {
			return nil, err
		}
	}
	if err := e.ledger.Transfer(token.EsNUT, account, ModuleAddress, total); err != nil {
		return nil, err
	}
	next := (&Schedule{Account: account, Tranches: tranches}).Clone()
	if err := e.state.PutMilestoneSchedule(next); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ScheduleSet{
		Account:  account,
		Tranches: len(tranches),
		Total:    total,
		Returned: returned,
		FinalAt:  final,
	})
	return next.Clone(), nil
}

// VestTokens releases, in order, every due tranche from the cursor onward.
// It returns zero without error when nothing is due or no schedule exists.
func (e *Engine) VestTokens(account common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	s, err := e.load(account)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Done() {
		return big.NewInt(0), nil
	}
	now := e.now()
	released := new(big.Int)
	count := 0
	for s.Cursor < len(s.Tranches) && s.Tranches[s.Cursor].Timestamp <= now {
		released.Add(released, cloneBigInt(s.Tranches[s.Cursor].Amount))
		s.Cursor++
		count++
	}
	if count == 0 {
		return released, nil
	}
	if err := e.ledger.Unlock(ModuleAddress, ModuleAddress, account, released); err != nil {
		return nil, err
	}
	if err := e.state.PutMilestoneSchedule(s); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ScheduleVested{
		Account:  account,
		Amount:   cloneBigInt(released),
		Released: count,
		Cursor:   s.Cursor,
	})
	return released, nil
}

// CancelSchedule deletes the schedule and returns unreleased esNUT to the
// account.
func (e *Engine) CancelSchedule(operator, account common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := access.Require(e.auth, operator, access.Admin); err != nil {
		return nil, err
	}
	s, err := e.load(account)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchSchedule, account.Hex())
	}
	returned := s.Unreleased()
	if returned.Sign() > 0 {
		if err := e.ledger.Transfer(token.EsNUT, ModuleAddress, account, returned); err != nil {
			return nil, err
		}
	}
	if err := e.state.DeleteMilestoneSchedule(account); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ScheduleCancelled{Account: account, Returned: cloneBigInt(returned)})
	return returned, nil
}

// Schedule returns the account's schedule.
func (e *Engine) Schedule(account common.Address) (*Schedule, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	s, err := e.load(account)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchSchedule, account.Hex())
	}
	return s, nil
}

// Tranche returns the i-th tranche of the account's schedule.
func (e *Engine) Tranche(account common.Address, i int) (Tranche, error) {
	s, err := e.Schedule(account)
	if err != nil {
		return Tranche{}, err
	}
	if i < 0 || i >= len(s.Tranches) {
		return Tranche{}, fmt.Errorf("%w: tranche %d", ErrNoSuchSchedule, i)
	}
	return s.Tranches[i], nil
}

// Rescue moves any token out of the custody address.
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
	if err := e.ledger.Transfer(symbol, ModuleAddress, to, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.Rescued{Module: ModuleName, Token: symbol, To: to, Amount: cloneBigInt(amount)})
	return nil
}
