package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/events"
	"nutvest/native/access"
	nativecommon "nutvest/native/common"
)

const (
	// NUT is the unrestricted, capped and pausable token.
	NUT = "NUT"
	// EsNUT is the transfer-restricted escrow token released into NUT.
	EsNUT = "esNUT"
)

// DefaultCap is the NUT supply cap of the reference deployment (1e28 wei).
var DefaultCap = new(big.Int).Exp(big.NewInt(10), big.NewInt(28), nil)

// Normalize maps user supplied symbols onto the canonical token names.
func Normalize(symbol string) (string, error) {
	switch symbol {
	case NUT, "nut":
		return NUT, nil
	case EsNUT, "ESNUT", "esnut":
		return EsNUT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownToken, symbol)
	}
}

// State persists balances, supplies and token flags.
type State interface {
	Balance(token string, addr common.Address) (*big.Int, error)
	SetBalance(token string, addr common.Address, amount *big.Int) error
	Supply(token string) (*big.Int, error)
	SetSupply(token string, amount *big.Int) error
	TokenPaused(token string) (bool, error)
	SetTokenPaused(token string, paused bool) error
	TokenLocked(token string) (bool, error)
	SetTokenLocked(token string, locked bool) error
}

// Ledger is the fungible token service the vesting and claim engines call
// into. Every balance movement is rejected while NUT is paused.
type Ledger struct {
	state   State
	auth    access.Authorizer
	emitter events.Emitter
	cap     *big.Int
}

func NewLedger(state State, auth access.Authorizer, supplyCap *big.Int) *Ledger {
	if supplyCap == nil || supplyCap.Sign() <= 0 {
		supplyCap = DefaultCap
	}
	return &Ledger{
		state:   state,
		auth:    auth,
		emitter: events.NoopEmitter{},
		cap:     new(big.Int).Set(supplyCap),
	}
}

func (l *Ledger) SetState(state State) { l.state = state }

func (l *Ledger) SetAuthorizer(auth access.Authorizer) { l.auth = auth }

func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Cap returns the NUT supply cap.
func (l *Ledger) Cap() *big.Int { return new(big.Int).Set(l.cap) }

func (l *Ledger) BalanceOf(token string, addr common.Address) (*big.Int, error) {
	symbol, err := Normalize(token)
	if err != nil {
		return nil, err
	}
	bal, err := l.state.Balance(symbol, addr)
	if err != nil {
		return nil, err
	}
	return nativecommon.CloneBigInt(bal), nil
}

func (l *Ledger) TotalSupply(token string) (*big.Int, error) {
	symbol, err := Normalize(token)
	if err != nil {
		return nil, err
	}
	supply, err := l.state.Supply(symbol)
	if err != nil {
		return nil, err
	}
	return nativecommon.CloneBigInt(supply), nil
}

// Paused reports whether NUT, and with it every movement, is halted.
func (l *Ledger) Paused() (bool, error) {
	return l.state.TokenPaused(NUT)
}

// TransferLocked reports whether esNUT transfers are restricted.
func (l *Ledger) TransferLocked() (bool, error) {
	return l.state.TokenLocked(EsNUT)
}

// IsPaused implements the native pause view.
func (l *Ledger) IsPaused(name string) (bool, error) {
	return l.state.TokenPaused(name)
}

func (l *Ledger) guard() error {
	if err := nativecommon.Guard(l, NUT); err != nil {
		if errors.Is(err, nativecommon.ErrModulePaused) {
			return ErrPaused
		}
		return err
	}
	return nil
}

// Transfer moves amount from one account to another. esNUT transfers require
// the transfer capability on either side while the token lock is engaged.
func (l *Ledger) Transfer(token string, from, to common.Address, amount *big.Int) error {
	symbol, err := Normalize(token)
	if err != nil {
		return err
	}
	if !nativecommon.IsPositive(amount) {
		return ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := l.guard(); err != nil {
		return err
	}
	if symbol == EsNUT {
		if err := l.checkTransferLock(from, to); err != nil {
			return err
		}
	}
	if err := l.debit(symbol, from, amount); err != nil {
		return err
	}
	if err := l.credit(symbol, to, amount); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenTransfer{Token: symbol, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

func (l *Ledger) checkTransferLock(from, to common.Address) error {
	locked, err := l.state.TokenLocked(EsNUT)
	if err != nil {
		return err
	}
	if !locked {
		return nil
	}
	if l.auth == nil {
		return ErrTransferLocked
	}
	for _, party := range []common.Address{from, to} {
		ok, err := l.auth.HasCapability(party, access.Transfer)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrTransferLocked
}

// Mint creates new tokens. NUT requires the minter capability and respects
// the cap; esNUT requires admin and keeps esNUT+NUT supply within the cap.
func (l *Ledger) Mint(operator common.Address, token string, to common.Address, amount *big.Int) error {
	symbol, err := Normalize(token)
	if err != nil {
		return err
	}
	required := access.Minter
	if symbol == EsNUT {
		required = access.Admin
	}
	if err := access.Require(l.auth, operator, required); err != nil {
		return err
	}
	return l.mint(symbol, to, amount, events.SupplyReasonMint)
}

func (l *Ledger) mint(symbol string, to common.Address, amount *big.Int, reason string) error {
	if !nativecommon.IsPositive(amount) {
		return ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := l.guard(); err != nil {
		return err
	}
	supply, err := l.state.Supply(symbol)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(nativecommon.CloneBigInt(supply), amount)
	if err := l.checkCap(symbol, next); err != nil {
		return err
	}
	if err := l.credit(symbol, to, amount); err != nil {
		return err
	}
	if err := l.state.SetSupply(symbol, next); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenSupply{Token: symbol, Total: new(big.Int).Set(next), Delta: new(big.Int).Set(amount), Reason: reason})
	return nil
}

func (l *Ledger) checkCap(symbol string, next *big.Int) error {
	combined := new(big.Int).Set(next)
	if symbol == EsNUT {
		nut, err := l.state.Supply(NUT)
		if err != nil {
			return err
		}
		if nut != nil {
			combined.Add(combined, nut)
		}
	}
	if combined.Cmp(l.cap) > 0 {
		return ErrCapExceeded
	}
	return nil
}

func (l *Ledger) burn(symbol string, from common.Address, amount *big.Int, reason string) error {
	if err := l.debit(symbol, from, amount); err != nil {
		return err
	}
	supply, err := l.state.Supply(symbol)
	if err != nil {
		return err
	}
	next := new(big.Int).Sub(nativecommon.CloneBigInt(supply), amount)
	if next.Sign() < 0 {
		return fmt.Errorf("token: %s supply underflow", symbol)
	}
	if err := l.state.SetSupply(symbol, next); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenSupply{Token: symbol, Total: new(big.Int).Set(next), Delta: new(big.Int).Neg(amount), Reason: reason})
	return nil
}

// Unlock burns esNUT held by from and mints the same amount of NUT to to.
// The operator must hold the unlock capability.
func (l *Ledger) Unlock(operator, from, to common.Address, amount *big.Int) error {
	if err := access.Require(l.auth, operator, access.Unlock); err != nil {
		return err
	}
	if !nativecommon.IsPositive(amount) {
		return ErrInvalidAmount
	}
	if err := l.guard(); err != nil {
		return err
	}
	if err := l.burn(EsNUT, from, amount, events.SupplyReasonUnlock); err != nil {
		return err
	}
	if err := l.mint(NUT, to, amount, events.SupplyReasonUnlock); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenUnlock{Operator: operator, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// Pause halts every movement. Requires pauser or admin.
func (l *Ledger) Pause(operator common.Address) error {
	return l.setPaused(operator, true)
}

// Unpause resumes movements. Requires pauser or admin.
func (l *Ledger) Unpause(operator common.Address) error {
	return l.setPaused(operator, false)
}

func (l *Ledger) setPaused(operator common.Address, paused bool) error {
	if err := access.RequireAny(l.auth, operator, access.Pauser, access.Admin); err != nil {
		return err
	}
	if err := l.state.SetTokenPaused(NUT, paused); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenPaused{Token: NUT, Paused: paused})
	return nil
}

// SetTokenLock toggles the esNUT transfer restriction. Requires admin.
func (l *Ledger) SetTokenLock(operator common.Address, locked bool) error {
	if err := access.Require(l.auth, operator, access.Admin); err != nil {
		return err
	}
	if err := l.state.SetTokenLocked(EsNUT, locked); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenLock{Token: EsNUT, Locked: locked})
	return nil
}

func (l *Ledger) debit(symbol string, addr common.Address, amount *big.Int) error {
	bal, err := l.state.Balance(symbol, addr)
	if err != nil {
		return err
	}
	current := nativecommon.CloneBigInt(bal)
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s %s, needs %s", ErrInsufficientBalance, addr.Hex(), current, symbol, amount)
	}
	return l.state.SetBalance(symbol, addr, current.Sub(current, amount))
}

func (l *Ledger) credit(symbol string, addr common.Address, amount *big.Int) error {
	bal, err := l.state.Balance(symbol, addr)
	if err != nil {
		return err
	}
	next := nativecommon.CloneBigInt(bal)
	return l.state.SetBalance(symbol, addr, next.Add(next, amount))
}
