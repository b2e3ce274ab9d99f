package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/types"
)

const (
	TypeTokenTransfer = "token.transfer"
	TypeTokenUnlock   = "token.unlock"
	TypeTokenPaused   = "token.paused"
	TypeTokenLock     = "token.lock"
)

// TokenTransfer records a balance movement between two accounts.
type TokenTransfer struct {
	Token  string
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return types.NewEvent(TypeTokenTransfer).
		With("token", normalizeAsset(e.Token)).
		With("from", formatAddress(e.From)).
		With("to", formatAddress(e.To)).
		With("amount", formatAmount(e.Amount))
}

// TokenUnlock records esNUT burned from one account and NUT minted to another.
type TokenUnlock struct {
	Operator common.Address
	From     common.Address
	To       common.Address
	Amount   *big.Int
}

func (TokenUnlock) EventType() string { return TypeTokenUnlock }

func (e TokenUnlock) Event() *types.Event {
	return types.NewEvent(TypeTokenUnlock).
		With("operator", formatAddress(e.Operator)).
		With("from", formatAddress(e.From)).
		With("to", formatAddress(e.To)).
		With("amount", formatAmount(e.Amount))
}

type TokenPaused struct {
	Token  string
	Paused bool
}

func (TokenPaused) EventType() string { return TypeTokenPaused }

func (e TokenPaused) Event() *types.Event {
	return types.NewEvent(TypeTokenPaused).
		With("token", normalizeAsset(e.Token)).
		With("paused", strconv.FormatBool(e.Paused))
}

// TokenLock records toggling of the esNUT transfer restriction.
type TokenLock struct {
	Token  string
	Locked bool
}

func (TokenLock) EventType() string { return TypeTokenLock }

func (e TokenLock) Event() *types.Event {
	return types.NewEvent(TypeTokenLock).
		With("token", normalizeAsset(e.Token)).
		With("locked", strconv.FormatBool(e.Locked))
}
