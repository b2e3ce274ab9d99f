package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/types"
)

const (
	TypeAirdropPublished = "airdrop.published"
	TypeAirdropClaimed   = "airdrop.claimed"
)

// AirdropPublished is emitted when a distribution root is registered.
type AirdropPublished struct {
	Distribution string
	Token        string
	Root         common.Hash
	Custody      common.Address
}

func (AirdropPublished) EventType() string { return TypeAirdropPublished }

func (e AirdropPublished) Event() *types.Event {
	return types.NewEvent(TypeAirdropPublished).
		With("distribution", e.Distribution).
		With("token", normalizeAsset(e.Token)).
		With("root", e.Root.Hex()).
		With("custody", formatAddress(e.Custody))
}

// AirdropClaimed is emitted once per successfully claimed leaf index.
type AirdropClaimed struct {
	Distribution string
	Index        uint64
	Account      common.Address
	Token        string
	Amount       *big.Int
}

func (AirdropClaimed) EventType() string { return TypeAirdropClaimed }

func (e AirdropClaimed) Event() *types.Event {
	return types.NewEvent(TypeAirdropClaimed).
		With("distribution", e.Distribution).
		With("index", strconv.FormatUint(e.Index, 10)).
		With("account", formatAddress(e.Account)).
		With("token", normalizeAsset(e.Token)).
		With("amount", formatAmount(e.Amount))
}
