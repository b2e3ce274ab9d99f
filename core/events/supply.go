package events

import (
	"math/big"

	"nutvest/core/types"
)

const (
	// TypeTokenSupply is emitted whenever a token supply changes.
	TypeTokenSupply = "token.supply"

	// SupplyReasonMint identifies mint driven supply increases.
	SupplyReasonMint = "mint"
	// SupplyReasonBurn identifies burn driven supply decreases.
	SupplyReasonBurn = "burn"
	// SupplyReasonUnlock identifies esNUT burned for NUT during unlock.
	SupplyReasonUnlock = "unlock"
)

// TokenSupply captures a supply delta for a fungible token.
type TokenSupply struct {
	Token  string
	Total  *big.Int
	Delta  *big.Int
	Reason string
}

func (TokenSupply) EventType() string { return TypeTokenSupply }

// Event renders the structured supply change event for downstream consumers.
func (e TokenSupply) Event() *types.Event {
	token := normalizeAsset(e.Token)
	if token == "" {
		token = "UNKNOWN"
	}
	evt := types.NewEvent(TypeTokenSupply).
		With("token", token).
		With("total", formatAmount(e.Total)).
		With("reason", e.Reason)
	if e.Delta != nil {
		evt.With("delta", e.Delta.String())
	}
	return evt
}
