package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/access"
)

const (
	tokenModule  = "token"
	accessModule = "access"
)

// Transfer moves tokens out of the sender's own balance.
func (n *Node) Transfer(sender common.Address, token string, to common.Address, amount *big.Int) error {
	return n.execute(tokenModule, "transfer", sender, func(tx *txContext) error {
		return tx.ledger.Transfer(token, sender, to, amount)
	})
}

func (n *Node) Mint(operator common.Address, token string, to common.Address, amount *big.Int) error {
	return n.execute(tokenModule, "mint", operator, func(tx *txContext) error {
		return tx.ledger.Mint(operator, token, to, amount)
	})
}

func (n *Node) Pause(operator common.Address) error {
	return n.execute(tokenModule, "pause", operator, func(tx *txContext) error {
		return tx.ledger.Pause(operator)
	})
}

func (n *Node) Unpause(operator common.Address) error {
	return n.execute(tokenModule, "unpause", operator, func(tx *txContext) error {
		return tx.ledger.Unpause(operator)
	})
}

func (n *Node) SetTokenLock(operator common.Address, locked bool) error {
	return n.execute(tokenModule, "set_lock", operator, func(tx *txContext) error {
		return tx.ledger.SetTokenLock(operator, locked)
	})
}

func (n *Node) Grant(operator, principal common.Address, capability access.Capability) error {
	return n.execute(accessModule, "grant", operator, func(tx *txContext) error {
		return tx.access.Grant(operator, principal, capability)
	})
}

func (n *Node) Revoke(operator, principal common.Address, capability access.Capability) error {
	return n.execute(accessModule, "revoke", operator, func(tx *txContext) error {
		return tx.access.Revoke(operator, principal, capability)
	})
}

func (n *Node) HasCapability(principal common.Address, capability access.Capability) (bool, error) {
	var out bool
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.access.HasCapability(principal, capability)
		return err
	})
	return out, err
}

func (n *Node) BalanceOf(token string, addr common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.ledger.BalanceOf(token, addr)
		return err
	})
	return out, err
}

func (n *Node) TotalSupply(token string) (*big.Int, error) {
	var out *big.Int
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.ledger.TotalSupply(token)
		return err
	})
	return out, err
}
