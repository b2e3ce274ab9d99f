package core

import (
	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/access"
	"nutvest/native/schedule"
	"nutvest/native/token"
	"nutvest/native/vesting"
)

// moduleCapabilities lists what each custody account needs to settle.
var moduleCapabilities = []struct {
	module       common.Address
	capabilities []access.Capability
}{
	{vesting.ModuleAddress, []access.Capability{access.Unlock, access.Transfer}},
	{schedule.ModuleAddress, []access.Capability{access.Unlock, access.Transfer}},
}

func (n *Node) applyGenesis() error {
	admin := n.genesis.Admin
	return n.execute("node", "genesis", admin, func(tx *txContext) error {
		applied, err := tx.manager.GenesisApplied()
		if err != nil || applied {
			return err
		}
		for _, capability := range []access.Capability{access.Admin, access.Transfer} {
			if err := tx.access.Bootstrap(admin, capability); err != nil {
				return err
			}
		}
		for _, grant := range moduleCapabilities {
			for _, capability := range grant.capabilities {
				if err := tx.access.Bootstrap(grant.module, capability); err != nil {
					return err
				}
			}
		}
		if !n.genesis.UnlockTransfers {
			if err := tx.ledger.SetTokenLock(admin, true); err != nil {
				return err
			}
		}
		collector := n.genesis.FeeCollector
		if collector == (common.Address{}) {
			collector = admin
		}
		if err := tx.vesting.SetFeeCollector(admin, collector); err != nil {
			return err
		}
		if initial := n.genesis.InitialEsNUT; initial != nil && initial.Sign() > 0 {
			if err := tx.ledger.Mint(admin, token.EsNUT, admin, initial); err != nil {
				return err
			}
		}
		return tx.manager.MarkGenesis(admin, uint64(n.nowFn()))
	})
}
