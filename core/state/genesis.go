package state

import "github.com/ethereum/go-ethereum/common"

type storedGenesis struct {
	Admin     common.Address
	Timestamp uint64
}

// GenesisApplied reports whether the genesis allocation was committed.
func (m *Manager) GenesisApplied() (bool, error) {
	var record storedGenesis
	return m.KVGet(genesisKey, &record)
}

// MarkGenesis records the admin and time of genesis.
func (m *Manager) MarkGenesis(admin common.Address, timestamp uint64) error {
	return m.KVPut(genesisKey, storedGenesis{Admin: admin, Timestamp: timestamp})
}
