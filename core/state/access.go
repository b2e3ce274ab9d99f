package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var errNegativeAmount = errors.New("state: negative amount")

func capabilityKey(capability string, addr common.Address) []byte {
	return composeKey(capabilityPrefix, []byte(capability), addr.Bytes())
}

// HasCapability reports whether the principal was granted the capability.
func (m *Manager) HasCapability(capability string, principal common.Address) (bool, error) {
	var granted bool
	ok, err := m.load(capabilityKey(capability, principal), &granted)
	if err != nil {
		return false, err
	}
	return ok && granted, nil
}

// SetCapability records or removes a grant.
func (m *Manager) SetCapability(capability string, principal common.Address, granted bool) error {
	key := capabilityKey(capability, principal)
	if !granted {
		return m.delete(key)
	}
	return m.put(key, true)
}
