package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type storedTokenFlags struct {
	Paused bool
	Locked bool
}

func balanceKey(symbol string, addr common.Address) []byte {
	return composeKey(balancePrefix, []byte(symbol), addr.Bytes())
}

func tokenSupplyKey(symbol string) []byte {
	return composeKey(tokenSupplyPrefix, []byte(symbol))
}

func tokenFlagsKey(symbol string) []byte {
	return composeKey(tokenFlagsPrefix, []byte(symbol))
}

func (m *Manager) loadAmount(key []byte) (*big.Int, error) {
	out := new(big.Int)
	if _, err := m.load(key, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) putAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return m.delete(key)
	}
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	return m.put(key, amount)
}

// Balance returns the account balance of the token. Missing entries default
// to zero.
func (m *Manager) Balance(symbol string, addr common.Address) (*big.Int, error) {
	return m.loadAmount(balanceKey(symbol, addr))
}

// SetBalance overwrites the account balance of the token.
func (m *Manager) SetBalance(symbol string, addr common.Address, amount *big.Int) error {
	return m.putAmount(balanceKey(symbol, addr), amount)
}

// Supply returns the persisted total supply of the token.
func (m *Manager) Supply(symbol string) (*big.Int, error) {
	return m.loadAmount(tokenSupplyKey(symbol))
}

// SetSupply overwrites the stored total supply of the token.
func (m *Manager) SetSupply(symbol string, amount *big.Int) error {
	return m.putAmount(tokenSupplyKey(symbol), amount)
}

func (m *Manager) tokenFlags(symbol string) (storedTokenFlags, error) {
	var flags storedTokenFlags
	_, err := m.load(tokenFlagsKey(symbol), &flags)
	return flags, err
}

func (m *Manager) TokenPaused(symbol string) (bool, error) {
	flags, err := m.tokenFlags(symbol)
	return flags.Paused, err
}

func (m *Manager) SetTokenPaused(symbol string, paused bool) error {
	flags, err := m.tokenFlags(symbol)
	if err != nil {
		return err
	}
	flags.Paused = paused
	return m.put(tokenFlagsKey(symbol), &flags)
}

func (m *Manager) TokenLocked(symbol string) (bool, error) {
	flags, err := m.tokenFlags(symbol)
	return flags.Locked, err
}

func (m *Manager) SetTokenLocked(symbol string, locked bool) error {
	flags, err := m.tokenFlags(symbol)
	if err != nil {
		return err
	}
	flags.Locked = locked
	return m.put(tokenFlagsKey(symbol), &flags)
}
