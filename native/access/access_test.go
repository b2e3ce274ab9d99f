package access

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nutvest/core/events"
)

type mockState struct {
	grants map[string]map[common.Address]bool
}

func newMockState() *mockState {
	return &mockState{grants: make(map[string]map[common.Address]bool)}
}

func (m *mockState) HasCapability(capability string, principal common.Address) (bool, error) {
	return m.grants[capability][principal], nil
}

func (m *mockState) SetCapability(capability string, principal common.Address, granted bool) error {
	if m.grants[capability] == nil {
		m.grants[capability] = make(map[common.Address]bool)
	}
	if !granted {
		delete(m.grants[capability], principal)
		return nil
	}
	m.grants[capability][principal] = true
	return nil
}

func TestGrantRequiresAdmin(t *testing.T) {
	admin := common.HexToAddress("0xa1")
	user := common.HexToAddress("0xb2")
	reg := NewRegistry(newMockState())
	rec := &events.Recorder{}
	reg.SetEmitter(rec)

	require.ErrorIs(t, reg.Grant(user, user, Minter), ErrUnauthorized)

	require.NoError(t, reg.Bootstrap(admin, Admin))
	require.NoError(t, reg.Grant(admin, user, Minter))
	require.NoError(t, Require(reg, user, Minter))
	require.ErrorIs(t, Require(reg, user, Pauser), ErrUnauthorized)
	require.NoError(t, RequireAny(reg, user, Pauser, Minter))

	require.NoError(t, reg.Revoke(admin, user, Minter))
	require.ErrorIs(t, Require(reg, user, Minter), ErrUnauthorized)

	evts := rec.Events()
	require.Len(t, evts, 3)
	require.Equal(t, events.TypeCapabilityRevoked, evts[2].EventType())
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability(" Unlock ")
	require.NoError(t, err)
	require.Equal(t, Unlock, c)

	_, err = ParseCapability("root")
	require.ErrorIs(t, err, ErrUnknownCapability)
}

func TestRequireWithoutAuthorizer(t *testing.T) {
	require.ErrorIs(t, Require(nil, common.Address{}, Admin), ErrUnauthorized)
}
