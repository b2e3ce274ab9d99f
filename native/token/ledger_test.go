package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nutvest/core/events"
	"nutvest/native/access"
)

type mockState struct {
	balances map[string]map[common.Address]*big.Int
	supplies map[string]*big.Int
	paused   map[string]bool
	locked   map[string]bool
}

func newMockState() *mockState {
	return &mockState{
		balances: make(map[string]map[common.Address]*big.Int),
		supplies: make(map[string]*big.Int),
		paused:   make(map[string]bool),
		locked:   make(map[string]bool),
	}
}

func (m *mockState) Balance(token string, addr common.Address) (*big.Int, error) {
	if bal, ok := m.balances[token][addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetBalance(token string, addr common.Address, amount *big.Int) error {
	if m.balances[token] == nil {
		m.balances[token] = make(map[common.Address]*big.Int)
	}
	m.balances[token][addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) Supply(token string) (*big.Int, error) {
	if s, ok := m.supplies[token]; ok {
		return new(big.Int).Set(s), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetSupply(token string, amount *big.Int) error {
	m.supplies[token] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) TokenPaused(token string) (bool, error) { return m.paused[token], nil }

func (m *mockState) SetTokenPaused(token string, paused bool) error {
	m.paused[token] = paused
	return nil
}

func (m *mockState) TokenLocked(token string) (bool, error) { return m.locked[token], nil }

func (m *mockState) SetTokenLocked(token string, locked bool) error {
	m.locked[token] = locked
	return nil
}

type staticAuth map[common.Address][]access.Capability

func (a staticAuth) HasCapability(principal common.Address, capability access.Capability) (bool, error) {
	for _, c := range a[principal] {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

var (
	admin    = common.HexToAddress("0xad")
	minter   = common.HexToAddress("0x1111")
	unlocker = common.HexToAddress("0x2222")
	alice    = common.HexToAddress("0xa11ce")
	bob      = common.HexToAddress("0xb0b")
)

func newTestLedger(t *testing.T, supplyCap *big.Int) (*Ledger, *mockState, *events.Recorder) {
	t.Helper()
	st := newMockState()
	auth := staticAuth{
		admin:    {access.Admin},
		minter:   {access.Minter},
		unlocker: {access.Unlock, access.Transfer},
	}
	l := NewLedger(st, auth, supplyCap)
	rec := &events.Recorder{}
	l.SetEmitter(rec)
	return l, st, rec
}

func TestMintRespectsCapabilitiesAndCap(t *testing.T) {
	l, _, rec := newTestLedger(t, big.NewInt(1000))

	require.ErrorIs(t, l.Mint(alice, NUT, alice, big.NewInt(1)), access.ErrUnauthorized)
	require.ErrorIs(t, l.Mint(minter, EsNUT, alice, big.NewInt(1)), access.ErrUnauthorized)

	require.NoError(t, l.Mint(minter, NUT, alice, big.NewInt(600)))
	require.NoError(t, l.Mint(admin, EsNUT, alice, big.NewInt(400)))
	require.ErrorIs(t, l.Mint(admin, EsNUT, alice, big.NewInt(1)), ErrCapExceeded)
	require.ErrorIs(t, l.Mint(minter, NUT, alice, big.NewInt(401)), ErrCapExceeded)

	supply, err := l.TotalSupply(NUT)
	require.NoError(t, err)
	require.Equal(t, int64(600), supply.Int64())
	require.Len(t, rec.Events(), 2)
}

func TestTransferLockRequiresTransferCapability(t *testing.T) {
	l, _, rec := newTestLedger(t, nil)
	require.NoError(t, l.Mint(admin, EsNUT, alice, big.NewInt(100)))
	require.NoError(t, l.SetTokenLock(admin, true))

	require.ErrorIs(t, l.Transfer(EsNUT, alice, bob, big.NewInt(10)), ErrTransferLocked)
	require.NoError(t, l.Transfer(EsNUT, alice, unlocker, big.NewInt(10)))
	require.NoError(t, l.Transfer(EsNUT, unlocker, bob, big.NewInt(5)))

	require.NoError(t, l.SetTokenLock(admin, false))
	require.NoError(t, l.Transfer(EsNUT, alice, bob, big.NewInt(10)))

	bal, err := l.BalanceOf(EsNUT, bob)
	require.NoError(t, err)
	require.Equal(t, int64(15), bal.Int64())

	var lockEvents int
	for _, evt := range rec.Events() {
		if evt.EventType() == events.TypeTokenLock {
			lockEvents++
		}
	}
	require.Equal(t, 2, lockEvents)
}

func TestUnlockBurnsEscrowAndMintsNUT(t *testing.T) {
	l, _, _ := newTestLedger(t, nil)
	require.NoError(t, l.Mint(admin, EsNUT, unlocker, big.NewInt(50)))

	require.ErrorIs(t, l.Unlock(alice, unlocker, alice, big.NewInt(10)), access.ErrUnauthorized)
	require.NoError(t, l.Unlock(unlocker, unlocker, alice, big.NewInt(20)))
	require.ErrorIs(t, l.Unlock(unlocker, unlocker, alice, big.NewInt(31)), ErrInsufficientBalance)

	nut, err := l.BalanceOf(NUT, alice)
	require.NoError(t, err)
	require.Equal(t, int64(20), nut.Int64())
	es, err := l.TotalSupply(EsNUT)
	require.NoError(t, err)
	require.Equal(t, int64(30), es.Int64())
}

func TestPauseBlocksEveryMovement(t *testing.T) {
	l, _, _ := newTestLedger(t, nil)
	require.NoError(t, l.Mint(minter, NUT, alice, big.NewInt(10)))
	require.ErrorIs(t, l.Pause(alice), access.ErrUnauthorized)
	require.NoError(t, l.Pause(admin))

	require.ErrorIs(t, l.Transfer(NUT, alice, bob, big.NewInt(1)), ErrPaused)
	require.ErrorIs(t, l.Mint(minter, NUT, alice, big.NewInt(1)), ErrPaused)
	require.ErrorIs(t, l.Unlock(unlocker, unlocker, alice, big.NewInt(1)), ErrPaused)

	require.NoError(t, l.Unpause(admin))
	require.NoError(t, l.Transfer(NUT, alice, bob, big.NewInt(1)))
}

func TestTransferValidation(t *testing.T) {
	l, _, _ := newTestLedger(t, nil)
	require.ErrorIs(t, l.Transfer("DOGE", alice, bob, big.NewInt(1)), ErrUnknownToken)
	require.ErrorIs(t, l.Transfer(NUT, alice, bob, big.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, l.Transfer(NUT, alice, common.Address{}, big.NewInt(1)), ErrZeroAddress)
	require.ErrorIs(t, l.Transfer(NUT, alice, bob, big.NewInt(1)), ErrInsufficientBalance)
}
