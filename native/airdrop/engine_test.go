package airdrop

import (
	"errors"
	"math/big"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nutvest/core/events"
	"nutvest/native/access"
	"nutvest/native/merkle"
	"nutvest/native/token"
)

type mockState struct {
	dists   map[string]*Distribution
	claimed map[string]map[uint64]bool
}

func newMockState() *mockState {
	return &mockState{dists: make(map[string]*Distribution), claimed: make(map[string]map[uint64]bool)}
}

func (m *mockState) Distribution(id string) (*Distribution, bool, error) {
	d, ok := m.dists[id]
	if !ok {
		return nil, false, nil
	}
	return d.Clone(), true, nil
}

func (m *mockState) PutDistribution(d *Distribution) error {
	m.dists[d.ID] = d.Clone()
	return nil
}

func (m *mockState) DistributionIDs() ([]string, error) {
	ids := make([]string, 0, len(m.dists))
	for id := range m.dists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockState) IsClaimed(id string, index uint64) (bool, error) {
	return m.claimed[id][index], nil
}

func (m *mockState) SetClaimed(id string, index uint64) error {
	if m.claimed[id] == nil {
		m.claimed[id] = make(map[uint64]bool)
	}
	m.claimed[id][index] = true
	return nil
}

type mockLedger struct {
	balances map[common.Address]*big.Int
}

func (l *mockLedger) Transfer(_ string, from, to common.Address, amount *big.Int) error {
	bal := l.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return token.ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	if l.balances[to] == nil {
		l.balances[to] = big.NewInt(0)
	}
	l.balances[to].Add(l.balances[to], amount)
	return nil
}

type allowAdmin common.Address

func (a allowAdmin) HasCapability(principal common.Address, capability access.Capability) (bool, error) {
	return principal == common.Address(a) && capability == access.Admin, nil
}

var admin = common.HexToAddress("0xad")

func setup(t *testing.T, n int) (*Engine, *mockLedger, *events.Recorder, []merkle.Entry, *merkle.Tree) {
	t.Helper()
	entries := make([]merkle.Entry, n)
	total := big.NewInt(0)
	for i := range entries {
		entries[i] = merkle.Entry{
			Account: common.BigToAddress(big.NewInt(int64(0xbeef + i))),
			Amount:  big.NewInt(int64(100 * (i + 1))),
		}
		total.Add(total, entries[i].Amount)
	}
	tree, err := merkle.Build(entries)
	require.NoError(t, err)

	ledger := &mockLedger{balances: map[common.Address]*big.Int{CustodyAddress("week-1"): new(big.Int).Set(total)}}
	rec := &events.Recorder{}
	engine := NewEngine()
	engine.SetState(newMockState())
	engine.SetLedger(ledger)
	engine.SetAuthorizer(allowAdmin(admin))
	engine.SetEmitter(rec)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })

	_, err = engine.Publish(admin, "week-1", "esNUT", tree.Root(), total)
	require.NoError(t, err)
	return engine, ledger, rec, entries, tree
}

func TestClaimExactlyOnce(t *testing.T) {
	engine, ledger, rec, entries, tree := setup(t, 5)

	for i, entry := range entries {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		require.NoError(t, engine.Claim("week-1", uint64(i), entry.Account, entry.Amount, proof))
		require.Equal(t, entry.Amount.Int64(), ledger.balances[entry.Account].Int64())

		err = engine.Claim("week-1", uint64(i), entry.Account, entry.Amount, proof)
		require.ErrorIs(t, err, ErrAlreadyClaimed)

		claimed, err := engine.IsClaimed("week-1", uint64(i))
		require.NoError(t, err)
		require.True(t, claimed)
	}

	d, err := engine.Distribution("week-1")
	require.NoError(t, err)
	require.Equal(t, uint64(5), d.ClaimCount)
	require.Zero(t, d.Remaining().Sign())
	require.Zero(t, ledger.balances[CustodyAddress("week-1")].Sign())

	var claims int
	for _, evt := range rec.Events() {
		if evt.EventType() == events.TypeAirdropClaimed {
			claims++
		}
	}
	require.Equal(t, 5, claims)
}

func TestAlreadyClaimedTakesPrecedenceOverProof(t *testing.T) {
	engine, _, _, entries, tree := setup(t, 3)
	proof, err := tree.Proof(1)
	require.NoError(t, err)
	require.NoError(t, engine.Claim("week-1", 1, entries[1].Account, entries[1].Amount, proof))

	err = engine.Claim("week-1", 1, entries[0].Account, big.NewInt(1), nil)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestInvalidProofs(t *testing.T) {
	engine, _, _, entries, tree := setup(t, 4)
	proof, err := tree.Proof(2)
	require.NoError(t, err)

	require.ErrorIs(t, engine.Claim("week-1", 3, entries[2].Account, entries[2].Amount, proof), ErrInvalidProof)
	require.ErrorIs(t, engine.Claim("week-1", 2, entries[2].Account, big.NewInt(999), proof), ErrInvalidProof)
	require.ErrorIs(t, engine.Claim("week-1", 2, entries[1].Account, entries[2].Amount, proof), ErrInvalidProof)

	claimed, err := engine.IsClaimed("week-1", 2)
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestPublishValidation(t *testing.T) {
	engine, _, _, _, tree := setup(t, 2)
	root := tree.Root()

	_, err := engine.Publish(common.HexToAddress("0x01"), "week-2", "NUT", root, nil)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	_, err = engine.Publish(admin, "week-1", "NUT", root, nil)
	require.ErrorIs(t, err, ErrDistributionExists)
	_, err = engine.Publish(admin, "Week 2", "NUT", root, nil)
	require.ErrorIs(t, err, ErrInvalidDistributionID)
	_, err = engine.Publish(admin, "week-2", "DOGE", root, nil)
	require.ErrorIs(t, err, token.ErrUnknownToken)
	_, err = engine.Publish(admin, "week-2", "NUT", common.Hash{}, nil)
	require.ErrorIs(t, err, ErrInvalidRoot)

	_, err = engine.Distribution("week-9")
	require.ErrorIs(t, err, ErrUnknownDistribution)

	d, err := engine.Publish(admin, "week-2", "NUT", root, big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, CustodyAddress("week-2"), d.Custody)
	require.Equal(t, uint64(1_700_000_000), d.PublishedAt)

	all, err := engine.Distributions()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestUnderfundedCustodySurfacesLedgerError(t *testing.T) {
	engine, ledger, _, entries, tree := setup(t, 2)
	ledger.balances[CustodyAddress("week-1")] = big.NewInt(1)
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	err = engine.Claim("week-1", 0, entries[0].Account, entries[0].Amount, proof)
	require.True(t, errors.Is(err, token.ErrInsufficientBalance))
}

func TestClaimWithoutLedgerLeavesIndexUnclaimed(t *testing.T) {
	engine, _, rec, entries, tree := setup(t, 2)
	engine.SetLedger(nil)
	published := len(rec.Events())

	proof, err := tree.Proof(1)
	require.NoError(t, err)
	err = engine.Claim("week-1", 1, entries[1].Account, entries[1].Amount, proof)
	require.ErrorIs(t, err, ErrNilLedger)

	claimed, err := engine.IsClaimed("week-1", 1)
	require.NoError(t, err)
	require.False(t, claimed)
	require.Len(t, rec.Events(), published)
}
