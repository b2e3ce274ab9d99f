package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nutvest/native/airdrop"
	"nutvest/native/schedule"
	"nutvest/native/vesting"
	"nutvest/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db)
}

func TestBalancesAndSupplyDefaultToZero(t *testing.T) {
	mgr := newTestManager(t)
	addr := common.HexToAddress("0x01")

	bal, err := mgr.Balance("esNUT", addr)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())

	require.NoError(t, mgr.SetBalance("esNUT", addr, big.NewInt(42)))
	bal, err = mgr.Balance("esNUT", addr)
	require.NoError(t, err)
	require.Equal(t, int64(42), bal.Int64())

	other, err := mgr.Balance("NUT", addr)
	require.NoError(t, err)
	require.Zero(t, other.Sign())

	require.NoError(t, mgr.SetBalance("esNUT", addr, big.NewInt(0)))
	bal, err = mgr.Balance("esNUT", addr)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())

	require.ErrorIs(t, mgr.SetSupply("NUT", big.NewInt(-1)), errNegativeAmount)
}

func TestTokenFlagsAreIndependent(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.SetTokenPaused("NUT", true))
	require.NoError(t, mgr.SetTokenLocked("NUT", true))
	require.NoError(t, mgr.SetTokenPaused("NUT", false))

	paused, err := mgr.TokenPaused("NUT")
	require.NoError(t, err)
	require.False(t, paused)
	locked, err := mgr.TokenLocked("NUT")
	require.NoError(t, err)
	require.True(t, locked)
}

func TestCapabilities(t *testing.T) {
	mgr := newTestManager(t)
	addr := common.HexToAddress("0x02")
	require.NoError(t, mgr.SetCapability("admin", addr, true))
	ok, err := mgr.HasCapability("admin", addr)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mgr.HasCapability("minter", addr)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.SetCapability("admin", addr, false))
	ok, err = mgr.HasCapability("admin", addr)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClaimBitmapSpansWords(t *testing.T) {
	mgr := newTestManager(t)
	for _, idx := range []uint64{0, 255, 256, 1 << 40} {
		claimed, err := mgr.IsClaimed("week-1", idx)
		require.NoError(t, err)
		require.False(t, claimed)
		require.NoError(t, mgr.SetClaimed("week-1", idx))
	}
	for _, idx := range []uint64{0, 255, 256, 1 << 40} {
		claimed, err := mgr.IsClaimed("week-1", idx)
		require.NoError(t, err)
		require.True(t, claimed)
	}
	claimed, err := mgr.IsClaimed("week-1", 1)
	require.NoError(t, err)
	require.False(t, claimed)
	claimed, err = mgr.IsClaimed("week-2", 0)
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestDistributionIndex(t *testing.T) {
	mgr := newTestManager(t)
	for _, id := range []string{"week-2", "week-1", "week-2"} {
		require.NoError(t, mgr.PutDistribution(&airdrop.Distribution{
			ID:    id,
			Token: "esNUT",
			Root:  common.HexToHash("0xabc"),
			Total: big.NewInt(100),
		}))
	}
	ids, err := mgr.DistributionIDs()
	require.NoError(t, err)
	require.Equal(t, []string{"week-1", "week-2"}, ids)

	d, ok, err := mgr.Distribution("week-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0xabc"), d.Root)
	require.Zero(t, d.Claimed.Sign())

	_, ok, err = mgr.Distribution("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVestingRecords(t *testing.T) {
	mgr := newTestManager(t)
	addr := common.HexToAddress("0x03")

	_, ok, err := mgr.VestingSchedule(addr)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.PutVestingSchedule(&vesting.Schedule{Account: addr, Start: 10, Total: big.NewInt(90), Claimed: big.NewInt(30)}))
	s, ok, err := mgr.VestingSchedule(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(10), s.Start)
	require.Equal(t, int64(30), s.Claimed.Int64())
	require.NoError(t, mgr.DeleteVestingSchedule(addr))
	_, ok, err = mgr.VestingSchedule(addr)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.PutLockSchedule(&vesting.Lock{Account: addr, UnlockAt: 99, Amount: big.NewInt(5), AdminSet: true}))
	l, ok, err := mgr.LockSchedule(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, l.AdminSet)
	require.Equal(t, uint64(99), l.UnlockAt)

	_, ok, err = mgr.FeeCollector()
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mgr.SetFeeCollector(addr))
	got, ok, err := mgr.FeeCollector()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, addr, got)
}

func TestMilestoneRecords(t *testing.T) {
	mgr := newTestManager(t)
	addr := common.HexToAddress("0x04")
	in := &schedule.Schedule{
		Account: addr,
		Tranches: []schedule.Tranche{
			{Timestamp: 100, Amount: big.NewInt(1)},
			{Timestamp: 200, Amount: big.NewInt(2)},
		},
		Cursor: 1,
	}
	require.NoError(t, mgr.PutMilestoneSchedule(in))
	out, ok, err := mgr.MilestoneSchedule(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, out.Cursor)
	require.Len(t, out.Tranches, 2)
	require.Equal(t, int64(2), out.Unreleased().Int64())

	require.NoError(t, mgr.DeleteMilestoneSchedule(addr))
	_, ok, err = mgr.MilestoneSchedule(addr)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVHelpers(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.KVGet(nil, nil)
	require.Error(t, err)

	require.NoError(t, mgr.KVPut([]byte("params/duration"), uint64(7776000)))
	var duration uint64
	ok, err := mgr.KVGet([]byte("params/duration"), &duration)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7776000), duration)

	ok, err = mgr.KVGet([]byte("params/missing"), nil)
	require.NoError(t, err)
	require.False(t, ok)
}
