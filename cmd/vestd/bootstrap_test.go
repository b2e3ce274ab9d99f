package main

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nutvest/config"
	"nutvest/core"
	"nutvest/native/merkle"
	"nutvest/storage"
	"nutvest/storage/proofs"
)

func TestBootstrapPublishesAndIndexes(t *testing.T) {
	admin := common.HexToAddress("0x00000000000000000000000000000000000000ad")
	alice := common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob := common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	incentives := []merkle.Incentive{
		{Key: alice.Hex(), Entry: merkle.Entry{Account: alice, Amount: big.NewInt(70)}},
		{Key: bob.Hex(), Entry: merkle.Entry{Account: bob, Amount: big.NewInt(30)}},
	}
	tree, err := merkle.Build(merkle.Entries(incentives))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, merkle.WriteProofDocuments(&buf, incentives, tree))
	path := filepath.Join(t.TempDir(), "week-1.proof.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	node, err := core.NewNode(storage.NewMemDB(), core.Genesis{Admin: admin, InitialEsNUT: big.NewInt(1_000)})
	require.NoError(t, err)
	index, err := proofs.Open(":memory:")
	require.NoError(t, err)
	defer index.Close()

	dists := []config.Distribution{{
		ID:            "week-1",
		Root:          tree.Root().Hex(),
		ArtifactsPath: path,
		Fund:          true,
	}}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	require.NoError(t, bootstrapDistributions(context.Background(), node, index, admin, dists, logger))

	dist, err := node.Distribution("week-1")
	require.NoError(t, err)
	require.Equal(t, "100", dist.Total.String())
	custody, err := node.BalanceOf("esNUT", dist.Custody)
	require.NoError(t, err)
	require.Equal(t, "100", custody.String())

	doc, err := index.Lookup(context.Background(), "week-1", bob)
	require.NoError(t, err)
	require.Equal(t, uint64(1), doc.Index)

	// A restart with the same configuration is a no-op.
	require.NoError(t, bootstrapDistributions(context.Background(), node, index, admin, dists, logger))
	custody, err = node.BalanceOf("esNUT", dist.Custody)
	require.NoError(t, err)
	require.Equal(t, "100", custody.String())

	dists[0].Root = common.HexToHash("0x01").Hex()
	dists[0].ArtifactsPath = ""
	require.ErrorContains(t, bootstrapDistributions(context.Background(), node, index, admin, dists, logger), "differs")
}

func TestGenesisFromConfig(t *testing.T) {
	cfg := &config.Config{
		AdminAddress: "0x00000000000000000000000000000000000000ad",
		Vesting:      config.Vesting{DurationSeconds: 100, MinPenaltyBps: 2500},
		Token:        config.Token{CapWei: "1000", InitialEsNUT: "10"},
	}
	genesis, err := genesisFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, genesis.Admin, genesis.FeeCollector)
	require.Equal(t, uint64(100), genesis.Vesting.Duration)
	require.Equal(t, "250000000000000000", genesis.Vesting.MinPenalty.String())
	require.Equal(t, "1000", genesis.Cap.String())
}
