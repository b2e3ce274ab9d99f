package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/config"
	"nutvest/core"
	"nutvest/native/airdrop"
	"nutvest/native/merkle"
	"nutvest/native/token"
	"nutvest/native/vesting"
	"nutvest/storage/proofs"
)

func genesisFromConfig(cfg *config.Config) (core.Genesis, error) {
	admin, err := cfg.Admin()
	if err != nil {
		return core.Genesis{}, err
	}
	collector, err := cfg.FeeCollectorAddress()
	if err != nil {
		return core.Genesis{}, err
	}
	supplyCap, err := cfg.CapAmount()
	if err != nil {
		return core.Genesis{}, err
	}
	initial, err := cfg.InitialEsNUTAmount()
	if err != nil {
		return core.Genesis{}, err
	}
	return core.Genesis{
		Admin:        admin,
		FeeCollector: collector,
		Vesting: vesting.Params{
			Duration:   cfg.Vesting.DurationSeconds,
			MinPenalty: vesting.MinPenaltyFromBps(cfg.Vesting.MinPenaltyBps),
		},
		Cap:             supplyCap,
		InitialEsNUT:    initial,
		UnlockTransfers: cfg.Token.UnlockTransfers,
	}, nil
}

// bootstrapDistributions indexes the configured proof documents and publishes
// roots the node has not seen yet.
func bootstrapDistributions(ctx context.Context, node *core.Node, index *proofs.Store, admin common.Address, dists []config.Distribution, logger *slog.Logger) error {
	for _, dist := range dists {
		root, err := config.ParseRoot("Root", dist.Root)
		if err != nil {
			return err
		}
		var docs map[string]merkle.ProofDocument
		if path := strings.TrimSpace(dist.ArtifactsPath); path != "" {
			if docs, err = readDocuments(path); err != nil {
				return fmt.Errorf("distribution %s: %w", dist.ID, err)
			}
			count, err := index.Import(ctx, dist.ID, root, docs)
			if err != nil {
				return fmt.Errorf("distribution %s: %w", dist.ID, err)
			}
			logger.Info("proofs indexed", slog.String("distribution", dist.ID), slog.Int("count", count))
		}

		total, err := distributionTotal(dist, docs)
		if err != nil {
			return fmt.Errorf("distribution %s: %w", dist.ID, err)
		}
		existing, err := node.Distribution(dist.ID)
		switch {
		case err == nil:
			if existing.Root != root {
				return fmt.Errorf("distribution %s: configured root %s differs from published %s", dist.ID, root.Hex(), existing.Root.Hex())
			}
			continue
		case !errors.Is(err, airdrop.ErrUnknownDistribution):
			return err
		}
		tokenSymbol := dist.Token
		if strings.TrimSpace(tokenSymbol) == "" {
			tokenSymbol = token.EsNUT
		}
		if _, err := node.PublishDistribution(admin, dist.ID, tokenSymbol, root, total); err != nil {
			return fmt.Errorf("publish %s: %w", dist.ID, err)
		}
		if dist.Fund && total.Sign() > 0 {
			if err := node.FundDistribution(admin, dist.ID, total); err != nil {
				return fmt.Errorf("fund %s: %w", dist.ID, err)
			}
		}
		logger.Info("distribution published",
			slog.String("distribution", dist.ID),
			slog.String("root", root.Hex()),
			slog.String("total", total.String()))
	}
	return nil
}

func readDocuments(path string) (map[string]merkle.ProofDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return merkle.ReadProofDocuments(f)
}

func distributionTotal(dist config.Distribution, docs map[string]merkle.ProofDocument) (*big.Int, error) {
	if raw := strings.TrimSpace(dist.Total); raw != "" {
		total, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid Total %q", dist.Total)
		}
		return total, nil
	}
	total := new(big.Int)
	for key, doc := range docs {
		amount, ok := new(big.Int).SetString(strings.TrimSpace(doc.WeekIncentive), 10)
		if !ok {
			return nil, fmt.Errorf("%s: invalid amount %q", key, doc.WeekIncentive)
		}
		total.Add(total, amount)
	}
	return total, nil
}
