package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate rejects malformed addresses, roots, amounts and zero durations.
func (c *Config) Validate() error {
	if c.Vesting.DurationSeconds == 0 {
		return fmt.Errorf("vesting: DurationSeconds must be positive")
	}
	if c.Vesting.MinPenaltyBps > 10_000 {
		return fmt.Errorf("vesting: MinPenaltyBps > 10000")
	}
	if _, err := ParseAddress("AdminAddress", c.AdminAddress); err != nil {
		return err
	}
	if strings.TrimSpace(c.FeeCollector) != "" {
		if _, err := ParseAddress("FeeCollector", c.FeeCollector); err != nil {
			return err
		}
	}
	if _, err := c.CapAmount(); err != nil {
		return err
	}
	if _, err := c.InitialEsNUTAmount(); err != nil {
		return err
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("ratelimit: Burst < 0")
	}
	seen := make(map[string]struct{}, len(c.Distributions))
	for i, dist := range c.Distributions {
		id := strings.TrimSpace(dist.ID)
		if id == "" {
			return fmt.Errorf("distributions[%d]: ID required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("distributions[%d]: duplicate ID %q", i, id)
		}
		seen[id] = struct{}{}
		if _, err := ParseRoot(fmt.Sprintf("distributions[%d].Root", i), dist.Root); err != nil {
			return err
		}
		if strings.TrimSpace(dist.Total) != "" {
			if _, err := parseAmount(fmt.Sprintf("distributions[%d].Total", i), dist.Total, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed 20 byte hex address.
func ParseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, value)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: zero address", field)
	}
	return addr, nil
}

// ParseRoot decodes a 32 byte hex Merkle root.
func ParseRoot(field, value string) (common.Hash, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(trimmed) != 64 {
		return common.Hash{}, fmt.Errorf("%s: root must be 32 bytes of hex", field)
	}
	raw := common.FromHex(trimmed)
	if len(raw) != 32 {
		return common.Hash{}, fmt.Errorf("%s: invalid hex root", field)
	}
	return common.BytesToHash(raw), nil
}

// Admin returns the parsed admin address.
func (c *Config) Admin() (common.Address, error) {
	return ParseAddress("AdminAddress", c.AdminAddress)
}

// FeeCollectorAddress returns the configured fee collector, falling back to the
// admin when unset.
func (c *Config) FeeCollectorAddress() (common.Address, error) {
	if strings.TrimSpace(c.FeeCollector) == "" {
		return c.Admin()
	}
	return ParseAddress("FeeCollector", c.FeeCollector)
}
