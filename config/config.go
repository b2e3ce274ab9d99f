package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDurationSeconds = uint64(90 * 24 * 60 * 60)
	DefaultMinPenaltyBps   = uint64(2500)
	DefaultCapWei          = "10000000000000000000000000000"
	DefaultClaimsPerMinute = 30
	DefaultBurst           = 10
)

// Config is the vestd node configuration.
type Config struct {
	ListenAddress  string   `toml:"ListenAddress"`
	DataDir        string   `toml:"DataDir"`
	Environment    string   `toml:"Environment"`
	LogFile        string   `toml:"LogFile"`
	LogLevel       string   `toml:"LogLevel"`
	AdminAddress   string   `toml:"AdminAddress"`
	FeeCollector   string   `toml:"FeeCollector"`
	ProofIndexPath string   `toml:"ProofIndexPath"`
	AllowedOrigins []string `toml:"AllowedOrigins"`

	Vesting       Vesting        `toml:"Vesting"`
	Token         Token          `toml:"Token"`
	Auth          Auth           `toml:"Auth"`
	RateLimit     RateLimit      `toml:"RateLimit"`
	Telemetry     Telemetry      `toml:"Telemetry"`
	Distributions []Distribution `toml:"Distributions"`
}

// Load reads the TOML file at path, writing a default configuration first
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./nutvest-data"
	}
	if strings.TrimSpace(c.ProofIndexPath) == "" {
		c.ProofIndexPath = filepath.Join(c.DataDir, "proofs.db")
	}
	if c.Vesting.DurationSeconds == 0 {
		c.Vesting.DurationSeconds = DefaultDurationSeconds
	}
	if strings.TrimSpace(c.Token.CapWei) == "" {
		c.Token.CapWei = DefaultCapWei
	}
	if c.RateLimit.ClaimsPerMinute <= 0 {
		c.RateLimit.ClaimsPerMinute = DefaultClaimsPerMinute
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = DefaultBurst
	}
	if c.Distributions == nil {
		c.Distributions = []Distribution{}
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8545",
		DataDir:       "./nutvest-data",
		Environment:   "local",
		LogLevel:      "info",
		AdminAddress:  "0x000000000000000000000000000000000000dEaD",
		Vesting: Vesting{
			DurationSeconds: DefaultDurationSeconds,
			MinPenaltyBps:   DefaultMinPenaltyBps,
		},
		Token: Token{CapWei: DefaultCapWei},
		Auth: Auth{
			Issuer:   "nutvest",
			Audience: "vestd",
		},
		RateLimit: RateLimit{
			ClaimsPerMinute: DefaultClaimsPerMinute,
			Burst:           DefaultBurst,
		},
		Distributions: []Distribution{},
	}
	cfg.ProofIndexPath = filepath.Join(cfg.DataDir, "proofs.db")

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// CapAmount parses Token.CapWei.
func (c *Config) CapAmount() (*big.Int, error) {
	return parseAmount("Token.CapWei", c.Token.CapWei, false)
}

// InitialEsNUTAmount parses Token.InitialEsNUT, returning zero when unset.
func (c *Config) InitialEsNUTAmount() (*big.Int, error) {
	if strings.TrimSpace(c.Token.InitialEsNUT) == "" {
		return new(big.Int), nil
	}
	return parseAmount("Token.InitialEsNUT", c.Token.InitialEsNUT, true)
}

func parseAmount(field, value string, allowZero bool) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid integer %q", field, value)
	}
	if amount.Sign() < 0 || (!allowZero && amount.Sign() == 0) {
		return nil, fmt.Errorf("%s: must be positive", field)
	}
	return amount, nil
}
