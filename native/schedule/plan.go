package schedule

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Plan is an operator-authored schedule for one account.
type Plan struct {
	Account  common.Address
	Tranches []Tranche
}

// planFile mirrors the YAML representation of a plan document.
type planFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Account  string         `yaml:"account"`
	Tranches []trancheEntry `yaml:"tranches"`
}

type trancheEntry struct {
	Timestamp uint64 `yaml:"timestamp"`
	At        string `yaml:"at"`
	Amount    string `yaml:"amount"`
}

// LoadPlanFile reads plans from the YAML file on disk.
func LoadPlanFile(path string) ([]Plan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer file.Close()
	return LoadPlan(file)
}

// LoadPlan decodes and validates a plan document. Tranche times are given
// either as unix seconds (timestamp) or RFC 3339 (at).
func LoadPlan(r io.Reader) ([]Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc planFile
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	plans := make([]Plan, 0, len(doc.Plans))
	seen := make(map[common.Address]struct{})
	for i, entry := range doc.Plans {
		account := strings.TrimSpace(entry.Account)
		if !common.IsHexAddress(account) {
			return nil, fmt.Errorf("plan %d: invalid account %q", i, entry.Account)
		}
		addr := common.HexToAddress(account)
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("plan %d: duplicate account %s", i, addr.Hex())
		}
		seen[addr] = struct{}{}
		tranches := make([]Tranche, 0, len(entry.Tranches))
		for j, t := range entry.Tranches {
			tranche, err := t.resolve()
			if err != nil {
				return nil, fmt.Errorf("plan %s tranche %d: %w", addr.Hex(), j, err)
			}
			tranches = append(tranches, tranche)
		}
		if err := Validate(tranches); err != nil {
			return nil, fmt.Errorf("plan %s: %w", addr.Hex(), err)
		}
		plans = append(plans, Plan{Account: addr, Tranches: tranches})
	}
	return plans, nil
}

func (t trancheEntry) resolve() (Tranche, error) {
	ts := t.Timestamp
	if at := strings.TrimSpace(t.At); at != "" {
		if ts != 0 {
			return Tranche{}, fmt.Errorf("set either timestamp or at")
		}
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return Tranche{}, fmt.Errorf("at: %w", err)
		}
		if parsed.Unix() <= 0 {
			return Tranche{}, fmt.Errorf("at must be after the unix epoch")
		}
		ts = uint64(parsed.Unix())
	}
	if ts == 0 {
		return Tranche{}, fmt.Errorf("timestamp required")
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(t.Amount), 10)
	if !ok {
		return Tranche{}, fmt.Errorf("invalid integer amount %q", t.Amount)
	}
	return Tranche{Timestamp: ts, Amount: amount}, nil
}

// Total sums the plan's tranches.
func (p Plan) Total() *big.Int {
	return sumTranches(p.Tranches)
}

// FinalTimestamp returns the last tranche time, which the companion lock
// must end at.
func (p Plan) FinalTimestamp() uint64 {
	if len(p.Tranches) == 0 {
		return 0
	}
	return p.Tranches[len(p.Tranches)-1].Timestamp
}
