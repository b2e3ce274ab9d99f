package airdrop

import (
	"errors"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAlreadyClaimed        = errors.New("airdrop: drop already claimed")
	ErrInvalidProof          = errors.New("airdrop: invalid proof")
	ErrUnknownDistribution   = errors.New("airdrop: unknown distribution")
	ErrDistributionExists    = errors.New("airdrop: distribution already exists")
	ErrInvalidDistributionID = errors.New("airdrop: invalid distribution id")
	ErrInvalidRoot           = errors.New("airdrop: root must not be zero")
	ErrInvalidAccount        = errors.New("airdrop: account must not be the zero address")
	ErrNilState              = errors.New("airdrop: state not configured")
	ErrNilLedger             = errors.New("airdrop: ledger not configured")
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// ValidateID checks a distribution identifier.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return ErrInvalidDistributionID
	}
	return nil
}

// Distribution is one published Merkle root and the custody holding its
// funds. The root never changes after publication.
type Distribution struct {
	ID          string
	Token       string
	Root        common.Hash
	Custody     common.Address
	Total       *big.Int
	Claimed     *big.Int
	ClaimCount  uint64
	PublishedAt uint64
}

// Clone returns a deep copy of the distribution.
func (d *Distribution) Clone() *Distribution {
	if d == nil {
		return nil
	}
	out := *d
	out.Total = cloneBigInt(d.Total)
	out.Claimed = cloneBigInt(d.Claimed)
	return &out
}

// Remaining returns the amount not yet claimed.
func (d *Distribution) Remaining() *big.Int {
	remaining := new(big.Int).Sub(cloneBigInt(d.Total), cloneBigInt(d.Claimed))
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
