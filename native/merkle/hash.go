package merkle

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	ErrAmountOverflow = errors.New("merkle: amount does not fit in uint256")
	ErrNegativeAmount = errors.New("merkle: amount must not be negative")
)

// Placeholder pads odd levels. It is the leaf of (2^256-1, zero address, 0)
// and can never collide with a real leaf index.
var Placeholder = PackedLeaf(new(uint256.Int).SetAllOne(), common.Address{}, new(uint256.Int))

// PackedLeaf hashes abi.encodePacked(uint256 index, address account,
// uint256 amount).
func PackedLeaf(index *uint256.Int, account common.Address, amount *uint256.Int) common.Hash {
	var buf [32 + common.AddressLength + 32]byte
	index.WriteToSlice(buf[:32])
	copy(buf[32:32+common.AddressLength], account.Bytes())
	amount.WriteToSlice(buf[32+common.AddressLength:])
	return crypto.Keccak256Hash(buf[:])
}

// Leaf returns the leaf hash for a distribution entry.
func Leaf(index uint64, account common.Address, amount *big.Int) (common.Hash, error) {
	packed, err := toUint256(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return PackedLeaf(uint256.NewInt(index), account, packed), nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return out, nil
}

// HashPair hashes the two nodes in ascending order so proofs carry no
// left/right markers.
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Fold applies the proof to the leaf and returns the computed root.
func Fold(leaf common.Hash, proof []common.Hash) common.Hash {
	computed := leaf
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
	}
	return computed
}

// Verify reports whether (index, account, amount) is committed to by root.
// Amounts that cannot be packed never verify.
func Verify(index uint64, account common.Address, amount *big.Int, proof []common.Hash, root common.Hash) bool {
	leaf, err := Leaf(index, account, amount)
	if err != nil {
		return false
	}
	return Fold(leaf, proof) == root
}
