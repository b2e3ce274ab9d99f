package common

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ModuleAddress derives the deterministic custody address of a native module.
func ModuleAddress(name string) ethcommon.Address {
	return ethcommon.BytesToAddress(ethcrypto.Keccak256([]byte("module/" + name))[12:])
}

// CloneBigInt returns a copy of v, treating nil as zero.
func CloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// IsPositive reports whether v is strictly greater than zero.
func IsPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
