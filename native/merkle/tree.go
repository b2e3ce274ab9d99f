package merkle

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyTree       = errors.New("merkle: no entries")
	ErrIndexOutOfRange = errors.New("merkle: index out of range")
	ErrMalformedTree   = errors.New("merkle: malformed tree")
)

// Entry is one (address, amount) record; its index is its position.
type Entry struct {
	Account common.Address
	Amount  *big.Int
}

// Tree holds every level from leaves to root. Odd levels carry the trailing
// Placeholder so each node has a sibling.
type Tree struct {
	Levels [][]common.Hash
	count  int
}

// Build hashes the entries into a tree. A single entry yields a tree whose
// root is that leaf.
func Build(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTree
	}
	leaves := make([]common.Hash, len(entries))
	for i, entry := range entries {
		leaf, err := Leaf(uint64(i), entry.Account, entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		leaves[i] = leaf
	}
	return buildLevels(leaves), nil
}

func buildLevels(leaves []common.Hash) *Tree {
	tree := &Tree{Levels: [][]common.Hash{leaves}, count: len(leaves)}
	for len(tree.Levels[len(tree.Levels)-1]) != 1 {
		last := len(tree.Levels) - 1
		level := tree.Levels[last]
		if len(level)%2 == 1 {
			level = append(level, Placeholder)
			tree.Levels[last] = level
		}
		next := make([]common.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashPair(level[i], level[i+1]))
		}
		tree.Levels = append(tree.Levels, next)
	}
	return tree
}

// FromLevels restores a tree from its encoded levels.
func FromLevels(levels [][]common.Hash) (*Tree, error) {
	if len(levels) == 0 || len(levels[len(levels)-1]) != 1 {
		return nil, ErrMalformedTree
	}
	for i := 0; i+1 < len(levels); i++ {
		if len(levels[i])%2 != 0 || len(levels[i+1]) != len(levels[i])/2 {
			return nil, fmt.Errorf("%w: level %d", ErrMalformedTree, i)
		}
	}
	count := len(levels[0])
	if len(levels) > 1 && count > 0 && levels[0][count-1] == Placeholder {
		count--
	}
	return &Tree{Levels: levels, count: count}, nil
}

// Root returns the top hash.
func (t *Tree) Root() common.Hash {
	return t.Levels[len(t.Levels)-1][0]
}

// Len returns the number of real leaves.
func (t *Tree) Len() int { return t.count }

// Proof returns the sibling path for the leaf at index.
func (t *Tree) Proof(index int) ([]common.Hash, error) {
	if index < 0 || index >= t.count {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	proof := make([]common.Hash, 0, len(t.Levels)-1)
	pos := index
	for j := 0; j < len(t.Levels)-1; j++ {
		if pos%2 == 0 {
			proof = append(proof, t.Levels[j][pos+1])
		} else {
			proof = append(proof, t.Levels[j][pos-1])
		}
		pos /= 2
	}
	return proof, nil
}

// Proofs returns the proof of every real leaf, keyed by index.
func (t *Tree) Proofs() [][]common.Hash {
	out := make([][]common.Hash, t.count)
	for i := range out {
		out[i], _ = t.Proof(i)
	}
	return out
}

// Total sums the entry amounts.
func Total(entries []Entry) *big.Int {
	total := new(big.Int)
	for _, entry := range entries {
		if entry.Amount != nil {
			total.Add(total, entry.Amount)
		}
	}
	return total
}
