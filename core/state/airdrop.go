package state

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/airdrop"
)

type storedDistribution struct {
	ID          string
	Token       string
	Root        common.Hash
	Custody     common.Address
	Total       *big.Int
	Claimed     *big.Int
	ClaimCount  uint64
	PublishedAt uint64
}

func newStoredDistribution(d *airdrop.Distribution) *storedDistribution {
	return &storedDistribution{
		ID:          d.ID,
		Token:       d.Token,
		Root:        d.Root,
		Custody:     d.Custody,
		Total:       cloneAmount(d.Total),
		Claimed:     cloneAmount(d.Claimed),
		ClaimCount:  d.ClaimCount,
		PublishedAt: d.PublishedAt,
	}
}

func (s *storedDistribution) toDistribution() *airdrop.Distribution {
	return &airdrop.Distribution{
		ID:          s.ID,
		Token:       s.Token,
		Root:        s.Root,
		Custody:     s.Custody,
		Total:       cloneAmount(s.Total),
		Claimed:     cloneAmount(s.Claimed),
		ClaimCount:  s.ClaimCount,
		PublishedAt: s.PublishedAt,
	}
}

func distributionKey(id string) []byte {
	return composeKey(distributionPrefix, []byte(id))
}

// claimWordKey addresses the 256-bit word of the claim bitmap holding index.
func claimWordKey(id string, word uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], word)
	return composeKey(claimBitmapPrefix, []byte(id), buf[:])
}

func (m *Manager) Distribution(id string) (*airdrop.Distribution, bool, error) {
	var stored storedDistribution
	ok, err := m.load(distributionKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toDistribution(), true, nil
}

func (m *Manager) PutDistribution(d *airdrop.Distribution) error {
	if err := m.put(distributionKey(d.ID), newStoredDistribution(d)); err != nil {
		return err
	}
	return m.KVAppend(distributionIndexKey, d.ID)
}

// DistributionIDs lists published distributions in lexical order.
func (m *Manager) DistributionIDs() ([]string, error) {
	return m.KVGetList(distributionIndexKey)
}

func (m *Manager) claimWord(id string, word uint64) (*big.Int, error) {
	return m.loadAmount(claimWordKey(id, word))
}

// IsClaimed reports whether the bit for index is set in the claim bitmap.
func (m *Manager) IsClaimed(id string, index uint64) (bool, error) {
	word, err := m.claimWord(id, index/256)
	if err != nil {
		return false, err
	}
	return word.Bit(int(index%256)) == 1, nil
}

// SetClaimed sets the bit for index. Bits are never cleared.
func (m *Manager) SetClaimed(id string, index uint64) error {
	word, err := m.claimWord(id, index/256)
	if err != nil {
		return err
	}
	word.SetBit(word, int(index%256), 1)
	return m.put(claimWordKey(id, index/256), word)
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
