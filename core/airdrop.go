package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/access"
	"nutvest/native/airdrop"
)

// PublishDistribution registers a Merkle root and authorises its custody
// account to move the locked token.
func (n *Node) PublishDistribution(operator common.Address, id, token string, root common.Hash, total *big.Int) (*airdrop.Distribution, error) {
	var published *airdrop.Distribution
	err := n.execute(airdrop.ModuleName, "publish", operator, func(tx *txContext) error {
		d, err := tx.airdrop.Publish(operator, id, token, root, total)
		if err != nil {
			return err
		}
		if err := tx.access.Bootstrap(d.Custody, access.Transfer); err != nil {
			return err
		}
		published = d
		return nil
	})
	return published, err
}

// FundDistribution moves amount of the distribution token from the funder
// into its custody account.
func (n *Node) FundDistribution(funder common.Address, id string, amount *big.Int) error {
	return n.execute(airdrop.ModuleName, "fund", funder, func(tx *txContext) error {
		d, err := tx.airdrop.Distribution(id)
		if err != nil {
			return err
		}
		return tx.ledger.Transfer(d.Token, funder, d.Custody, amount)
	})
}

// Claim settles one leaf of the distribution. Anyone may submit on behalf of
// the account; the payout always goes to the account.
func (n *Node) Claim(submitter common.Address, id string, index uint64, account common.Address, amount *big.Int, proof []common.Hash) error {
	var token string
	err := n.execute(airdrop.ModuleName, "claim", submitter, func(tx *txContext) error {
		d, err := tx.airdrop.Distributor(id)
		if err != nil {
			return err
		}
		token = d.Token()
		return d.Claim(index, account, amount, proof)
	})
	if err == nil {
		n.metrics.RecordClaim(id, token, amount)
	}
	return err
}

func (n *Node) IsClaimed(id string, index uint64) (bool, error) {
	var claimed bool
	err := n.view(func(tx *txContext) error {
		var err error
		claimed, err = tx.airdrop.IsClaimed(id, index)
		return err
	})
	return claimed, err
}

func (n *Node) Distribution(id string) (*airdrop.Distribution, error) {
	var d *airdrop.Distribution
	err := n.view(func(tx *txContext) error {
		var err error
		d, err = tx.airdrop.Distribution(id)
		return err
	})
	return d, err
}

func (n *Node) Distributions() ([]*airdrop.Distribution, error) {
	var out []*airdrop.Distribution
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.airdrop.Distributions()
		return err
	})
	return out, err
}
