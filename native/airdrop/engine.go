package airdrop

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/events"
	"nutvest/native/access"
	nativecommon "nutvest/native/common"
	"nutvest/native/merkle"
	"nutvest/native/token"
)

// ModuleName prefixes the custody addresses of distributions.
const ModuleName = "airdrop"

// CustodyAddress derives the account funding a distribution.
func CustodyAddress(id string) common.Address {
	return nativecommon.ModuleAddress(ModuleName + "/" + id)
}

type State interface {
	Distribution(id string) (*Distribution, bool, error)
	PutDistribution(d *Distribution) error
	DistributionIDs() ([]string, error)
	IsClaimed(id string, index uint64) (bool, error)
	SetClaimed(id string, index uint64) error
}

// Ledger is the subset of the token service used to pay claims.
type Ledger interface {
	Transfer(token string, from, to common.Address, amount *big.Int) error
}

// Engine publishes distributions and settles claims against them.
type Engine struct {
	state   State
	ledger  Ledger
	auth    access.Authorizer
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state State) { e.state = state }

func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

func (e *Engine) SetAuthorizer(auth access.Authorizer) { e.auth = auth }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// Publish registers a new root. The operator must hold admin. The custody
// account must be funded separately before claims can settle.
func (e *Engine) Publish(operator common.Address, id, tokenSymbol string, root common.Hash, total *big.Int) (*Distribution, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := access.Require(e.auth, operator, access.Admin); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	symbol, err := token.Normalize(tokenSymbol)
	if err != nil {
		return nil, err
	}
	if root == (common.Hash{}) {
		return nil, ErrInvalidRoot
	}
	if _, exists, err := e.state.Distribution(id); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s", ErrDistributionExists, id)
	}
	d := &Distribution{
		ID:          id,
		Token:       symbol,
		Root:        root,
		Custody:     CustodyAddress(id),
		Total:       cloneBigInt(total),
		Claimed:     big.NewInt(0),
		PublishedAt: e.now(),
	}
	if err := e.state.PutDistribution(d); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AirdropPublished{Distribution: id, Token: symbol, Root: root, Custody: d.Custody})
	return d.Clone(), nil
}

// Distribution returns the published distribution.
func (e *Engine) Distribution(id string) (*Distribution, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	d, ok, err := e.state.Distribution(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDistribution, id)
	}
	return d.Clone(), nil
}

// Distributions lists every published distribution.
func (e *Engine) Distributions() ([]*Distribution, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	ids, err := e.state.DistributionIDs()
	if err != nil {
		return nil, err
	}
	out := make([]*Distribution, 0, len(ids))
	for _, id := range ids {
		d, err := e.Distribution(id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Distributor binds claim operations to a single published distribution.
func (e *Engine) Distributor(id string) (*Distributor, error) {
	d, err := e.Distribution(id)
	if err != nil {
		return nil, err
	}
	return &Distributor{engine: e, dist: d}, nil
}

// Claim settles a claim against the named distribution.
func (e *Engine) Claim(id string, index uint64, account common.Address, amount *big.Int, proof []common.Hash) error {
	dist, err := e.Distributor(id)
	if err != nil {
		return err
	}
	return dist.Claim(index, account, amount, proof)
}

// IsClaimed reports whether the index of the named distribution was claimed.
func (e *Engine) IsClaimed(id string, index uint64) (bool, error) {
	dist, err := e.Distributor(id)
	if err != nil {
		return false, err
	}
	return dist.IsClaimed(index)
}

// Distributor is the claim ledger of one root. Each index pays out at most
// once regardless of who submits it.
type Distributor struct {
	engine *Engine
	dist   *Distribution
}

func (d *Distributor) Root() common.Hash { return d.dist.Root }

func (d *Distributor) Token() string { return d.dist.Token }

func (d *Distributor) IsClaimed(index uint64) (bool, error) {
	return d.engine.state.IsClaimed(d.dist.ID, index)
}

// Claim verifies the proof, marks the index claimed and pays amount to
// account from the distribution custody.
func (d *Distributor) Claim(index uint64, account common.Address, amount *big.Int, proof []common.Hash) error {
	e := d.engine
	if e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	if account == (common.Address{}) {
		return ErrInvalidAccount
	}
	claimed, err := e.state.IsClaimed(d.dist.ID, index)
	if err != nil {
		return err
	}
	if claimed {
		return fmt.Errorf("%w: %s/%d", ErrAlreadyClaimed, d.dist.ID, index)
	}
	if !merkle.Verify(index, account, amount, proof, d.dist.Root) {
		return ErrInvalidProof
	}
	if err := e.state.SetClaimed(d.dist.ID, index); err != nil {
		return err
	}
	if nativecommon.IsPositive(amount) {
		if err := e.ledger.Transfer(d.dist.Token, d.dist.Custody, account, amount); err != nil {
			return err
		}
	}
	d.dist.Claimed = new(big.Int).Add(cloneBigInt(d.dist.Claimed), cloneBigInt(amount))
	d.dist.ClaimCount++
	if err := e.state.PutDistribution(d.dist); err != nil {
		return err
	}
	e.emitter.Emit(events.AirdropClaimed{
		Distribution: d.dist.ID,
		Index:        index,
		Account:      account,
		Token:        d.dist.Token,
		Amount:       cloneBigInt(amount),
	})
	return nil
}
