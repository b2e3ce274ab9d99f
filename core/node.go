package core

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/events"
	vstate "nutvest/core/state"
	"nutvest/native/access"
	"nutvest/native/airdrop"
	"nutvest/native/schedule"
	"nutvest/native/token"
	"nutvest/native/vesting"
	"nutvest/observability/metrics"
	"nutvest/storage"
)

// Genesis seeds capabilities, token flags and vesting parameters the first
// time a node opens an empty database.
type Genesis struct {
	Admin common.Address
	// FeeCollector receives early withdrawal penalties. Zero selects Admin.
	FeeCollector common.Address
	Vesting      vesting.Params
	// Cap bounds NUT and the combined esNUT+NUT supply. Nil selects token.DefaultCap.
	Cap *big.Int
	// InitialEsNUT is minted to Admin when positive.
	InitialEsNUT    *big.Int
	UnlockTransfers bool
}

// Node serialises every state transition. Each operation runs against a write
// overlay that is committed only when the engines succeed, and events reach
// the emitter only after commit.
type Node struct {
	db      storage.Database
	genesis Genesis
	params  vesting.Params
	cap     *big.Int

	stateMu sync.Mutex
	emitter events.Emitter
	nowFn   func() int64
	logger  *slog.Logger
	metrics *metrics.VestingMetrics
}

func NewNode(db storage.Database, genesis Genesis) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database required")
	}
	if genesis.Admin == (common.Address{}) {
		return nil, fmt.Errorf("node: admin address required")
	}
	params := genesis.Vesting
	if params.Duration == 0 && params.MinPenalty == nil {
		params = vesting.DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	supplyCap := token.DefaultCap
	if genesis.Cap != nil && genesis.Cap.Sign() > 0 {
		supplyCap = genesis.Cap
	}
	n := &Node{
		db:      db,
		genesis: genesis,
		params:  params,
		cap:     new(big.Int).Set(supplyCap),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		logger:  slog.Default(),
		metrics: metrics.Vesting(),
	}
	if err := n.applyGenesis(); err != nil {
		return nil, fmt.Errorf("node: genesis: %w", err)
	}
	return n, nil
}

// SetEmitter installs the subscriber of committed events.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// SetNowFunc overrides the clock used by every engine.
func (n *Node) SetNowFunc(now func() int64) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if now == nil {
		n.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	n.nowFn = now
}

func (n *Node) SetLogger(logger *slog.Logger) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// Now returns the node clock in unix seconds.
func (n *Node) Now() int64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.nowFn()
}

// VestingParams returns the parameters of the linear engine.
func (n *Node) VestingParams() vesting.Params {
	return vesting.Params{Duration: n.params.Duration, MinPenalty: new(big.Int).Set(n.params.MinPenalty)}
}

// txContext binds fresh engines to one overlay.
type txContext struct {
	manager  *vstate.Manager
	recorder *events.Recorder
	access   *access.Registry
	ledger   *token.Ledger
	airdrop  *airdrop.Engine
	vesting  *vesting.Engine
	schedule *schedule.Engine
}

func (n *Node) newTx(db storage.Database) (*txContext, error) {
	manager := vstate.NewManager(db)
	recorder := &events.Recorder{}

	registry := access.NewRegistry(manager)
	registry.SetEmitter(recorder)

	ledger := token.NewLedger(manager, registry, n.cap)
	ledger.SetEmitter(recorder)

	linear, err := vesting.NewEngine(n.params)
	if err != nil {
		return nil, err
	}
	linear.SetState(manager)
	linear.SetLedger(ledger)
	linear.SetAuthorizer(registry)
	linear.SetEmitter(recorder)
	linear.SetNowFunc(n.nowFn)

	milestones := schedule.NewEngine()
	milestones.SetState(manager)
	milestones.SetLocks(manager)
	milestones.SetLedger(ledger)
	milestones.SetAuthorizer(registry)
	milestones.SetEmitter(recorder)
	milestones.SetNowFunc(n.nowFn)
	linear.SetLockBacking(milestones)

	drops := airdrop.NewEngine()
	drops.SetState(manager)
	drops.SetLedger(ledger)
	drops.SetAuthorizer(registry)
	drops.SetEmitter(recorder)
	drops.SetNowFunc(n.nowFn)

	return &txContext{
		manager:  manager,
		recorder: recorder,
		access:   registry,
		ledger:   ledger,
		airdrop:  drops,
		vesting:  linear,
		schedule: milestones,
	}, nil
}

// execute runs fn as one transaction. A failing fn or commit leaves the
// database untouched and drops the buffered events.
func (n *Node) execute(module, operation string, principal common.Address, fn func(tx *txContext) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	started := time.Now()
	overlay := storage.NewOverlay(n.db)
	tx, err := n.newTx(overlay)
	if err == nil {
		err = fn(tx)
	}
	if err == nil {
		err = overlay.Commit()
	}
	n.metrics.ObserveOperation(module, operation, err, time.Since(started))
	if err != nil {
		overlay.Discard()
		n.logger.Warn("transaction rejected",
			slog.String("module", module),
			slog.String("operation", operation),
			slog.String("principal", principal.Hex()),
			slog.Any("error", err))
		return err
	}

	committed := tx.recorder.Events()
	tx.recorder.FlushTo(n.emitter)
	n.logger.Debug("transaction committed",
		slog.String("module", module),
		slog.String("operation", operation),
		slog.String("principal", principal.Hex()),
		slog.Int("events", len(committed)))
	n.reportCustody()
	return nil
}

// view runs fn against a discarded overlay so reads can reuse the engines.
func (n *Node) view(fn func(tx *txContext) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	overlay := storage.NewOverlay(n.db)
	defer overlay.Discard()
	tx, err := n.newTx(overlay)
	if err != nil {
		return err
	}
	return fn(tx)
}

// reportCustody refreshes the custody gauges. Callers hold stateMu.
func (n *Node) reportCustody() {
	manager := vstate.NewManager(n.db)
	custody := map[string]common.Address{
		vesting.ModuleName:  vesting.ModuleAddress,
		schedule.ModuleName: schedule.ModuleAddress,
	}
	for name, addr := range custody {
		balance, err := manager.Balance(token.EsNUT, addr)
		if err != nil {
			continue
		}
		n.metrics.SetCustody(name, balance)
	}
}
