package routes

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nutvest/core"
	"nutvest/core/types"
	"nutvest/gateway/middleware"
	"nutvest/native/airdrop"
	"nutvest/native/merkle"
	"nutvest/native/schedule"
	"nutvest/native/vesting"
)

// Backend is the node surface the API exposes.
type Backend interface {
	Distribution(id string) (*airdrop.Distribution, error)
	Distributions() ([]*airdrop.Distribution, error)
	IsClaimed(id string, index uint64) (bool, error)
	Claim(submitter common.Address, id string, index uint64, account common.Address, amount *big.Int, proof []common.Hash) error
	Account(addr common.Address) (*core.AccountView, error)

	StartVesting(holder common.Address, amount *big.Int) (*vesting.Schedule, error)
	ClaimVestedTokens(holder common.Address) (*big.Int, error)
	EarlyWithdraw(holder common.Address) (*vesting.EarlyWithdrawal, error)
	CancelVesting(holder common.Address) (*vesting.Cancellation, error)
	Lock(holder common.Address, duration uint64, amount *big.Int) (*vesting.Lock, error)
	OverrideLockEndTime(operator, account common.Address, timestamp uint64, amount *big.Int) (*vesting.Lock, error)
	SetFeeCollector(operator, collector common.Address) error

	SetSchedule(operator, account common.Address, tranches []schedule.Tranche) (*schedule.Schedule, error)
	CancelSchedule(operator, account common.Address) (*big.Int, error)
	VestTokens(caller, account common.Address) (*big.Int, error)
}

// ProofIndex serves published proof documents.
type ProofIndex interface {
	Lookup(ctx context.Context, distribution string, account common.Address) (*merkle.ProofDocument, error)
}

// EventFeed exposes recently committed events and a live subscription.
type EventFeed interface {
	Recent(n int) []types.Event
	Subscribe(ctx context.Context, backlog int) (<-chan types.Event, func(), []types.Event)
}

type Config struct {
	Backend       Backend
	Proofs        ProofIndex
	Events        EventFeed
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

// Rate limit keys.
const (
	LimitClaims  = "claims"
	LimitVesting = "vesting"
)

type api struct {
	backend Backend
	proofs  ProofIndex
	events  EventFeed
	logger  *slog.Logger
}

func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{backend: cfg.Backend, proofs: cfg.Proofs, events: cfg.Events, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))
	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware)
	}

	passthrough := func(next http.Handler) http.Handler { return next }
	limit := func(key string) func(http.Handler) http.Handler {
		if cfg.RateLimiter == nil {
			return passthrough
		}
		return cfg.RateLimiter.Middleware(key)
	}
	optional, required, admin := passthrough, passthrough, passthrough
	if cfg.Authenticator != nil {
		optional = cfg.Authenticator.Optional()
		required = cfg.Authenticator.Middleware()
		admin = cfg.Authenticator.Middleware(middleware.ScopeAdmin)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/events", a.listEvents)
		v1.Get("/events/stream", a.streamEvents)

		v1.Route("/distributions", func(dr chi.Router) {
			dr.Get("/", a.listDistributions)
			dr.Get("/{id}", a.getDistribution)
			dr.Get("/{id}/claims/{index}", a.getClaim)
			dr.Get("/{id}/proofs/{address}", a.getProof)
			dr.With(optional, limit(LimitClaims)).Post("/{id}/claims", a.postClaim)
		})

		v1.Get("/accounts/{address}", a.getAccount)

		v1.Route("/vesting", func(vr chi.Router) {
			vr.Use(required, limit(LimitVesting))
			vr.Post("/start", a.startVesting)
			vr.Post("/claim", a.claimVesting)
			vr.Post("/early-withdraw", a.earlyWithdraw)
			vr.Post("/cancel", a.cancelVesting)
			vr.Post("/lock", a.lock)
		})

		v1.With(optional, limit(LimitVesting)).Post("/schedules/{address}/vest", a.vestSchedule)

		v1.Route("/admin", func(ar chi.Router) {
			ar.Use(admin)
			ar.Post("/locks", a.overrideLock)
			ar.Post("/fee-collector", a.setFeeCollector)
			ar.Put("/schedules/{address}", a.setSchedule)
			ar.Delete("/schedules/{address}", a.cancelSchedule)
		})
	})

	return otelhttp.NewHandler(r, "vestd-gateway")
}

// caller returns the authenticated address or the zero address for
// anonymous requests.
func caller(r *http.Request) common.Address {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return common.Address{}
	}
	return principal.Address
}
