package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"nutvest/core"
	"nutvest/core/events"
	"nutvest/core/types"
	"nutvest/gateway/middleware"
	"nutvest/native/merkle"
	"nutvest/native/token"
	"nutvest/storage"
	"nutvest/storage/proofs"
)

const testSecret = "gateway-secret"

var (
	adminAddr  = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	holderAddr = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	otherAddr  = common.HexToAddress("0x0000000000000000000000000000000000000c0c")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

type fixture struct {
	node    *core.Node
	journal *core.Journal
	handler http.Handler
	now     int64
}

func newFixture(t *testing.T, limits map[string]middleware.RateLimit) *fixture {
	t.Helper()
	f := &fixture{now: 1_700_000_000}
	node, err := core.NewNode(storage.NewMemDB(), core.Genesis{Admin: adminAddr, InitialEsNUT: ether(1_000_000)})
	require.NoError(t, err)
	node.SetNowFunc(func() int64 { return f.now })
	journal := core.NewJournal(32)
	node.SetEmitter(journal)
	f.node = node
	f.journal = journal

	incentives := []merkle.Incentive{
		{Key: holderAddr.Hex(), Entry: merkle.Entry{Account: holderAddr, Amount: ether(100)}},
		{Key: otherAddr.Hex(), Entry: merkle.Entry{Account: otherAddr, Amount: ether(40)}},
	}
	tree, err := merkle.Build(merkle.Entries(incentives))
	require.NoError(t, err)
	total := merkle.Total(merkle.Entries(incentives))
	_, err = node.PublishDistribution(adminAddr, "week-1", token.EsNUT, tree.Root(), total)
	require.NoError(t, err)
	require.NoError(t, node.FundDistribution(adminAddr, "week-1", total))

	var buf bytes.Buffer
	require.NoError(t, merkle.WriteProofDocuments(&buf, incentives, tree))
	docs, err := merkle.ReadProofDocuments(&buf)
	require.NoError(t, err)
	index, err := proofs.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	_, err = index.Import(context.Background(), "week-1", tree.Root(), docs)
	require.NoError(t, err)

	if limits == nil {
		limits = map[string]middleware.RateLimit{}
	}
	f.handler = New(Config{
		Backend:       node,
		Proofs:        index,
		Events:        journal,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{HMACSecret: testSecret}, nil),
		RateLimiter:   middleware.NewRateLimiter(limits, nil),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{}, nil),
	})
	return f
}

func bearer(t *testing.T, addr common.Address, scopes string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": addr.Hex(), "exp": time.Now().Add(time.Hour).Unix()}
	if scopes != "" {
		claims["scope"] = scopes
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *fixture) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	return res
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	res := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotEmpty(t, res.Header().Get(middleware.RequestIDHeader))

	res = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "nutvest_node_operations_total")
}

func TestClaimFlowUsesIndexedProof(t *testing.T) {
	f := newFixture(t, nil)

	res := f.do(t, http.MethodGet, "/v1/distributions/week-1/proofs/"+holderAddr.Hex(), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	doc := decode[proofResponse](t, res)
	require.Equal(t, uint64(0), doc.Index)

	claim := map[string]any{
		"index":   doc.Index,
		"address": holderAddr.Hex(),
		"amount":  doc.WeekIncentive,
		"proof":   doc.Proof,
	}
	res = f.do(t, http.MethodPost, "/v1/distributions/week-1/claims", "", claim)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = f.do(t, http.MethodPost, "/v1/distributions/week-1/claims", "", claim)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "already_claimed", decode[middleware.ErrorBody](t, res).Code)

	res = f.do(t, http.MethodGet, "/v1/distributions/week-1/claims/0", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, decode[claimStatusResponse](t, res).Claimed)

	res = f.do(t, http.MethodGet, "/v1/distributions/week-1", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	dist := decode[distributionResponse](t, res)
	require.Equal(t, ether(100).String(), dist.Claimed)
	require.Equal(t, uint64(1), dist.ClaimCount)

	res = f.do(t, http.MethodGet, "/v1/events?limit=5", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "airdrop.claimed")
}

func TestClaimErrors(t *testing.T) {
	f := newFixture(t, nil)

	res := f.do(t, http.MethodPost, "/v1/distributions/week-1/claims", "", map[string]any{
		"index": 1, "address": otherAddr.Hex(), "amount": "1", "proof": []string{},
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "invalid_proof", decode[middleware.ErrorBody](t, res).Code)

	res = f.do(t, http.MethodPost, "/v1/distributions/week-9/claims", "", map[string]any{
		"index": 0, "address": otherAddr.Hex(), "amount": "1", "proof": []string{},
	})
	require.Equal(t, http.StatusNotFound, res.Code)

	res = f.do(t, http.MethodPost, "/v1/distributions/week-1/claims", "", map[string]any{"address": otherAddr.Hex()})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/v1/distributions/week-1/proofs/"+adminAddr.Hex(), "", nil)
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Equal(t, "proof_not_found", decode[middleware.ErrorBody](t, res).Code)
}

func TestClaimsAreRateLimited(t *testing.T) {
	f := newFixture(t, map[string]middleware.RateLimit{LimitClaims: {RequestsPerMinute: 1, Burst: 1}})
	body := map[string]any{"index": 1, "address": otherAddr.Hex(), "amount": "1", "proof": []string{}}

	res := f.do(t, http.MethodPost, "/v1/distributions/week-1/claims", "", body)
	require.Equal(t, http.StatusBadRequest, res.Code)
	res = f.do(t, http.MethodPost, "/v1/distributions/week-1/claims", "", body)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
}

func TestVestingRoutesUseTokenSubject(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.node.Transfer(adminAddr, token.EsNUT, holderAddr, ether(900)))

	res := f.do(t, http.MethodPost, "/v1/vesting/start", "", map[string]string{"amount": ether(900).String()})
	require.Equal(t, http.StatusUnauthorized, res.Code)

	auth := bearer(t, holderAddr, "")
	res = f.do(t, http.MethodPost, "/v1/vesting/start", auth, map[string]string{"amount": ether(900).String()})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	f.now += 30 * 24 * 60 * 60
	res = f.do(t, http.MethodGet, "/v1/accounts/"+holderAddr.Hex(), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	account := decode[accountResponse](t, res)
	require.NotNil(t, account.Vesting)
	require.Equal(t, ether(300).String(), account.Vesting.Releasable)

	res = f.do(t, http.MethodPost, "/v1/vesting/claim", auth, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, ether(300).String(), decode[amountResponse](t, res).Amount)

	res = f.do(t, http.MethodPost, "/v1/vesting/early-withdraw", auth, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(t, http.MethodPost, "/v1/vesting/cancel", auth, nil)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "no_active_vesting", decode[middleware.ErrorBody](t, res).Code)
}

func TestAdminRoutesRequireScopeAndCapability(t *testing.T) {
	f := newFixture(t, nil)
	body := map[string]string{"address": otherAddr.Hex()}

	res := f.do(t, http.MethodPost, "/v1/admin/fee-collector", bearer(t, adminAddr, ""), body)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, "forbidden", decode[middleware.ErrorBody](t, res).Code)

	res = f.do(t, http.MethodPost, "/v1/admin/fee-collector", bearer(t, holderAddr, "admin"), body)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, "unauthorized", decode[middleware.ErrorBody](t, res).Code)

	res = f.do(t, http.MethodPost, "/v1/admin/fee-collector", bearer(t, adminAddr, "admin"), body)
	require.Equal(t, http.StatusOK, res.Code)
	collector, err := f.node.FeeCollector()
	require.NoError(t, err)
	require.Equal(t, otherAddr, collector)
}

func TestAdminScheduleLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	auth := bearer(t, adminAddr, "admin")
	final := uint64(f.now + 100)

	res := f.do(t, http.MethodPost, "/v1/admin/locks", auth, map[string]any{
		"account": holderAddr.Hex(), "timestamp": final, "amount": ether(30).String(),
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.NoError(t, f.node.Transfer(adminAddr, token.EsNUT, holderAddr, ether(30)))

	res = f.do(t, http.MethodPut, "/v1/admin/schedules/"+holderAddr.Hex(), auth, map[string]any{
		"tranches": []map[string]any{
			{"timestamp": final - 50, "amount": ether(10).String()},
			{"timestamp": final, "amount": ether(20).String()},
		},
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	f.now += 60
	res = f.do(t, http.MethodPost, "/v1/schedules/"+holderAddr.Hex()+"/vest", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, ether(10).String(), decode[amountResponse](t, res).Amount)

	res = f.do(t, http.MethodDelete, "/v1/admin/schedules/"+holderAddr.Hex(), auth, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, ether(20).String(), decode[amountResponse](t, res).Amount)

	res = f.do(t, http.MethodDelete, "/v1/admin/schedules/"+holderAddr.Hex(), auth, nil)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestScheduleValidationErrors(t *testing.T) {
	f := newFixture(t, nil)
	auth := bearer(t, adminAddr, "admin")

	res := f.do(t, http.MethodPut, "/v1/admin/schedules/"+holderAddr.Hex(), auth, map[string]any{"tranches": []any{}})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "schedule_empty", decode[middleware.ErrorBody](t, res).Code)

	res = f.do(t, http.MethodPut, "/v1/admin/schedules/"+holderAddr.Hex(), auth, map[string]any{
		"tranches": []map[string]any{{"timestamp": f.now + 10, "amount": "5"}},
	})
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "lock_not_set", decode[middleware.ErrorBody](t, res).Code)

	res = f.do(t, http.MethodGet, "/v1/accounts/not-an-address", "", nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestListEventsHonoursLimit(t *testing.T) {
	f := newFixture(t, nil)

	res := f.do(t, http.MethodGet, "/v1/events", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	all := decode[[]types.Event](t, res)
	require.NotEmpty(t, all)
	require.Equal(t, events.TypeAirdropPublished, all[0].Type)

	res = f.do(t, http.MethodGet, "/v1/events?limit=1", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	latest := decode[[]types.Event](t, res)
	require.Len(t, latest, 1)
	require.Equal(t, all[len(all)-1], latest[0])

	for _, bad := range []string{"abc", "-1", "1.5"} {
		res = f.do(t, http.MethodGet, "/v1/events?limit="+bad, "", nil)
		require.Equal(t, http.StatusBadRequest, res.Code, bad)
		require.Equal(t, "bad_request", decode[middleware.ErrorBody](t, res).Code)
	}
}

func TestEventStreamSendsBacklogThenLiveEvents(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events/stream?backlog=1"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	readEvent := func() types.Event {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, websocket.MessageText, typ)
		var evt types.Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	}

	recent := f.journal.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, recent[0], readEvent())
	require.Equal(t, 1, f.journal.Subscribers())

	require.NoError(t, f.node.Transfer(adminAddr, token.EsNUT, holderAddr, ether(5)))
	live := readEvent()
	require.Equal(t, events.TypeTokenTransfer, live.Type)
	require.Equal(t, ether(5).String(), live.Attributes["amount"])

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))
	require.Eventually(t, func() bool { return f.journal.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventStreamRejectsMalformedBacklog(t *testing.T) {
	f := newFixture(t, nil)
	res := f.do(t, http.MethodGet, "/v1/events/stream?backlog=x", "", nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
