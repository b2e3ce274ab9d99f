package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nutvest/native/merkle"
	"nutvest/storage/proofs"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b2"
	carol = "0x00000000000000000000000000000000000000c3"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Usage: vestctl")

	code, _, stderr = runCLI(t, "nope")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Unknown command: nope")

	code, _, stderr = runCLI(t, "merkle", "nope")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Unknown merkle subcommand")
}

func TestMerkleBuildAndVerify(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "drop.csv", alice+",100\n"+bob+",200\n"+carol+",300\n")

	code, stdout, stderr := runCLI(t, "merkle", "build", "--csv", csvPath)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "leaves: 3")
	require.Contains(t, stdout, "total: 600")

	entries, err := readCSV(csvPath)
	require.NoError(t, err)
	tree, err := merkle.Build(entries)
	require.NoError(t, err)
	require.Contains(t, stdout, tree.Root().Hex())

	require.FileExists(t, csvPath+merkle.TreeSuffix)
	require.FileExists(t, csvPath+merkle.ProofSuffix)

	code, stdout, stderr = runCLI(t, "merkle", "verify", "--csv", csvPath, "--root", tree.Root().Hex())
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "verified: 3")

	code, _, stderr = runCLI(t, "merkle", "verify", "--csv", csvPath, "--root", common.Hash{1}.Hex())
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "does not match")
}

func TestMerkleVerifyDetectsEditedCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "drop.csv", alice+",100\n"+bob+",200")
	code, _, stderr := runCLI(t, "merkle", "build", "--csv", csvPath)
	require.Equal(t, 0, code, stderr)

	require.NoError(t, os.WriteFile(csvPath, []byte(alice+",100\n"+bob+",201"), 0o644))
	code, _, stderr = runCLI(t, "merkle", "verify", "--csv", csvPath)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "1 of 2 proofs failed")
}

func TestMerkleBuildRejectsMalformedCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "bad.csv", alice+",100\n\n"+bob+",200")
	code, _, stderr := runCLI(t, "merkle", "build", "--csv", csvPath)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "line 2")

	code, _, stderr = runCLI(t, "merkle", "build")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "--csv is required")
}

func TestMerkleFromJSONAndFind(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "incentives.json",
		`{"`+bob+`": {"week_incentive": 30}, "`+alice+`": {"week_incentive": "70"}}`)
	output := filepath.Join(dir, "week1.csv")

	code, stdout, stderr := runCLI(t, "merkle", "from-json", "--in", input, "--out", output)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "total: 100")

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), common.HexToAddress(bob).Hex()+",30"))

	docsPath := documentsPath(output)
	require.Equal(t, filepath.Join(dir, "week1.proofs.json"), docsPath)

	code, stdout, stderr = runCLI(t, "merkle", "find", "--docs", docsPath, "--address", alice)
	require.Equal(t, 0, code, stderr)
	var doc merkle.ProofDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Equal(t, uint64(1), doc.Index)
	require.Equal(t, "70", doc.WeekIncentive)

	tree, err := readTree(output + merkle.TreeSuffix)
	require.NoError(t, err)
	ok, err := doc.Check(common.HexToAddress(alice), tree.Root())
	require.NoError(t, err)
	require.True(t, ok)

	code, _, stderr = runCLI(t, "merkle", "find", "--docs", docsPath, "--address", carol)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no proof")
}

func TestProofsImport(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "incentives.json",
		`{"`+alice+`": {"week_incentive": 70}, "`+bob+`": {"week_incentive": 30}}`)
	output := filepath.Join(dir, "week1.csv")
	code, _, stderr := runCLI(t, "merkle", "from-json", "--in", input, "--out", output)
	require.Equal(t, 0, code, stderr)

	tree, err := readTree(output + merkle.TreeSuffix)
	require.NoError(t, err)
	dbPath := filepath.Join(dir, "proofs.db")

	code, _, stderr = runCLI(t, "proofs", "import", "--db", dbPath, "--distribution", "week1",
		"--docs", documentsPath(output), "--root", common.Hash{9}.Hex())
	require.Equal(t, 1, code)
	require.NotEmpty(t, stderr)

	code, stdout, stderr := runCLI(t, "proofs", "import", "--db", dbPath, "--distribution", "week1",
		"--docs", documentsPath(output), "--root", tree.Root().Hex())
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "imported 2 proofs into week1")

	store, err := proofs.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	doc, err := store.Lookup(context.Background(), "week1", common.HexToAddress(bob))
	require.NoError(t, err)
	require.Equal(t, uint64(1), doc.Index)
}

const planYAML = `plans:
  - account: "` + alice + `"
    tranches:
      - timestamp: 4070908800
        amount: "10"
      - at: "2100-01-01T00:00:00Z"
        amount: "20"
`

func TestScheduleValidate(t *testing.T) {
	dir := t.TempDir()
	plan := writeFile(t, dir, "plan.yaml", planYAML)
	code, stdout, stderr := runCLI(t, "schedule", "validate", "--plan", plan)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, common.HexToAddress(alice).Hex())
	require.Contains(t, stdout, "tranches=2 total=30 final=4102444800")

	bad := writeFile(t, dir, "bad.yaml", "plans:\n  - account: nope\n")
	code, _, stderr = runCLI(t, "schedule", "validate", "--plan", bad)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "invalid account")
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func TestScheduleSubmit(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	plan := writeFile(t, dir, "plan.yaml", planYAML)
	code, stdout, stderr := runCLI(t, "schedule", "submit", "--plan", plan, "--gateway", srv.URL+"/", "--token", "secret")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "total=30")

	require.Len(t, requests, 2)
	account := common.HexToAddress(alice).Hex()
	require.Equal(t, http.MethodPost, requests[0].Method)
	require.Equal(t, "/v1/admin/locks", requests[0].Path)
	require.Equal(t, "Bearer secret", requests[0].Auth)
	require.Equal(t, "30", requests[0].Body["amount"])
	require.EqualValues(t, 4102444800, requests[0].Body["timestamp"])

	require.Equal(t, http.MethodPut, requests[1].Method)
	require.Equal(t, "/v1/admin/schedules/"+account, requests[1].Path)
	require.Len(t, requests[1].Body["tranches"], 2)
}

func TestScheduleSubmitReportsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"forbidden","message":"admin scope required"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	plan := writeFile(t, dir, "plan.yaml", planYAML)
	code, _, stderr := runCLI(t, "schedule", "submit", "--plan", plan, "--gateway", srv.URL, "--token", "secret", "--lock=false")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "forbidden: admin scope required (403)")

	code, _, stderr = runCLI(t, "schedule", "submit", "--plan", plan, "--gateway", srv.URL, "--token", " ")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "VESTCTL_TOKEN")
}
