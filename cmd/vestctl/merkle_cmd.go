package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/merkle"
)

func runMerkleCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, merkleUsage())
		return 1
	}
	switch args[0] {
	case "build":
		return runMerkleBuild(args[1:], stdout, stderr)
	case "verify":
		return runMerkleVerify(args[1:], stdout, stderr)
	case "from-json":
		return runMerkleFromJSON(args[1:], stdout, stderr)
	case "find":
		return runMerkleFind(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown merkle subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, merkleUsage())
		return 1
	}
}

func merkleUsage() string {
	return "Usage: vestctl merkle <build|verify|from-json|find> [flags]"
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runMerkleBuild(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("merkle build", stderr)
	var csvPath string
	fs.StringVar(&csvPath, "csv", "", "path to the address,amount distribution CSV")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if csvPath == "" {
		fmt.Fprintln(stderr, "Error: --csv is required")
		return 1
	}
	entries, err := readCSV(csvPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	tree, err := merkle.Build(entries)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := writeArtifacts(csvPath, tree); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "root: %s\nleaves: %d\ntotal: %s\n", tree.Root().Hex(), tree.Len(), merkle.Total(entries))
	return 0
}

func runMerkleVerify(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("merkle verify", stderr)
	var csvPath, rootHex string
	fs.StringVar(&csvPath, "csv", "", "path to the distribution CSV the artifacts were built from")
	fs.StringVar(&rootHex, "root", "", "optional expected root")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if csvPath == "" {
		fmt.Fprintln(stderr, "Error: --csv is required")
		return 1
	}
	entries, err := readCSV(csvPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	stored, err := readTree(csvPath + merkle.TreeSuffix)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	proofs, err := readProofs(csvPath + merkle.ProofSuffix)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	root := stored.Root()
	if rootHex != "" {
		want, err := merkle.ParseHash(rootHex)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if want != root {
			fmt.Fprintf(stderr, "Error: artifact root %s does not match %s\n", root.Hex(), want.Hex())
			return 1
		}
	}
	if len(proofs) != len(entries) {
		fmt.Fprintf(stderr, "Error: %d proofs for %d entries\n", len(proofs), len(entries))
		return 1
	}
	failed := 0
	for i, entry := range entries {
		if !merkle.Verify(uint64(i), entry.Account, entry.Amount, proofs[i], root) {
			fmt.Fprintf(stderr, "entry %d (%s): proof does not verify\n", i, entry.Account.Hex())
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(stderr, "Error: %d of %d proofs failed\n", failed, len(entries))
		return 1
	}
	fmt.Fprintf(stdout, "root: %s\nverified: %d\n", root.Hex(), len(entries))
	return 0
}

func runMerkleFromJSON(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("merkle from-json", stderr)
	var input, output string
	fs.StringVar(&input, "in", "", "path to the incentive map JSON")
	fs.StringVar(&output, "out", "", "output CSV path; artifacts are written alongside it")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if input == "" || output == "" {
		fmt.Fprintln(stderr, "Error: --in and --out are required")
		return 1
	}
	file, err := os.Open(input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	incentives, err := merkle.ParseIncentives(file)
	file.Close()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	entries := merkle.Entries(incentives)
	tree, err := merkle.Build(entries)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	var csvBuf bytes.Buffer
	if err := merkle.WriteCSV(&csvBuf, entries); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(output, csvBuf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := writeArtifacts(output, tree); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	docsPath := documentsPath(output)
	var docBuf bytes.Buffer
	if err := merkle.WriteProofDocuments(&docBuf, incentives, tree); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(docsPath, docBuf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "root: %s\nleaves: %d\ntotal: %s\ndocuments: %s\n", tree.Root().Hex(), tree.Len(), merkle.Total(entries), docsPath)
	return 0
}

func runMerkleFind(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("merkle find", stderr)
	var docsPath, address string
	fs.StringVar(&docsPath, "docs", "", "path to the proof document set")
	fs.StringVar(&address, "address", "", "claimant address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if docsPath == "" || address == "" {
		fmt.Fprintln(stderr, "Error: --docs and --address are required")
		return 1
	}
	if !common.IsHexAddress(address) {
		fmt.Fprintf(stderr, "Error: invalid address %q\n", address)
		return 1
	}
	file, err := os.Open(docsPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer file.Close()
	doc, ok, err := merkle.FindProof(file, common.HexToAddress(address))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintf(stderr, "Error: no proof for %s\n", common.HexToAddress(address).Hex())
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// documentsPath names the proof document set written next to a CSV.
func documentsPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".proofs.json"
}

func readCSV(path string) ([]merkle.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return merkle.ParseCSV(file)
}

func readTree(path string) (*merkle.Tree, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return merkle.DecodeTree(file)
}

func readProofs(path string) ([][]common.Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return merkle.DecodeProofs(file)
}

func writeArtifacts(csvPath string, tree *merkle.Tree) error {
	var treeBuf, proofBuf bytes.Buffer
	if err := merkle.WriteTree(&treeBuf, tree); err != nil {
		return err
	}
	if err := merkle.WriteProofs(&proofBuf, tree); err != nil {
		return err
	}
	if err := os.WriteFile(csvPath+merkle.TreeSuffix, treeBuf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.WriteFile(csvPath+merkle.ProofSuffix, proofBuf.Bytes(), 0o644)
}
