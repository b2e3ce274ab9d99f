package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/native/merkle"
	"nutvest/storage/proofs"
)

func runProofsCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: vestctl proofs import --db <path> --distribution <id> --docs <file> [--root <hex>]")
		return 1
	}
	switch args[0] {
	case "import":
		return runProofsImport(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown proofs subcommand: %s\n", args[0])
		return 1
	}
}

func runProofsImport(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("proofs import", stderr)
	var dbPath, distribution, docsPath, rootHex string
	fs.StringVar(&dbPath, "db", "", "path to the proof index database")
	fs.StringVar(&distribution, "distribution", "", "distribution identifier")
	fs.StringVar(&docsPath, "docs", "", "path to the proof document set")
	fs.StringVar(&rootHex, "root", "", "root every document must verify against")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	distribution = strings.TrimSpace(distribution)
	if dbPath == "" || distribution == "" || docsPath == "" {
		fmt.Fprintln(stderr, "Error: --db, --distribution and --docs are required")
		return 1
	}
	var root common.Hash
	if rootHex != "" {
		parsed, err := merkle.ParseHash(rootHex)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		root = parsed
	}
	file, err := os.Open(docsPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	docs, err := merkle.ReadProofDocuments(file)
	file.Close()
	if err != nil {
		fmt.Fprintf(stderr, "Error: decode documents: %v\n", err)
		return 1
	}
	store, err := proofs.Open(dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()
	imported, err := store.Import(context.Background(), distribution, root, docs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "imported %d proofs into %s\n", imported, distribution)
	return 0
}
