package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "merkle":
		return runMerkleCommand(args[1:], stdout, stderr)
	case "proofs":
		return runProofsCommand(args[1:], stdout, stderr)
	case "schedule":
		return runScheduleCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return `Usage: vestctl <command> [subcommand] [flags]

Commands:
  merkle build      Build tree and proof artifacts from an address,amount CSV
  merkle verify     Check artifacts against the CSV they were built from
  merkle from-json  Build artifacts and proof documents from an incentive map
  merkle find       Print the proof document for one address
  proofs import     Load proof documents into the gateway proof index
  schedule validate Check a YAML schedule plan
  schedule submit   Submit a YAML schedule plan to the gateway`
}
