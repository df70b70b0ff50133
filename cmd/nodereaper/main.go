// Package main is the entry point for the nodereaper controller.
//
// nodereaper periodically inspects cluster nodes and deletes those that are
// unreachable, not ready, unhealthily tainted or idle, and removes stuck
// finalizers from nodes blocked in a terminating state.
//
// For detailed usage information, run:
//
//	nodereaper --help
package main

import (
	"fmt"
	"os"

	"github.com/nodereaper/nodereaper/cmd/nodereaper/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
