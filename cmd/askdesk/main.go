/*
Package main is the entry point for the askdesk CLI.

Usage:

	askdesk [command]

Available Commands:

	serve       Run the HTTP server
	ask         Answer one question against the configured store
	analytics   Print the interaction analytics summary as JSON
	seed        Load FAQ entries from a YAML seed into the store
	probe       Send concurrent questions to a running server
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/askdesk/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
