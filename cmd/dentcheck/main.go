// dentcheck: SRM dent assessment rule engine.
//
// It evaluates fuselage dents against versioned rule sets stored in SQLite
// and serves the assessment to MCP hosts over stdio.
//
// Usage:
//
//	dentcheck serve                      # Start MCP server (stdio transport)
//	dentcheck seed -f rules.yaml         # Load a rule set
//	dentcheck assess --family B787 ...   # Assess a dent from the shell
//	dentcheck rulesets                   # List stored rule sets
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
