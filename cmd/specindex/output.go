package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"specindex/internal/specerr"
)

// cmdContext returns cmd's context, falling back to context.Background()
// for a bare *cobra.Command that never went through Execute (e.g. a RunE
// invoked directly from a test).
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// pendingExitCode lets a command request a non-zero exit without it being
// treated as a failure: `exists` exits 1 on a clean "not found" result,
// with no "Error: ..." line.
var pendingExitCode int

// render prints v as either pretty-printed JSON or glamour-rendered
// markdown, per the global --format flag.
func render(v interface{}, markdown string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	out, err := glamour.Render(markdown, "auto")
	if err != nil {
		// glamour failing to detect a terminal style is not fatal; fall
		// back to the raw markdown source.
		fmt.Println(markdown)
		return nil
	}
	fmt.Print(out)
	return nil
}

// errorChain renders err as the "Error: <chain>" stderr line;
// fmt.Errorf("...: %w", ...) wrapping already folds the whole chain into
// Error()'s message.
func errorChain(err error) string {
	return err.Error()
}

// exitCodeFor implements the exit code contract for actual command
// failures: a usage error gets its own code, everything else a generic
// non-zero code.
func exitCodeFor(err error) int {
	if specerr.Is(err, specerr.ErrUsage) {
		return 2
	}
	return 1
}
