package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specindex/internal/lsp"
	"specindex/internal/scan"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Start the language server (for IDE integration)",
	Long: `Starts the specindex language server.

Communicates via JSON-RPC over stdin/stdout following the Language Server
Protocol. Meant to be invoked by an editor, not a human:

  { "command": "specindex", "args": ["lsp"] }
`,
	RunE: runLSP,
}

func runLSP(cmd *cobra.Command, args []string) error {
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		debounce = cfg.DebounceInterval
	}
	threshold, _ := cmd.Flags().GetFloat64("fuzzy-threshold")
	if threshold <= 0 {
		threshold = cfg.FuzzyThreshold
	}

	scanner := scan.NewScanner(cfg.Specs)
	server := lsp.NewServer(svc, scanner, threshold, debounce)

	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		workspace, _ := cmd.Flags().GetString("workspace")
		if workspace == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolving workspace directory: %w", err)
			}
			workspace = wd
		}
		cw, err := lsp.NewCacheWatcher(server)
		if err != nil {
			return fmt.Errorf("starting cache watcher: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := cw.Start(ctx, workspace); err != nil {
			return fmt.Errorf("starting cache watcher: %w", err)
		}
		defer cw.Stop()
	}

	return server.ServeStdio(os.Stdin, os.Stdout)
}
