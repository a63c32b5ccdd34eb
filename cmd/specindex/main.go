// Package main implements the specindex CLI and LSP entry point.
//
// This file holds the entry point and root command: global flags, service
// wiring shared by every subcommand, and registration. Subcommand
// implementations live in cmd_*.go files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"specindex/internal/config"
	"specindex/internal/fetch"
	"specindex/internal/logging"
	"specindex/internal/provider"
	"specindex/internal/query"
	"specindex/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	format     string
	dbPathFlag string

	// Logger for the CLI's own stderr diagnostics.
	logger *zap.Logger

	// Shared services, wired once in PersistentPreRunE.
	cfg *config.Config
	svc *query.Service
	db  *store.Store
)

var rootCmd = &cobra.Command{
	Use:           "specindex",
	Short:         "Query and maintain a local index of web specifications",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		var loadErr error
		cfg, loadErr = config.Load(configPath)
		if loadErr != nil {
			return fmt.Errorf("loading config: %w", loadErr)
		}
		if dbPathFlag != "" {
			cfg.DBPath = dbPathFlag
		}

		if err := logging.Initialize(filepath.Dir(cfg.DBPath), cfg.LoggingInput()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}

		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening index store: %w", err)
		}

		registry := provider.NewRegistry(cfg.Specs)
		orch := fetch.New(db, registry)
		svc = query.New(cfg, db, orch)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&format, "format", "markdown", "Output format: json|markdown")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Override the index database path")

	updateCmd.Flags().Bool("force", false, "Bypass the repo-version-cache freshness check")
	updateAllCmd.Flags().Bool("force", false, "Bypass the repo-version-cache freshness check")
	anchorsCmd.Flags().String("glob", "*", "Glob pattern to match anchors against")
	searchCmd.Flags().String("spec", "", "Restrict search to one spec")
	searchCmd.Flags().Int("limit", 20, "Maximum number of results")
	refsCmd.Flags().String("direction", "out", "Reference direction: out|in")
	lspCmd.Flags().Duration("debounce", 0, "Override the didChange debounce window")
	lspCmd.Flags().Float64("fuzzy-threshold", 0, "Override the default Jaro-Winkler threshold")
	lspCmd.Flags().Bool("watch", false, "Watch the workspace directory and invalidate the query cache on change")
	lspCmd.Flags().String("workspace", "", "Workspace directory to watch (defaults to the current directory)")

	rootCmd.AddCommand(
		queryCmd,
		existsCmd,
		anchorsCmd,
		searchCmd,
		refsCmd,
		listCmd,
		updateCmd,
		updateAllCmd,
		clearDBCmd,
		specsCmd,
		lspCmd,
	)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "specindex.yaml"
	}
	return filepath.Join(dir, "specindex", "config.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorChain(err))
		os.Exit(exitCodeFor(err))
	}
	os.Exit(pendingExitCode)
}
