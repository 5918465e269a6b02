// Package cli provides the command-line interface for enterviu.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/luongnguyenminhan/enterviu-go/internal/auth"
	"github.com/luongnguyenminhan/enterviu-go/internal/config"
	"github.com/luongnguyenminhan/enterviu-go/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	showStats bool

	// Global config and clients
	cfg         config.Config
	logger      *slog.Logger
	logCleanup  func() error
	store       *auth.Store
	tokenSource *auth.TokenSource
	restClient  *api.Client
	collector   *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "enterviu",
	Short: "EnterViu career assistant client",
	Long: `Enterviu is the terminal client for the EnterViu career platform:
AI chat with streaming replies, CV analysis, file management, and surveys.

Log in once with Google, then chat:
  enterviu login
  enterviu conversations create "Interview prep"
  enterviu chat`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// .env first so config.Load sees it
		_ = godotenv.Load()
		cfg = config.Load()

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		var err error
		store, err = auth.NewStore(cfg.CredentialsFile)
		if err != nil {
			return fmt.Errorf("init credential store: %w", err)
		}

		collector = metrics.NewCollector()

		// The token source refreshes through the same client it serves.
		// Build the client first, then wire the source in.
		restClient = api.New(cfg.APIBaseURL,
			api.WithLogger(logger),
			api.WithStats(collector),
		)
		tokenSource = auth.NewTokenSource(store, restClient, logger)
		restClient = api.New(cfg.APIBaseURL,
			api.WithLogger(logger),
			api.WithStats(collector),
			api.WithTokenSource(tokenSource),
		)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if showStats && collector != nil {
			printStats(collector.Snapshot())
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print client call statistics on exit")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(cvCmd)
}

// printStats writes the call statistics table to stderr so it never mixes
// with command output.
func printStats(snap metrics.Snapshot) {
	fmt.Fprintf(os.Stderr, "\nClient statistics (%.1fs):\n", snap.UptimeSeconds)
	for _, op := range snap.Operations {
		fmt.Fprintf(os.Stderr, "  %-28s count=%-4d errors=%-3d avg=%.0fms min=%dms max=%dms",
			op.Name, op.Count, op.Errors, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
		if op.TotalInputTokens != nil {
			fmt.Fprintf(os.Stderr, " tokens_in=%d tokens_out=%d", *op.TotalInputTokens, *op.TotalOutputTokens)
		}
		fmt.Fprintln(os.Stderr)
	}
}
