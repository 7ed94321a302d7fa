package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pickem/ingestion/internal/app"
	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/config"
	"pickem/ingestion/internal/ingest"
	"pickem/ingestion/internal/logging"
	"pickem/ingestion/internal/printer"

	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitFailure = 1 // infrastructure or usage error
	ExitAborted = 2 // a run rejected its input and wrote nothing
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pickem",
	Short: "Pick'em ingestion - load ratings, schedules and streaks",
	Long: `pickem loads the inputs of a football pick'em contest into PostgreSQL.

Every team and picker name in an input is resolved against the registry
(teams.other_names and pickers.aliases). A run either resolves and validates
every entry and commits one snapshot, or writes nothing and reports each
problem so the registry or the input can be fixed before trying again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if batch.IsRunAborted(err) {
		return ExitAborted
	}
	return ExitFailure
}

// withApp loads configuration, connects and runs fn with a context cancelled on SIGINT/SIGTERM
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return printer.Error("Configuration error", err.Error(), []string{
			"Set DATABASE_PASSWORD and the other DATABASE_* variables, or put them in .env",
		})
	}
	logging.Setup(cfg.AppEnv, cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, "pickem")
	if err != nil {
		return printer.Error("Cannot connect", err.Error(), []string{
			"Check that PostgreSQL is running and DATABASE_HOST/DATABASE_PORT are correct",
		})
	}
	defer a.Close()

	return fn(ctx, a)
}

// finishRun prints the outcome of one ingestion run
func finishRun(summary *ingest.Summary, err error) error {
	var aborted *batch.RunAbortedError
	switch {
	case errors.As(err, &aborted):
		return printer.Aborted(aborted)
	case err != nil:
		return printer.Error("Run failed", err.Error(), nil)
	}
	printer.Committed(summary)
	return nil
}
