package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ridepay/internal/app"
	"ridepay/internal/config"
	"ridepay/internal/logging"
)

var Version = "dev"

var (
	logLevel string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "settlectl",
	Short:   "Operate the ride payment settlement store",
	Version: Version,
	Long: `settlectl inspects and maintains the settlement database.

Connection settings come from the same environment variables (and .env
file) as the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall command timeout")

	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect opens the database configured in the environment. The returned
// cancel func must be called when the command finishes.
func connect(cmd *cobra.Command) (context.Context, context.CancelFunc, *sql.DB, *slog.Logger, error) {
	cfg := config.Load()
	logger := logging.NewLoggerTo(cmd.ErrOrStderr(), logLevel)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return ctx, func() {
		_ = db.Close()
		cancel()
	}, db, logger, nil
}
