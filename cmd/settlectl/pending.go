package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ridepay/internal/repository/postgres"
	"ridepay/internal/service"
)

var sweepOlderThan time.Duration

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Maintain pending payments",
}

var pendingSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete pending payments that were never confirmed",
	Long: `Delete pending payments created before now minus --older-than.

Seats are only taken at settlement, so nothing is released. A confirmation
that arrives after its pending payment was swept is recorded as a failure.`,
	Args: cobra.NoArgs,
	RunE: runPendingSweep,
}

func init() {
	pendingSweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 24*time.Hour, "age after which a pending payment is abandoned")

	pendingCmd.AddCommand(pendingSweepCmd)
}

func runPendingSweep(cmd *cobra.Command, args []string) error {
	ctx, done, db, logger, err := connect(cmd)
	if err != nil {
		return err
	}
	defer done()

	n, err := service.NewPendingSweeper(postgres.NewPendingPaymentRepository(db), logger).Sweep(ctx, sweepOlderThan)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d pending payments\n", n)
	return nil
}
