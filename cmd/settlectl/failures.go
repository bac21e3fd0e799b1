package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ridepay/internal/domain"
	"ridepay/internal/repository/postgres"
	"ridepay/internal/service"
)

var failuresLimit int

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "Inspect payments that could not be settled",
}

var failuresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unresolved settlement failures, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runFailuresList,
}

var failuresResolveCmd = &cobra.Command{
	Use:   "resolve [intent-id]",
	Short: "Mark a settlement failure as handled",
	Long: `Mark a settlement failure as handled, typically after the payment was
refunded or the booking was made by hand.

Resolving does not re-run settlement. A redelivered notification for the
same intent stays a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runFailuresResolve,
}

func init() {
	failuresListCmd.Flags().IntVarP(&failuresLimit, "limit", "n", 100, "maximum failures to list")

	failuresCmd.AddCommand(failuresListCmd)
	failuresCmd.AddCommand(failuresResolveCmd)
}

func runFailuresList(cmd *cobra.Command, args []string) error {
	ctx, done, db, logger, err := connect(cmd)
	if err != nil {
		return err
	}
	defer done()

	query := service.NewQueryService(postgres.Repositories(db), nil, logger)
	failures, err := query.Failures(ctx, failuresLimit)
	if err != nil {
		return err
	}

	return printFailures(cmd.OutOrStdout(), failures)
}

func runFailuresResolve(cmd *cobra.Command, args []string) error {
	ctx, done, db, logger, err := connect(cmd)
	if err != nil {
		return err
	}
	defer done()

	query := service.NewQueryService(postgres.Repositories(db), nil, logger)
	if err := query.ResolveFailure(ctx, args[0]); err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "resolved %s\n", args[0])
	return nil
}

func printFailures(w io.Writer, failures []*domain.SettlementFailure) error {
	if len(failures) == 0 {
		_, err := fmt.Fprintln(w, "no unresolved failures")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INTENT\tPAYER\tKEY\tRIDE\tAMOUNT\tREASON\tCREATED")
	for _, f := range failures {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			f.IntentID, f.PayerID, f.PendingKey, valueOrDash(f.RideID), f.AmountMinor, f.Reason,
			f.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
