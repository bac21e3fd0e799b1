package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ridepay/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, done, db, logger, err := connect(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := app.RunMigrations(ctx, db, logger); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
	return nil
}
