// Command sstovectl is the operator tool for an SStove deployment: it runs
// database migrations and provisions stoves.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/sstove-api/cmd/sstovectl/ui"
	"github.com/redmonkez12/sstove-api/internal/config"
	"github.com/redmonkez12/sstove-api/internal/database"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/stove"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sstovectl",
		Short:         "Administer an SStove backend",
		Long:          "Run database migrations and provision stoves for the SStove API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus},
		RunE:      runMigrate,
	}

	stoveCmd := &cobra.Command{
		Use:   "stove",
		Short: "Manage provisioned stoves",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Provision a new stove",
		RunE:  runStoveAdd,
	}
	// Flags for non-interactive mode (CI/scripting)
	addCmd.Flags().String("serial", "", "Stove serial id")
	addCmd.Flags().String("name", "", "Stove name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all stoves",
		RunE:  runStoveList,
	}

	stoveCmd.AddCommand(addCmd, listCmd)
	rootCmd.AddCommand(migrateCmd, stoveCmd)

	return rootCmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	return withDB(cmd, func(db *bun.DB) error {
		if err := database.Migrate(cmd.Context(), db.DB, args[0]); err != nil {
			return err
		}
		ui.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("migrate %s done", args[0]))
		return nil
	})
}

func runStoveAdd(cmd *cobra.Command, _ []string) error {
	serial, _ := cmd.Flags().GetString("serial")
	name, _ := cmd.Flags().GetString("name")
	in := stove.ProvisionInput{SerialID: serial, Name: name}

	// Fall back to the form when the serial was not passed
	if in.SerialID == "" {
		if err := ui.RunStoveForm(&in); err != nil {
			ui.PrintError(cmd.ErrOrStderr(), err.Error())
			return err
		}
	}

	return withDB(cmd, func(db *bun.DB) error {
		created, err := newStoveService(db).Provision(cmd.Context(), in)
		if err != nil {
			ui.PrintError(cmd.ErrOrStderr(), err.Error())
			return err
		}
		ui.PrintProvisioned(cmd.OutOrStdout(), created)
		return nil
	})
}

func runStoveList(cmd *cobra.Command, _ []string) error {
	return withDB(cmd, func(db *bun.DB) error {
		stoves, err := newStoveService(db).List(cmd.Context())
		if err != nil {
			ui.PrintError(cmd.ErrOrStderr(), err.Error())
			return err
		}
		ui.PrintStoves(cmd.OutOrStdout(), stoves)
		return nil
	})
}

func newStoveService(db bun.IDB) *stove.Service {
	return stove.NewService(stove.NewRepository(db), logging.NewNopLogger(), nil, "")
}

func withDB(cmd *cobra.Command, fn func(db *bun.DB) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}

	db, err := database.Open(cmd.Context(), *cfg)
	if err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}
	defer db.Close()

	return fn(db)
}
