// Package migrate implements `flora migrate`.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/migrations"
)

// Cmd is the migrate command group
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		applied, err := migrations.Up(cmd.Context(), app.DB)
		if err != nil {
			return err
		}
		if applied == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) on %s.\n", applied, app.DB.Driver())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations have been applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		statuses, err := migrations.List(cmd.Context(), app.DB)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Fprintf(out, "%5d  %-8s  %s\n", s.Version, state, s.Path)
		}
		return nil
	},
}

func init() {
	Cmd.AddCommand(upCmd)
	Cmd.AddCommand(statusCmd)
}
