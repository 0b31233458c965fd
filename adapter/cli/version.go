package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/migrations"
)

var (
	// Version is set during build
	Version = "dev"
	// Commit is set during build
	Commit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, build and schema information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "flora %s (%s)\n", Version, commit())
		fmt.Fprintf(out, "  go:       %s\n", runtime.Version())

		// Version works without a database; schema details are best effort.
		if app == nil || app.DB == nil {
			return
		}
		statuses, err := migrations.List(cmd.Context(), app.DB)
		if err != nil {
			fmt.Fprintf(out, "  database: %s (schema unknown: %v)\n", app.DB.Driver(), err)
			return
		}
		applied, latest := 0, int64(0)
		for _, s := range statuses {
			if s.Applied {
				applied++
				latest = max(latest, s.Version)
			}
		}
		fmt.Fprintf(out, "  database: %s, schema %d (%d/%d migrations applied)\n", app.DB.Driver(), latest, applied, len(statuses))
	},
}

// commit falls back to the VCS revision stamped by the Go toolchain.
func commit() string {
	if Commit != "none" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return Commit
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
