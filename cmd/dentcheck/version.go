package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dcserver "github.com/HendryAvila/dentcheck/internal/server"
	"github.com/HendryAvila/dentcheck/internal/updater"
)

// newChecker is replaced in tests.
var newChecker = updater.New

func newVersionCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// Printing the version must not depend on a valid configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(a.out, "dentcheck v%s\n", dcserver.Version)
			if !check {
				return nil
			}

			result, err := newChecker().Check(cmd.Context(), dcserver.Version)
			if err != nil {
				return fmt.Errorf("version check: %w", err)
			}
			if !result.UpdateAvailable {
				fmt.Fprintf(a.out, "Up to date (latest release v%s)\n", result.LatestVersion)
				return nil
			}
			fmt.Fprintf(a.out, "Update available: v%s -> v%s\nRelease: %s\n",
				result.CurrentVersion, result.LatestVersion, result.ReleaseURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}
