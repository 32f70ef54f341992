package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRuleSetsCmd(a *app) *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:     "rulesets",
		Aliases: []string{"rule-sets", "ls"},
		Short:   "List stored rule sets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sets, err := st.ListRuleSets(family)
			if err != nil {
				return fmt.Errorf("listing rule sets: %w", err)
			}

			if a.structured() {
				return a.printOutput(sets)
			}
			if len(sets) == 0 {
				fmt.Fprintln(a.out, "No rule sets found. Load one with: dentcheck seed -f <file>")
				return nil
			}

			headers := []string{"ID", "Name", "Family", "Revision", "Effective", "Rules", "Enabled"}
			rows := make([][]string, 0, len(sets))
			for _, rs := range sets {
				effective := rs.EffectiveDate
				if effective == "" {
					effective = "-"
				}
				rows = append(rows, []string{
					strconv.FormatInt(rs.ID, 10),
					rs.Name,
					rs.AircraftFamily,
					rs.Revision,
					effective,
					strconv.Itoa(rs.RuleCount),
					strconv.Itoa(rs.EnabledCount),
				})
			}
			a.printTable(headers, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "Only list rule sets of this aircraft family")
	return cmd
}
