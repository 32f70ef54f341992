package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/dentcheck/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		file string
		opts seed.Options
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a JSON or YAML rule set file into the rule store",
		Long: `Load a rule set and its rules from a seed file.

The whole file is validated before anything is written and the import runs
in one transaction. By default every run creates a new rule set. With
--upsert-ruleset the newest rule set of the same aircraft family and
revision is reused; add --wipe-ruleset-rules to replace its rules instead
of appending to them.`,
		Example: `  dentcheck seed -f b787_dents.yaml --upsert-ruleset --wipe-ruleset-rules`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.WipeRules && !opts.UpsertRuleSet {
				return fmt.Errorf("--wipe-ruleset-rules requires --upsert-ruleset")
			}

			f, err := seed.Load(file)
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := seed.Apply(st, f, opts)
			if err != nil {
				return fmt.Errorf("seeding %s: %w", file, err)
			}
			a.log.Info().
				Str("file", file).
				Int64("rule_set_id", res.RuleSetID).
				Bool("created", res.Created).
				Int64("wiped", res.Wiped).
				Int("inserted", res.Inserted).
				Msg("rule set seeded")

			if a.structured() {
				return a.printOutput(res)
			}
			verb := "updated"
			if res.Created {
				verb = "created"
			}
			fmt.Fprintf(a.out, "Rule set #%d %s (%s %s rev %s): inserted %d, wiped %d, total %d rules\n",
				res.RuleSetID, verb, f.RuleSet.Name, f.RuleSet.AircraftFamily, f.RuleSet.Revision,
				res.Inserted, res.Wiped, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().BoolVar(&opts.UpsertRuleSet, "upsert-ruleset", false, "Reuse the newest rule set with the same family and revision")
	cmd.Flags().BoolVar(&opts.WipeRules, "wipe-ruleset-rules", false, "Delete the reused rule set's rules before inserting")
	return cmd
}
