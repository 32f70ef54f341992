package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/dentcheck/internal/assess"
	"github.com/HendryAvila/dentcheck/internal/describe"
	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/seed"
)

func newAssessCmd(a *app) *cobra.Command {
	var (
		ruleSetID    int64
		family       string
		revision     string
		requestFile  string
		describeText string
	)
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a dent against a stored rule set",
		Long: `Assess one dent and print the report.

The dent comes from a JSON or YAML request file (--request) or from a
free-text damage report (--describe). The rule set is picked by id
(--rule-set) or as the newest rule set of an aircraft family (--family,
optionally pinned with --revision). Without either, the request's
aircraft_family and then the configured default family are used.

The result is advisory and must be verified against the current SRM.`,
		Example: `  dentcheck assess --rule-set 3 --request dent.json
  dentcheck assess --family B787 --describe "LH side, STA 1280, S-10L, skin dent 25mm dia, 3mm depth, 1.6mm thick, no visible crack"
  dentcheck assess --request dent.yaml -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				req     rules.DentAssessmentRequest
				missing []string
			)
			if requestFile != "" {
				var err error
				if req, err = seed.LoadRequest(requestFile); err != nil {
					return err
				}
			} else {
				parsed := describe.Parse(describeText)
				req, missing = parsed.Request, parsed.Missing
			}
			if len(missing) > 0 {
				a.log.Warn().Strs("missing", missing).Msg("description is incomplete")
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			svc := assess.New(st, engine.New(a.cfg.Engine()), assess.Options{
				Logger:        a.log,
				DefaultFamily: a.cfg.DefaultAircraftFamily,
			})

			var report engine.Report
			if ruleSetID > 0 {
				report, err = svc.Assess(ruleSetID, req)
			} else {
				report, err = svc.AssessLatest(family, revision, req)
			}
			if err != nil {
				return err
			}

			if a.structured() {
				return a.printOutput(report)
			}
			var b strings.Builder
			b.WriteString(report.Summary())
			fmt.Fprintf(&b, "\nAssessment ID: %s | rule set #%d | evaluated %s\n",
				report.AssessmentID, report.RuleSetID, report.EvaluatedAt.Format(time.RFC3339))
			if len(missing) > 0 {
				fmt.Fprintf(&b, "Not found in the description: %s\n", strings.Join(missing, ", "))
			}
			_, err = fmt.Fprint(a.out, b.String())
			return err
		},
	}

	f := cmd.Flags()
	f.Int64Var(&ruleSetID, "rule-set", 0, "Rule set id to evaluate against")
	f.StringVar(&family, "family", "", "Use the newest rule set of this aircraft family")
	f.StringVar(&revision, "revision", "", "Pin the SRM revision when selecting by family")
	f.StringVar(&requestFile, "request", "", "Request file (.json, .yaml or .yml)")
	f.StringVar(&describeText, "describe", "", "Free-text damage report")
	cmd.MarkFlagsMutuallyExclusive("request", "describe")
	cmd.MarkFlagsOneRequired("request", "describe")
	cmd.MarkFlagsMutuallyExclusive("rule-set", "family")
	cmd.MarkFlagsMutuallyExclusive("rule-set", "revision")
	return cmd
}
