package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HendryAvila/dentcheck/internal/config"
	"github.com/HendryAvila/dentcheck/internal/logging"
	"github.com/HendryAvila/dentcheck/internal/store"
)

// app carries what every subcommand needs once the root has resolved the
// configuration.
type app struct {
	v      *viper.Viper
	out    io.Writer
	cfg    *config.Config
	log    zerolog.Logger
	output string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), out: stdout}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "dentcheck",
		Short: "SRM dent assessment rule engine",
		Long: `dentcheck evaluates fuselage dents against SRM rule sets.

Rule sets are loaded from JSON or YAML seed files into a local SQLite store.
An assessment picks the most specific applicable rule, checks every limit it
configures and returns a disposition with a rationale.

Every result is advisory and must be verified against the current SRM.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch a.output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unsupported output format: %s (use text, json or yaml)", a.output)
			}
			if cfgFile != "" {
				a.v.SetConfigFile(cfgFile)
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.NewLogger(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.String("data-dir", "", "Directory holding the rule store (default ~/.dentcheck)")
	pf.String("db-file", "", "Rule store file name inside data-dir (default rules.db)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	pf.String("log-format", "", "Log format: json or console")
	pf.StringVarP(&a.output, "output", "o", "text", "Output format: text, json, yaml")

	for key, flag := range map[string]string{
		config.KeyDataDir:   "data-dir",
		config.KeyDBFile:    "db-file",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(
		newServeCmd(a),
		newSeedCmd(a),
		newAssessCmd(a),
		newRuleSetsCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// openStore opens the configured rule store. Callers close it.
func (a *app) openStore() (*store.Store, error) {
	st, err := store.New(a.cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("opening rule store: %w", err)
	}
	return st, nil
}
