package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpgo/projection-engine/internal/config"
)

func newValidateCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check the engine configuration and a scenario without simulating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadEngineConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			scenario, warnings, err := config.NewInputParser().LoadScenario(args[0])
			for _, w := range warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			if err != nil {
				return err
			}
			if _, ok := cfg.TaxTables.Lookup(scenario.Profile.FilingStatus, 0); !ok {
				return fmt.Errorf("%w: no tax table for filing status %q", config.ErrInvalidScenario, scenario.Profile.FilingStatus)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d accounts, %d events)\n",
				args[0], len(scenario.Accounts), len(scenario.Events))
			return nil
		},
	}
}
