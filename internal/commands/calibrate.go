package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpgo/projection-engine/internal/calculation"
)

func newCalibrateCommand(g *globalOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "calibrate <history.csv>",
		Short: "Estimate return model means, volatilities and correlations from annual history",
		Long: "Reads a CSV with a year column and one column of annual returns per asset class,\n" +
			"and writes the engine configuration with the matching asset classes re-estimated.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadEngineConfig()
			if err != nil {
				return err
			}
			ds, err := calculation.LoadHistoricalData(args[0])
			if err != nil {
				return err
			}
			for _, issue := range ds.ValidateDataQuality() {
				g.logger.Warn(issue)
			}
			model, warnings, err := ds.Calibrate(cfg.Model)
			logWarnings(g, warnings)
			if err != nil {
				return err
			}
			cfg.Model = model
			if err := cfg.Validate(); err != nil {
				return err
			}
			if out != "" {
				if err := writeYAML(out, cfg); err != nil {
					return fmt.Errorf("writing engine config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return nil
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write the calibrated configuration here instead of stdout")
	return cmd
}
