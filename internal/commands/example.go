package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpgo/projection-engine/internal/config"
)

func newExampleCommand(_ *globalOptions) *cobra.Command {
	var withConfig string

	cmd := &cobra.Command{
		Use:   "example <scenario.yaml>",
		Short: "Write an example scenario (and optionally the default engine config)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := config.NewInputParser().CreateExampleScenario()
			if err := writeYAML(args[0], scenario); err != nil {
				return fmt.Errorf("writing scenario: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			if withConfig != "" {
				if err := writeYAML(withConfig, config.DefaultEngineConfig()); err != nil {
					return fmt.Errorf("writing engine config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", withConfig)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&withConfig, "with-config", "", "also write the default engine configuration to this path")
	return cmd
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
