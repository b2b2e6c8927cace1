package commands

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

func newHealthCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run the numeric core smoke checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.newEngine(0)
			if err != nil {
				return err
			}
			status := eng.Health()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				return err
			}
			if !status.Healthy {
				return errors.New("engine unhealthy")
			}
			return nil
		},
	}
}
