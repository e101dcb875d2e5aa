package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/yteam/internal/script"
)

func newSurveyCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "survey",
		Short: "Greet every model, test coding, then run a two-model team",
		Long: "Greet every model, test coding, then run a two-model team.\n\n" +
			"A model that is missing from the models file, or cannot be set up,\n" +
			"is reported and the remaining models still run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scenarios, err := script.Builtin().Resolve("survey")
			if err != nil {
				return err
			}
			return rt.playScenarios(cmd, scenarios)
		},
	}
}
