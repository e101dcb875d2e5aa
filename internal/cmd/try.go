package cmd

import (
	"github.com/charmbracelet/x/exp/ordered"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yteam/internal/script"
)

func newTryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "try [model]",
		Short: "Send the quick test prompts to one model",
		Long: "Send the quick test prompts to one model.\n\n" +
			"The model defaults to the default-model setting (kimi_k2).",
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return rt.modelCompletions(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			sc, err := tryScenario(ordered.First(arg, rt.cfg.DefaultModel))
			if err != nil {
				return err
			}
			return rt.playScenarios(cmd, []script.Scenario{sc})
		},
	}
}

// tryScenario is the built-in "try" scenario aimed at model.
func tryScenario(model string) (script.Scenario, error) {
	sc, err := script.Builtin().Get("try")
	if err != nil {
		return sc, err
	}
	sc.Models = []string{model}
	sc.Title += " · " + model
	return sc, nil
}
