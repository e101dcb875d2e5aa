package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/yteam/internal/script"
)

func newRunCmd(rt *runtime) *cobra.Command {
	var list bool
	runCmd := &cobra.Command{
		Use:   "run [scenario-or-suite...]",
		Short: "Run scenarios from a script file or the built-in set",
		Args:  cobra.ArbitraryArgs,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			s, err := loadScript(rt.cfg.ScriptPath)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return s.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScript(rt.cfg.ScriptPath)
			if err != nil {
				return err
			}
			if list || len(args) == 0 {
				for _, name := range s.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			var scenarios []script.Scenario
			for _, name := range args {
				resolved, err := s.Resolve(name)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, resolved...)
			}
			return rt.playScenarios(cmd, scenarios)
		},
	}
	runCmd.Flags().StringVarP(&rt.cfg.ScriptPath, "script", "f", "", "Scenario file; the built-in scenarios when empty")
	runCmd.Flags().BoolVarP(&list, "list", "l", false, "List the scenarios and suites")
	return runCmd
}

func loadScript(path string) (script.Script, error) {
	if path == "" {
		return script.Builtin(), nil
	}
	return script.Load(path)
}
