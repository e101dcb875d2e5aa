package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/present"
	"github.com/dotcommander/yteam/internal/script"
)

type demoOption struct {
	label     string
	scenarios []string
}

var demoOptions = []demoOption{
	{"Team collaboration (recommended)", []string{"team-grades"}},
	{"Single model coding test", []string{"coding-suite"}},
	{"Both", []string{"team-grades", "coding-suite"}},
}

const defaultDemoChoice = 1

// menuChoice parses a menu answer. Anything but a listed number selects the
// default option, with fallback set.
func menuChoice(input string) (choice int, fallback bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(demoOptions) {
		return defaultDemoChoice, true
	}
	return n, false
}

func newDemoCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Pick a coding demo from a menu",
		Long: "Pick a coding demo from a menu:\n\n" +
			"  1. team collaboration (recommended)\n" +
			"  2. single model coding test\n" +
			"  3. both\n\n" +
			"The choice is read from standard input when it is not a terminal.\n" +
			"Any other answer runs option 1.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			choice, err := rt.askDemo(cmd)
			if err != nil {
				return err
			}
			builtin := script.Builtin()
			scenarios := make([]script.Scenario, 0, 2)
			for _, name := range demoOptions[choice-1].scenarios {
				sc, err := builtin.Get(name)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, sc)
			}
			return rt.playScenarios(cmd, scenarios)
		},
	}
}

func (rt *runtime) askDemo(cmd *cobra.Command) (int, error) {
	if rt.isInteractive() {
		choice := defaultDemoChoice
		opts := make([]huh.Option[int], 0, len(demoOptions))
		for i, o := range demoOptions {
			opts = append(opts, huh.NewOption(fmt.Sprintf("%d. %s", i+1, o.label), i+1))
		}
		err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[int]().
				Title("Choose a demo:").
				Options(opts...).
				Value(&choice),
		)).Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, errs.Wrap(err, "User canceled.")
		}
		if err != nil {
			return 0, errs.Wrap(err, "Prompt failed.")
		}
		return choice, nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Choose a demo:")
	for i, o := range demoOptions {
		fmt.Fprintf(w, "%d. %s\n", i+1, o.label)
	}
	fmt.Fprintf(w, "Enter a choice (1-%d): ", len(demoOptions))

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, errs.Wrap(err, "Could not read the menu choice.")
	}
	fmt.Fprintln(w)
	choice, fallback := menuChoice(line)
	if fallback {
		fmt.Fprintln(w, present.StdoutStyles().Comment.Render(
			fmt.Sprintf("🔄 %q is not an option, running option %d.", strings.TrimSpace(line), choice),
		))
	}
	return choice, nil
}
