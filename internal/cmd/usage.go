package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/dotcommander/yteam/internal/present"
)

func useLine() string {
	appName := filepath.Base(os.Args[0])

	if present.StdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = present.MakeGradientText(present.StdoutStyles().AppName, appName)
	}

	return fmt.Sprintf(
		"%s %s",
		appName,
		present.StdoutStyles().CliArgs.Render("<COMMAND> [OPTIONS] [ARGS]"),
	)
}

func usageFunc(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	styles := present.StdoutStyles()

	if cmd.HasParent() {
		fmt.Fprintf(w, "Usage:\n  %s\n\n", styles.CliArgs.Render(cmd.UseLine()))
	} else {
		fmt.Fprintf(w, "Usage:\n  %s\n\n", useLine())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(w, "Commands:")
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			fmt.Fprintf(w, "  %-26s %s\n", styles.Flag.Render(sub.Name()), styles.FlagDesc.Render(sub.Short))
		}
		fmt.Fprintln(w)
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintln(w, "Options:")
		printFlags(w, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintln(w, "\nGlobal options:")
		printFlags(w, cmd.InheritedFlags())
	}

	if cmd.HasExample() {
		if code, ok := examples[cmd.Example]; ok {
			fmt.Fprintf(w,
				"\nExample:\n  %s\n  %s\n",
				styles.Comment.Render("# "+cmd.Example),
				cheapHighlighting(styles, code),
			)
		}
	}

	return nil
}

func printFlags(w io.Writer, flags *flag.FlagSet) {
	styles := present.StdoutStyles()
	flags.VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Fprintf(w,
				"  %-44s %s\n",
				styles.Flag.Render("--"+f.Name),
				styles.FlagDesc.Render(f.Usage),
			)
			return
		}
		fmt.Fprintf(w,
			"  %s%s %-40s %s\n",
			styles.Flag.Render("-"+f.Shorthand),
			styles.FlagComma,
			styles.Flag.Render("--"+f.Name),
			styles.FlagDesc.Render(f.Usage),
		)
	})
}
