package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/present"
)

func newSettingsCmd(rt *runtime) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printSettings(cmd, rt.cfg.Settings)
		},
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open settings in $EDITOR",
		Args:  cobra.NoArgs,
		// Editing must work while the settings file is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return editSettings(cmd, &rt.cfg)
		},
	})
	settingsCmd.AddCommand(&cobra.Command{
		Use:       "dirs [config|cache]",
		Short:     "Print config and history directories",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "cache"},
		RunE: func(cmd *cobra.Command, args []string) error {
			printDirs(cmd, &rt.cfg, args)
			return nil
		},
	})

	return settingsCmd
}

func printSettings(cmd *cobra.Command, s config.Settings) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errs.Wrap(err, "Could not print settings.")
	}
	return enc.Close() //nolint:wrapcheck
}

// writeSettingsFile seeds path with the default settings unless it exists.
func writeSettingsFile(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	bts, err := yaml.Marshal(config.Default().Settings)
	if err != nil {
		return fmt.Errorf("encode default settings: %w", err)
	}
	if err := os.WriteFile(path, bts, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func editSettings(cmd *cobra.Command, cfg *config.Config) error {
	if err := writeSettingsFile(cfg.SettingsPath); err != nil {
		return errs.Wrap(err, "Could not write your settings file.")
	}

	c, err := editor.Cmd(filepath.Base(os.Args[0]), cfg.SettingsPath)
	if err != nil {
		return errs.Wrap(err, "Could not edit your settings file.")
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return errs.Wrapf(err, "Missing %s.", present.StderrStyles().InlineCode.Render("$EDITOR"))
	}

	if !cfg.Quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "Wrote settings file to:", cfg.SettingsPath)
	}
	return nil
}

func printDirs(cmd *cobra.Command, cfg *config.Config, args []string) {
	w := cmd.OutOrStdout()
	if len(args) > 0 {
		switch args[0] {
		case "config":
			fmt.Fprintln(w, filepath.Dir(cfg.SettingsPath))
			return
		case "cache":
			fmt.Fprintln(w, cfg.CachePath)
			return
		}
	}

	fmt.Fprintf(w, "Configuration: %s\n", filepath.Dir(cfg.SettingsPath))
	//nolint:mnd
	fmt.Fprintf(w, "%*sHistory: %s\n", 6, " ", cfg.CachePath)
}
