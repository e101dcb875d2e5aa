package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yteam/internal/client"
	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/present"
)

func newModelsCmd(rt *runtime) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the models file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listModels(cmd.OutOrStdout(), rt.cfg)
		},
	}

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List model identifiers with redacted keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listModels(cmd.OutOrStdout(), rt.cfg)
		},
	})

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the models file as yteam reads it, keys redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showModels(cmd.OutOrStdout(), rt.cfg)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a models file template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteModelsFile(rt.cfg.ModelsFile, force); err != nil {
				return err
			}
			if !rt.cfg.Quiet {
				present.PrintConfirmation(cmd.OutOrStdout(), "WROTE", rt.cfg.ModelsFile)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Replace an existing models file")
	modelsCmd.AddCommand(initCmd)

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open the models file in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return editModels(cmd, rt.cfg)
		},
	})

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "check [model...]",
		Short: "Set up a client for each model without sending anything",
		Args:  cobra.ArbitraryArgs,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return rt.modelCompletions(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.checkModels(cmd, args)
		},
	})

	return modelsCmd
}

func listModels(w io.Writer, cfg config.Config) error {
	profiles, err := config.LoadProfiles(cfg.ModelsFile)
	if err != nil {
		return errs.Wrapf(err, "Could not load %s.", cfg.ModelsFile)
	}
	styles := present.StdoutStyles()
	for _, id := range profiles.IDs() {
		p, err := profiles.Lookup(id)
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\n", id, styles.Failure.Render("❌ "+errs.Reason(err)))
			continue
		}
		p = p.Redacted()
		if cfg.Raw {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, p.Model, p.BaseURL, keySource(p))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			styles.Flag.Render(id),
			p.Model,
			styles.Comment.Render(strings.TrimSpace(p.BaseURL+" "+keySource(p))),
		)
	}
	return nil
}

func showModels(w io.Writer, cfg config.Config) error {
	profiles, err := config.LoadProfiles(cfg.ModelsFile)
	if err != nil {
		return errs.Wrapf(err, "Could not load %s.", cfg.ModelsFile)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(profiles.Redacted()); err != nil {
		return errs.Wrap(err, "Could not print the models file.")
	}
	return enc.Close()
}

// keySource describes where a profile's credential comes from without
// printing it.
func keySource(p config.Profile) string {
	switch {
	case p.APIKey != "":
		return "key " + p.APIKey
	case p.APIKeyEnv != "":
		return "$" + p.APIKeyEnv
	case p.APIKeyCmd != "":
		return "cmd"
	default:
		return "no key"
	}
}

func editModels(cmd *cobra.Command, cfg config.Config) error {
	if _, err := os.Stat(cfg.ModelsFile); errors.Is(err, fs.ErrNotExist) {
		if err := config.WriteModelsFile(cfg.ModelsFile, false); err != nil {
			return err
		}
	}

	c, err := editor.Cmd(filepath.Base(os.Args[0]), cfg.ModelsFile)
	if err != nil {
		return errs.Wrap(err, "Could not edit your models file.")
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return errs.Wrapf(err, "Missing %s.", present.StderrStyles().InlineCode.Render("$EDITOR"))
	}

	if _, err := config.LoadProfiles(cfg.ModelsFile); err != nil {
		return errs.Wrapf(err, "%s no longer parses.", cfg.ModelsFile)
	}
	if !cfg.Quiet {
		present.PrintConfirmation(cmd.ErrOrStderr(), "SAVED", cfg.ModelsFile)
	}
	return nil
}

func (rt *runtime) checkModels(cmd *cobra.Command, ids []string) error {
	profiles, err := config.LoadProfiles(rt.cfg.ModelsFile)
	if err != nil {
		return errs.Wrapf(err, "Could not load %s.", rt.cfg.ModelsFile)
	}
	if len(ids) == 0 {
		ids = profiles.IDs()
	}

	console := present.NewStyledConsole(cmd.OutOrStdout(), rt.cfg.Quiet)
	failed := 0
	for _, r := range profiles.Resolve(ids...) {
		if r.Err != nil {
			failed++
			console.Failure(r.ID, r.Err)
			continue
		}
		c, err := client.New(cmd.Context(), r.Profile,
			client.WithProxy(rt.cfg.HTTPProxy),
			client.WithLogger(rt.logger()),
		)
		if err != nil {
			failed++
			console.Failure(r.ID, err)
			continue
		}
		_ = c.Close()
		console.Success("%s: %s", r.ID, r.Profile.Model)
	}
	if failed > 0 {
		return errs.Wrapf(
			fmt.Errorf("%d of %d models failed", failed, len(ids)),
			"Some models could not be set up.",
		)
	}
	return nil
}

func (rt *runtime) modelCompletions() []string {
	profiles, err := config.LoadProfiles(rt.cfg.ModelsFile)
	if err != nil {
		return nil
	}
	return profiles.IDs()
}
