package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/present"
	"github.com/dotcommander/yteam/internal/storage"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved transcripts",
	}

	historyCmd.AddCommand(newHistoryListCmd(rt))
	historyCmd.AddCommand(newHistoryShowCmd(rt))
	historyCmd.AddCommand(newHistoryDeleteCmd(rt))
	historyCmd.AddCommand(newHistoryPruneCmd(rt))

	return historyCmd
}

func (rt *runtime) openArchive() (*storage.Archive, error) {
	a, err := storage.OpenArchive(rt.cfg.CachePath)
	if err != nil {
		return nil, errs.Wrap(err, "Could not open the transcript history.")
	}
	return a, nil
}

func (rt *runtime) historyCompletions(toComplete string) []string {
	a, err := storage.OpenArchive(rt.cfg.CachePath)
	if err != nil {
		return nil
	}
	defer a.Close() //nolint:errcheck
	return a.Completions(toComplete)
}

func newHistoryListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			records := a.List()
			if len(records) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No transcripts found.")
				return nil
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

func newHistoryShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id-or-title]",
		Short: "Show a saved transcript; the latest one by default",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return rt.historyCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			var in string
			if len(args) == 1 {
				in = args[0]
			}
			_, tr, err := a.Load(in)
			if err != nil {
				return errs.Wrap(err, "There was an error loading the transcript.")
			}

			out := tr.String()
			if present.IsTTY(cmd.OutOrStdout()) && !rt.cfg.Raw {
				if formatted, err := present.RenderMarkdownForTTY(out, rt.cfg.WordWrap); err == nil {
					out = formatted
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newHistoryDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-title> [more...]",
		Short: "Delete saved transcripts",
		Args:  cobra.MinimumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return rt.historyCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck
			return deleteTranscripts(cmd.OutOrStdout(), a, args, rt.cfg.Quiet)
		},
	}
}

func deleteTranscripts(w io.Writer, a *storage.Archive, targets []string, quiet bool) error {
	for _, target := range targets {
		rec, err := a.Find(target)
		if err != nil {
			return errs.Wrap(err, "Couldn't find transcript to delete.")
		}
		if err := a.Delete(rec.ID); err != nil {
			return errs.Wrap(err, "Couldn't delete transcript.")
		}
		if !quiet {
			present.PrintConfirmation(w, "DELETED", rec.ShortID()+" "+rec.Title)
		}
	}
	return nil
}

func newHistoryPruneCmd(rt *runtime) *cobra.Command {
	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete transcripts older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errs.Wrap(errs.UserErrorf("missing --older-than"), "Could not delete old transcripts.")
			}
			a, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck
			return rt.prune(cmd, a, olderThan)
		},
	}
	pruneCmd.Flags().Var(newDurationFlag(olderThan, &olderThan), "older-than", "Duration to prune; e.g. 24h, 7d")
	return pruneCmd
}

func (rt *runtime) prune(cmd *cobra.Command, a *storage.Archive, olderThan time.Duration) error {
	w := cmd.OutOrStdout()
	records := a.OlderThan(olderThan)
	if len(records) == 0 {
		if !rt.cfg.Quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "No transcripts found.")
		}
		return nil
	}

	if !rt.cfg.Quiet {
		printRecords(w, records)

		if !rt.isInteractive() {
			fmt.Fprintln(cmd.ErrOrStderr())
			//nolint:wrapcheck // user-facing guidance error
			return errs.UserErrorf(
				"To delete the transcripts above, run: %s",
				strings.Join(append(os.Args, "--quiet"), " "),
			)
		}
		var confirm bool
		if err := huh.Run(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete transcripts older than %s?", olderThan)).
				Description(fmt.Sprintf("This will delete all the %d transcripts listed above.", len(records))).
				Value(&confirm),
		); err != nil {
			return errs.Wrap(err, "Couldn't delete old transcripts.")
		}
		if !confirm {
			//nolint:wrapcheck // user-facing abort
			return errs.UserErrorf("Aborted by user")
		}
	}

	for _, rec := range records {
		if err := a.Delete(rec.ID); err != nil {
			return errs.Wrap(err, "Couldn't delete transcript.")
		}
	}
	return nil
}

func printRecords(w io.Writer, records []storage.Record) {
	styles := present.StdoutStyles()
	for _, rec := range records {
		status := ""
		if rec.Failures > 0 {
			status = styles.Failure.Render(fmt.Sprintf(" %d failed", rec.Failures))
		}
		_, _ = fmt.Fprintf(
			w,
			"%s\t%s\t%s%s\t%s\n",
			styles.SHA1.Render(rec.ShortID()),
			rec.Title,
			styles.Comment.Render(strings.Join(rec.Speakers, ",")),
			status,
			styles.Timeago.Render(timeago.Of(rec.UpdatedAt)),
		)
	}
}
