package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/present"
)

func handleError(w io.Writer, err error) {
	drainStdin()

	styles := present.StderrStyles()
	format := "\n%s\n\n"

	var ferr flagParseError
	if errors.As(err, &ferr) {
		args := []any{
			fmt.Sprintf(
				"Check out %s %s",
				styles.InlineCode.Render("yteam -h"),
				styles.Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				styles.InlineCode.Render(ferr.Flag()),
			),
		}
		fmt.Fprintf(w, format+"%s\n\n", args...)
		return
	}

	var merr errs.Error
	if errors.As(err, &merr) {
		formatArgs := []any{styles.ErrPadding.Render(styles.ErrorHeader.String(), merr.ReasonText())}
		if !errors.Is(merr.Err, huh.ErrUserAborted) && merr.Err != nil {
			format += "%s\n\n"
			formatArgs = append(formatArgs, styles.ErrPadding.Render(styles.ErrorDetails.Render(merr.Err.Error())))
		}
		fmt.Fprintf(w, format, formatArgs...)
		return
	}

	fmt.Fprintf(w, format, styles.ErrPadding.Render(styles.ErrorDetails.Render(err.Error())))
}
