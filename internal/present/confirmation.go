package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultAction = "WROTE"

// PrintConfirmation prints a short action header plus content to w.
func PrintConfirmation(w io.Writer, action, content string) {
	if action == "" {
		action = defaultAction
	}
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F1F1F1")).
		Background(lipgloss.Color("#6C50FF")).
		Bold(true).
		Padding(0, 1).
		MarginRight(1).
		SetString(strings.ToUpper(action))
	_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Center, header.String(), content))
}
