package present

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

type fder interface {
	Fd() uintptr
}

// IsTTY reports whether w is a terminal. Buffers and pipes are not.
func IsTTY(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var isInputTTY = sync.OnceValue(func() bool { return IsTTY(os.Stdin) })

// IsInputTTY reports whether stdin is a TTY.
func IsInputTTY() bool { return isInputTTY() }

var isOutputTTY = sync.OnceValue(func() bool { return IsTTY(os.Stdout) })

// IsOutputTTY reports whether stdout is a TTY.
func IsOutputTTY() bool { return isOutputTTY() }

var stdoutRenderer = sync.OnceValue(lipgloss.DefaultRenderer)

// StdoutRenderer returns a lipgloss renderer bound to stdout.
func StdoutRenderer() *lipgloss.Renderer { return stdoutRenderer() }

var stdoutStyles = sync.OnceValue(func() Styles { return MakeStyles(StdoutRenderer()) })

// StdoutStyles returns shared styles bound to stdout. Usage and listings
// use them.
func StdoutStyles() Styles { return stdoutStyles() }

var stderrStyles = sync.OnceValue(func() Styles {
	return MakeStyles(lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true)))
})

// StderrStyles returns shared styles bound to stderr, where errors go.
func StderrStyles() Styles { return stderrStyles() }
