package cmd

import (
	"io"
	"os"

	"github.com/dotcommander/yteam/internal/present"
)

// drainStdin consumes piped input nobody read, such as a demo choice left
// unread after a failure, so the writer on the other end of the pipe does
// not get SIGPIPE.
func drainStdin() {
	if present.IsInputTTY() {
		return
	}
	_, _ = io.Copy(io.Discard, os.Stdin)
}
