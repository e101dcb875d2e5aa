package present

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/proto"
)

func TestConsole(t *testing.T) {
	t.Run("streamed reply is not printed twice", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewStyledConsole(&buf, false)
		c.TurnFinished(proto.UserTurn("hi"))
		c.TurnStarted("kimi_k2")
		c.Delta("kimi_k2", "hel")
		c.Delta("kimi_k2", "lo")
		c.TurnFinished(proto.AgentTurn("kimi_k2", "hello"))

		out := buf.String()
		require.Contains(t, out, "💬 user: hi")
		require.Contains(t, out, "🤖 kimi_k2")
		require.Equal(t, 1, strings.Count(out, "hello"))
		require.Contains(t, out, "hello\n"+strings.Repeat("─", ruleWidth))
	})

	t.Run("unstreamed reply is printed on finish", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewStyledConsole(&buf, true)
		c.TurnFinished(proto.UserTurn("hi"))
		c.TurnStarted("kimi_k2")
		c.TurnFinished(proto.AgentTurn("kimi_k2", "hello\n"))
		require.Equal(t, "hello\n", buf.String())
	})

	t.Run("failures show the reason and details", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewStyledConsole(&buf, false)
		c.TurnStarted("qwen3_coder")
		c.Delta("qwen3_coder", "partial")
		err := errs.Wrap(fmt.Errorf("%w: qwen3_coder: EOF", errs.ErrRequestFailure), "Request to qwen3_coder timed out.")
		c.TurnFinished(proto.AgentError("qwen3_coder", err))

		out := buf.String()
		require.Contains(t, out, "partial\n❌ qwen3_coder: Request to qwen3_coder timed out.\n")
		require.Contains(t, out, "request failure: qwen3_coder: EOF")
	})

	t.Run("plain errors are shown once", func(t *testing.T) {
		var buf bytes.Buffer
		NewStyledConsole(&buf, false).Failure("deepseek_r1", errors.New("boom"))
		require.Equal(t, "❌ deepseek_r1: boom\n", buf.String())
	})

	t.Run("titled prompt", func(t *testing.T) {
		var buf bytes.Buffer
		turn := proto.UserTurn("write a stack")
		turn.Title = "Task 2: Data structure"
		NewStyledConsole(&buf, false).TurnFinished(turn)
		require.Contains(t, buf.String(), "📋 Task 2: Data structure\n")
		require.Less(t, strings.Index(buf.String(), "📋"), strings.Index(buf.String(), "write a stack"))
	})

	t.Run("quiet hides chrome", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewStyledConsole(&buf, true)
		c.Banner("Survey")
		c.Notice("running %d models", 3)
		c.Success("done")
		require.Equal(t, "✅ done\n", buf.String())
	})

	t.Run("banner", func(t *testing.T) {
		var buf bytes.Buffer
		NewStyledConsole(&buf, false).Banner("Survey")
		require.Contains(t, buf.String(), "Survey")
		require.Contains(t, buf.String(), strings.Repeat("=", ruleWidth))
	})
}

func TestIsTTY(t *testing.T) {
	require.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	require.False(t, IsTTY(f))
}
