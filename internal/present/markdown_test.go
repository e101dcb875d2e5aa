package present

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yteam/internal/proto"
)

func TestRenderMarkdownForTTY(t *testing.T) {
	out, err := RenderMarkdownForTTY("hello\tworld\n", 80)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "\n"))
	require.False(t, strings.Contains(out, "\t"))
}

func TestRenderTranscript(t *testing.T) {
	tr := proto.Transcript{Title: "greet", Turns: []proto.Turn{
		proto.UserTurn("hi"),
		proto.AgentError("kimi_k2", errors.New("no key")),
	}}
	out, err := RenderMarkdownForTTY(tr.String(), 80)
	require.NoError(t, err)
	require.Contains(t, out, "greet")
	require.Contains(t, out, "no key")
}

func TestMakeGradientText(t *testing.T) {
	style := lipgloss.NewStyle()
	require.Equal(t, "ab", MakeGradientText(style, "ab"))
	require.Len(t, MakeGradientRamp(5), 5)
	require.NotPanics(t, func() { MakeGradientText(style, "🤖 协作演示") })
}
