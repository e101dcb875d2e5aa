package proto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTurnJSON(t *testing.T) {
	t.Run("failed turn keeps the error message", func(t *testing.T) {
		bts, err := json.Marshal(AgentError("kimi_k2", errors.New("request failure: EOF")))
		require.NoError(t, err)
		require.JSONEq(t, `{"role":"agent","speaker":"kimi_k2","error":"request failure: EOF"}`, string(bts))

		var turn Turn
		require.NoError(t, json.Unmarshal(bts, &turn))
		require.True(t, turn.Failed())
		require.EqualError(t, turn.Err, "request failure: EOF")
	})

	t.Run("successful turn has no error", func(t *testing.T) {
		var turn Turn
		require.NoError(t, json.Unmarshal([]byte(`{"role":"user","speaker":"user","content":"hi"}`), &turn))
		require.Equal(t, UserTurn("hi"), turn)
		require.False(t, turn.Failed())
	})

	t.Run("titled prompt", func(t *testing.T) {
		in := UserTurn("write a stack")
		in.Title = "Task 2: Data structure"
		bts, err := json.Marshal(in)
		require.NoError(t, err)

		var turn Turn
		require.NoError(t, json.Unmarshal(bts, &turn))
		require.Equal(t, in, turn)
		require.Contains(t, Transcript{Turns: []Turn{in}}.String(), "### user · Task 2: Data structure")
	})
}

func TestDelivered(t *testing.T) {
	turns := []Turn{UserTurn("task"), AgentError("a", errors.New("down")), AgentTurn("b", "ok")}
	require.Equal(t, []Turn{turns[0], turns[2]}, Delivered(turns))
	require.Empty(t, Delivered(nil))
}

func TestTranscript(t *testing.T) {
	tr := Transcript{
		Title: "greet",
		Turns: []Turn{
			UserTurn("hello"),
			AgentTurn("architect", "  hi there\n"),
			AgentError("coder", errors.New("boom")),
			AgentTurn("architect", "again"),
		},
	}

	require.Equal(t, []string{"architect", "coder"}, tr.Speakers())
	require.Equal(t, 1, tr.Failures())
	require.Equal(t, "# greet\n\n"+
		"### user\n\nhello\n\n"+
		"### agent · architect\n\nhi there\n\n"+
		"### agent · coder (failed)\n\n> boom\n\n"+
		"### agent · architect\n\nagain\n\n", tr.String())
}
