package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/proto"
)

// recorder is a Completer that remembers what it was sent.
type recorder struct {
	calls  [][]proto.Message
	reply  string
	err    error
	closed int
}

func (r *recorder) Complete(_ context.Context, msgs []proto.Message, onDelta func(string)) (string, error) {
	r.calls = append(r.calls, msgs)
	if r.err != nil {
		return "", r.err
	}
	if onDelta != nil {
		onDelta(r.reply)
	}
	return r.reply, nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

func TestSend(t *testing.T) {
	rec := &recorder{reply: "fine"}
	a := New("assistant", "be nice", rec)

	var streamed string
	out, err := a.Send(context.Background(), "hi", func(s string) { streamed += s })
	require.NoError(t, err)
	require.Equal(t, "fine", out)
	require.Equal(t, "fine", streamed)

	_, err = a.Send(context.Background(), "and again", nil)
	require.NoError(t, err)
	require.Equal(t, []proto.Message{
		{Role: proto.RoleSystem, Content: "be nice"},
		{Role: proto.RoleUser, Content: "hi"},
		{Role: proto.RoleAssistant, Content: "fine"},
		{Role: proto.RoleUser, Content: "and again"},
	}, rec.calls[1])
	require.Len(t, a.History(), 4)
}

func TestSendFailureKeepsHistory(t *testing.T) {
	rec := &recorder{err: errors.New("down")}
	a := New("assistant", "", rec)

	_, err := a.Send(context.Background(), "hi", nil)
	require.EqualError(t, err, "down")
	require.Empty(t, a.History())
	require.Equal(t, []proto.Message{{Role: proto.RoleUser, Content: "hi"}}, rec.calls[0])
}

func TestReply(t *testing.T) {
	rec := &recorder{reply: "ok"}
	a := New("coder", "write code", rec)

	_, err := a.Reply(context.Background(), []proto.Turn{
		proto.UserTurn("build a todo app"),
		proto.AgentTurn("architect", "use three classes\n"),
		proto.AgentError("reviewer", errors.New("timeout")),
		proto.AgentTurn("coder", "here is the code"),
		proto.AgentTurn("architect", "looks good"),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []proto.Message{
		{Role: proto.RoleSystem, Content: "write code"},
		{Role: proto.RoleUser, Content: "build a todo app"},
		{Role: proto.RoleUser, Content: "architect: use three classes"},
		{Role: proto.RoleAssistant, Content: "here is the code"},
		{Role: proto.RoleUser, Content: "architect: looks good"},
	}, rec.calls[0])
	require.Empty(t, a.History())
}

func TestReplyAfterOwnTurn(t *testing.T) {
	rec := &recorder{reply: "ok"}
	a := New("solo", "", rec)

	_, err := a.Reply(context.Background(), []proto.Turn{
		proto.UserTurn("task"),
		proto.AgentTurn("solo", "first"),
	}, nil)
	require.NoError(t, err)
	msgs := rec.calls[0]
	require.Equal(t, proto.Message{Role: proto.RoleUser, Content: "Continue."}, msgs[len(msgs)-1])
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), "x", "", config.Profile{ID: "broken"})
	require.ErrorIs(t, err, errs.ErrTransportInit)

	a, err := Open(context.Background(), "assistant", "sys", config.Profile{
		ID: "kimi_k2", Model: "kimi-k2", BaseURL: "https://api.moonshot.cn/v1", APIKey: "sk",
	})
	require.NoError(t, err)
	require.Equal(t, "assistant", a.Name())
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestClose(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, New("a", "", rec).Close())
	require.Equal(t, 1, rec.closed)
}
