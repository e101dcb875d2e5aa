package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/dotcommander/yteam/internal/client"
	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/proto"
)

// Completer is the part of a model client an agent needs.
type Completer interface {
	Complete(ctx context.Context, msgs []proto.Message, onDelta func(string)) (string, error)
	Close() error
}

var _ Completer = (*client.Client)(nil)

// Agent answers prompts through one client.
type Agent struct {
	name    string
	system  string
	client  Completer
	history []proto.Message
}

// New returns an agent backed by c. The agent owns c from now on.
func New(name, system string, c Completer) *Agent {
	return &Agent{name: name, system: system, client: c}
}

// Open builds a client for p and wraps it in an agent.
func Open(ctx context.Context, name, system string, p config.Profile, opts ...client.Option) (*Agent, error) {
	c, err := client.New(ctx, p, opts...)
	if err != nil {
		return nil, err
	}
	return New(name, system, c), nil
}

// Name is the speaker name of the agent.
func (a *Agent) Name() string { return a.name }

// History returns the messages exchanged through Send so far.
func (a *Agent) History() []proto.Message {
	return append([]proto.Message(nil), a.history...)
}

// Send continues the agent's own conversation with prompt. The exchange is
// only kept in the history when the model answers.
func (a *Agent) Send(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	msgs := a.withSystem(len(a.history) + 1)
	msgs = append(msgs, a.history...)
	msgs = append(msgs, proto.Message{Role: proto.RoleUser, Content: prompt})

	reply, err := a.client.Complete(ctx, msgs, onDelta)
	if err != nil {
		return "", err
	}
	a.history = append(a.history,
		proto.Message{Role: proto.RoleUser, Content: prompt},
		proto.Message{Role: proto.RoleAssistant, Content: reply},
	)
	return reply, nil
}

// Reply answers the last message of a shared transcript. The agent's own
// turns are sent as assistant messages and everybody else's as user messages
// tagged with the speaker. Failed turns are left out.
func (a *Agent) Reply(ctx context.Context, turns []proto.Turn, onDelta func(string)) (string, error) {
	return a.client.Complete(ctx, a.transcript(turns), onDelta)
}

func (a *Agent) transcript(turns []proto.Turn) []proto.Message {
	msgs := a.withSystem(len(turns) + 1)
	for _, turn := range turns {
		switch {
		case turn.Failed():
			continue
		case turn.Role == proto.TurnAgent && turn.Speaker == a.name:
			msgs = append(msgs, proto.Message{Role: proto.RoleAssistant, Content: turn.Content})
		case turn.Role == proto.TurnAgent:
			msgs = append(msgs, proto.Message{
				Role:    proto.RoleUser,
				Content: fmt.Sprintf("%s: %s", turn.Speaker, strings.TrimSpace(turn.Content)),
			})
		default:
			msgs = append(msgs, proto.Message{Role: proto.RoleUser, Content: turn.Content})
		}
	}
	if n := len(msgs); n == 0 || msgs[n-1].Role != proto.RoleUser {
		msgs = append(msgs, proto.Message{Role: proto.RoleUser, Content: "Continue."})
	}
	return msgs
}

func (a *Agent) withSystem(extra int) []proto.Message {
	msgs := make([]proto.Message, 0, extra+1)
	if a.system != "" {
		msgs = append(msgs, proto.Message{Role: proto.RoleSystem, Content: a.system})
	}
	return msgs
}

// Close releases the client.
func (a *Agent) Close() error {
	return a.client.Close()
}
