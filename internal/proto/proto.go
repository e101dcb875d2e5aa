// Package proto defines the messages and turns exchanged between the session
// runner, the agents and the console.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Roles of a chat message sent to a model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message sent to a model.
type Message struct {
	Role    string
	Content string
}

// TurnRole tags who produced a Turn.
type TurnRole string

// Turn roles.
const (
	TurnUser  TurnRole = "user"
	TurnAgent TurnRole = "agent"
)

// Turn is one entry of a conversation transcript.
//
// A failed unit of work is an agent turn with Err set and empty Content.
type Turn struct {
	Role    TurnRole
	Speaker string
	// Title optionally heads a user turn, such as "Task 2: Data structure".
	Title   string
	Content string
	Err     error
}

// UserTurn returns a turn carrying a prompt.
func UserTurn(content string) Turn {
	return Turn{Role: TurnUser, Speaker: string(TurnUser), Content: content}
}

// AgentTurn returns a successful reply from speaker.
func AgentTurn(speaker, content string) Turn {
	return Turn{Role: TurnAgent, Speaker: speaker, Content: content}
}

// AgentError returns a failed reply from speaker.
func AgentError(speaker string, err error) Turn {
	return Turn{Role: TurnAgent, Speaker: speaker, Err: err}
}

// Failed reports whether the turn records a failure.
func (t Turn) Failed() bool { return t.Err != nil }

type turnJSON struct {
	Role    TurnRole `json:"role"`
	Speaker string   `json:"speaker,omitempty"`
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// MarshalJSON stores Err as its message.
func (t Turn) MarshalJSON() ([]byte, error) {
	v := turnJSON{Role: t.Role, Speaker: t.Speaker, Title: t.Title, Content: t.Content}
	if t.Err != nil {
		v.Error = t.Err.Error()
	}
	return json.Marshal(v)
}

// UnmarshalJSON restores a turn written by MarshalJSON. The error kind is
// not preserved, only its message.
func (t *Turn) UnmarshalJSON(b []byte) error {
	var v turnJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Turn{Role: v.Role, Speaker: v.Speaker, Title: v.Title, Content: v.Content}
	if v.Error != "" {
		t.Err = errors.New(v.Error)
	}
	return nil
}

// Transcript is the ordered result of one scenario run.
type Transcript struct {
	Title    string `json:"title"`
	Scenario string `json:"scenario"`
	Turns    []Turn `json:"turns"`
}

// Speakers returns the distinct agent speakers in order of first appearance.
func (t Transcript) Speakers() []string {
	var out []string
	seen := map[string]bool{}
	for _, turn := range t.Turns {
		if turn.Role != TurnAgent || seen[turn.Speaker] {
			continue
		}
		seen[turn.Speaker] = true
		out = append(out, turn.Speaker)
	}
	return out
}

// Delivered returns the turns that are not failures, in order.
func Delivered(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if !t.Failed() {
			out = append(out, t)
		}
	}
	return out
}

// Failures counts failed turns.
func (t Transcript) Failures() int {
	n := 0
	for _, turn := range t.Turns {
		if turn.Failed() {
			n++
		}
	}
	return n
}

// String renders the transcript as markdown.
func (t Transcript) String() string {
	var sb strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", t.Title)
	}
	for _, turn := range t.Turns {
		switch {
		case turn.Role == TurnUser && turn.Title != "":
			fmt.Fprintf(&sb, "### user · %s\n\n", turn.Title)
		case turn.Role == TurnUser:
			sb.WriteString("### user\n\n")
		case turn.Failed():
			fmt.Fprintf(&sb, "### agent · %s (failed)\n\n", turn.Speaker)
		default:
			fmt.Fprintf(&sb, "### agent · %s\n\n", turn.Speaker)
		}
		if turn.Failed() {
			fmt.Fprintf(&sb, "> %s\n\n", turn.Err)
			continue
		}
		sb.WriteString(strings.TrimSpace(turn.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
