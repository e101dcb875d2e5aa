package session

import (
	"strings"

	"github.com/dotcommander/yteam/internal/proto"
)

// TerminationFunc reports whether a team exchange should stop, given the
// turns delivered so far. Failed turns are never passed in.
type TerminationFunc func(turns []proto.Turn) bool

// MaxMessages stops once n turns, task included, were delivered.
func MaxMessages(n int) TerminationFunc {
	return func(turns []proto.Turn) bool {
		return n > 0 && len(turns) >= n
	}
}

// TextMention stops once the latest agent reply contains text.
func TextMention(text string) TerminationFunc {
	return func(turns []proto.Turn) bool {
		if text == "" || len(turns) == 0 {
			return false
		}
		last := turns[len(turns)-1]
		return last.Role == proto.TurnAgent && strings.Contains(last.Content, text)
	}
}

// AnyOf stops as soon as one of fns does. Nil entries are skipped.
func AnyOf(fns ...TerminationFunc) TerminationFunc {
	return func(turns []proto.Turn) bool {
		for _, fn := range fns {
			if fn != nil && fn(turns) {
				return true
			}
		}
		return false
	}
}
