package session

import "github.com/dotcommander/yteam/internal/proto"

// Observer is told about turns as they happen.
//
// User turns and failed constructions only produce TurnFinished. Agent
// replies produce TurnStarted, any number of Delta calls, then TurnFinished.
type Observer interface {
	TurnStarted(speaker string)
	Delta(speaker, text string)
	TurnFinished(turn proto.Turn)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) TurnStarted(string)      {}
func (NopObserver) Delta(string, string)    {}
func (NopObserver) TurnFinished(proto.Turn) {}

func replay(obs Observer, turns []proto.Turn) {
	for _, t := range turns {
		if t.Role == proto.TurnAgent && !t.Failed() {
			obs.TurnStarted(t.Speaker)
		}
		obs.TurnFinished(t)
	}
}
