// Package session drives prompts through model-backed participants and
// collects the resulting turns.
//
// Failures never escape a run: a participant that cannot be built, or a
// prompt that cannot be answered, becomes an agent turn carrying the error.
// Every participant a run builds is closed exactly once before it returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/yteam/internal/agent"
	"github.com/dotcommander/yteam/internal/client"
	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/proto"
)

// Participant is one speaker of a session.
type Participant interface {
	Name() string
	Send(ctx context.Context, prompt string, onDelta func(string)) (string, error)
	Reply(ctx context.Context, turns []proto.Turn, onDelta func(string)) (string, error)
	Close() error
}

var _ Participant = (*agent.Agent)(nil)

// Member describes a participant to build.
type Member struct {
	Name    string
	System  string
	Profile config.Profile

	// Err, when set, is why the member's profile could not be resolved.
	// Building the member fails with it, at the member's place in the run.
	Err error
}

// Factory builds the participant for m.
type Factory func(ctx context.Context, m Member) (Participant, error)

// AgentFactory builds agents backed by real model clients.
func AgentFactory(opts ...client.Option) Factory {
	return func(ctx context.Context, m Member) (Participant, error) {
		return agent.Open(ctx, m.Name, m.System, m.Profile, opts...)
	}
}

// DefaultMaxTurns bounds team exchanges when Runner.MaxTurns is not set.
const DefaultMaxTurns = 20

// Runner runs prompts and team tasks.
type Runner struct {
	Factory Factory

	// Name and System are templates for the members Run builds; "{model}"
	// is replaced by the profile ID. An empty Name means the profile ID.
	Name   string
	System string

	// Titles head the prompts of Run by index. Missing or empty entries
	// leave the prompt untitled.
	Titles []string

	// MaxTurns caps the number of replies in a team exchange.
	MaxTurns int

	// Parallel runs the profiles of Run concurrently. Turns are still
	// returned, and reported to the Observer, in profile order.
	Parallel bool

	Observer Observer
	Logger   *zap.Logger
}

// Members turns profiles into members using the runner's templates.
func (r *Runner) Members(profiles []config.Profile) []Member {
	members := make([]Member, 0, len(profiles))
	for _, p := range profiles {
		members = append(members, r.Member(p))
	}
	return members
}

// Member turns one profile into a member using the runner's templates.
func (r *Runner) Member(p config.Profile) Member {
	name := expand(r.Name, p.ID)
	if name == "" {
		name = p.ID
	}
	return Member{Name: name, System: expand(r.System, p.ID), Profile: p}
}

func expand(tmpl, id string) string {
	return strings.ReplaceAll(tmpl, "{model}", id)
}

// Run sends every prompt, in order, to a fresh participant for each profile.
//
// For each profile the result holds a user turn followed by an agent turn per
// prompt. When the participant cannot be built, it holds one failed agent
// turn per prompt instead.
func (r *Runner) Run(ctx context.Context, profiles []config.Profile, prompts []string) []proto.Turn {
	return r.RunMembers(ctx, r.Members(profiles), prompts)
}

// RunMembers is Run for explicitly named members.
func (r *Runner) RunMembers(ctx context.Context, members []Member, prompts []string) []proto.Turn {
	if !r.Parallel || len(members) < 2 {
		var turns []proto.Turn
		for _, m := range members {
			turns = append(turns, r.runMember(ctx, m, prompts, r.observer())...)
		}
		return orEmpty(turns)
	}

	results := make([][]proto.Turn, len(members))
	var g errgroup.Group
	for i, m := range members {
		g.Go(func() error {
			results[i] = r.runMember(ctx, m, prompts, NopObserver{})
			return nil
		})
	}
	_ = g.Wait()

	obs := r.observer()
	var turns []proto.Turn
	for _, res := range results {
		replay(obs, res)
		turns = append(turns, res...)
	}
	return orEmpty(turns)
}

func (r *Runner) runMember(ctx context.Context, m Member, prompts []string, obs Observer) []proto.Turn {
	log := r.logger().With(zap.String("member", m.Name), zap.String("model", m.Profile.ID))

	p, err := r.build(ctx, m)
	if err != nil {
		log.Warn("could not build participant", zap.Error(err))
		turns := make([]proto.Turn, 0, len(prompts))
		for range prompts {
			t := proto.AgentError(m.Name, err)
			obs.TurnFinished(t)
			turns = append(turns, t)
		}
		return turns
	}
	defer r.release(p, log)

	turns := make([]proto.Turn, 0, 2*len(prompts))
	for i, prompt := range prompts {
		u := proto.UserTurn(prompt)
		if i < len(r.Titles) {
			u.Title = r.Titles[i]
		}
		obs.TurnFinished(u)
		turns = append(turns, u)

		obs.TurnStarted(m.Name)
		reply, err := p.Send(ctx, prompt, func(s string) { obs.Delta(m.Name, s) })
		t := proto.AgentTurn(m.Name, reply)
		if err != nil {
			log.Warn("prompt failed", zap.Int("prompt", i+1), zap.Error(err))
			t = proto.AgentError(m.Name, requestFailure(m.Name, err))
		}
		obs.TurnFinished(t)
		turns = append(turns, t)
	}
	return turns
}

// RunTeam lets members answer a shared transcript in round-robin order,
// starting with task as the first user turn.
//
// The exchange stops as soon as stop reports true for the turns delivered so
// far (failures are not shown to stop), after MaxTurns replies, when the context is done, or after a full round in
// which every member failed. A member that cannot be built is reported with
// one failed turn and left out of the rotation.
func (r *Runner) RunTeam(ctx context.Context, members []Member, task string, stop TerminationFunc) []proto.Turn {
	obs := r.observer()
	log := r.logger()

	turns := []proto.Turn{proto.UserTurn(task)}
	obs.TurnFinished(turns[0])

	var active []Participant
	defer func() {
		for _, p := range active {
			r.release(p, log.With(zap.String("member", p.Name())))
		}
	}()
	for _, m := range members {
		p, err := r.build(ctx, m)
		if err != nil {
			log.Warn("could not build team member", zap.String("member", m.Name), zap.Error(err))
			t := proto.AgentError(m.Name, err)
			obs.TurnFinished(t)
			turns = append(turns, t)
			continue
		}
		active = append(active, p)
	}
	if len(active) == 0 {
		return turns
	}

	failedInRow := 0
	for i := 0; i < r.maxTurns(); i++ {
		if stop != nil && stop(proto.Delivered(turns)) {
			log.Debug("termination condition met", zap.Int("turns", len(turns)))
			break
		}
		if ctx.Err() != nil {
			break
		}

		p := active[i%len(active)]
		name := p.Name()
		obs.TurnStarted(name)
		reply, err := p.Reply(ctx, turns, func(s string) { obs.Delta(name, s) })
		t := proto.AgentTurn(name, reply)
		if err != nil {
			log.Warn("team member failed", zap.String("member", name), zap.Error(err))
			t = proto.AgentError(name, requestFailure(name, err))
			failedInRow++
		} else {
			failedInRow = 0
		}
		obs.TurnFinished(t)
		turns = append(turns, t)

		if failedInRow >= len(active) {
			log.Warn("every team member failed in a row, giving up")
			break
		}
	}
	return turns
}

func (r *Runner) build(ctx context.Context, m Member) (Participant, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	factory := r.Factory
	if factory == nil {
		factory = AgentFactory()
	}
	p, err := factory(ctx, m)
	if err == nil && p == nil {
		err = errors.New("factory returned no participant")
	}
	if err != nil {
		if errs.Kind(err) == nil {
			err = fmt.Errorf("%w: %s: %w", errs.ErrTransportInit, m.Name, err)
		}
		return nil, err
	}
	return p, nil
}

func (r *Runner) release(p Participant, log *zap.Logger) {
	if err := p.Close(); err != nil {
		log.Warn("could not close participant", zap.Error(err))
	}
}

func requestFailure(name string, err error) error {
	if errors.Is(err, errs.ErrRequestFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", errs.ErrRequestFailure, name, err)
}

func (r *Runner) maxTurns() int {
	if r.MaxTurns > 0 {
		return r.MaxTurns
	}
	return DefaultMaxTurns
}

func (r *Runner) observer() Observer {
	if r.Observer == nil {
		return NopObserver{}
	}
	return r.Observer
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func orEmpty(turns []proto.Turn) []proto.Turn {
	if turns == nil {
		return []proto.Turn{}
	}
	return turns
}
