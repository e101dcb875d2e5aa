package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dotcommander/yteam/internal/client"
	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/present"
	"github.com/dotcommander/yteam/internal/proto"
	"github.com/dotcommander/yteam/internal/script"
	"github.com/dotcommander/yteam/internal/session"
	"github.com/dotcommander/yteam/internal/storage"
)

// player runs scenarios against the models file and prints them as they go.
type player struct {
	cfg      config.Config
	profiles config.Profiles
	loadErr  error
	factory  session.Factory
	console  *present.Console
	log      *zap.Logger
	archive  *storage.Archive
}

func (rt *runtime) newPlayer(w io.Writer) (*player, error) {
	log := rt.logger()
	p := &player{
		cfg:     rt.cfg,
		factory: rt.factory,
		console: present.NewStyledConsole(w, rt.cfg.Quiet),
		log:     log,
	}
	// A broken models file is reported per model, like any other lookup
	// failure, so the remaining work still runs.
	p.profiles, p.loadErr = config.LoadProfiles(rt.cfg.ModelsFile)
	if p.loadErr != nil {
		log.Warn("could not load models file", zap.String("path", rt.cfg.ModelsFile), zap.Error(p.loadErr))
	}
	if p.factory == nil {
		p.factory = session.AgentFactory(
			client.WithProxy(rt.cfg.HTTPProxy),
			client.WithTimeout(rt.cfg.RequestTimeout),
			client.WithLogger(log),
		)
	}
	if rt.cfg.Save {
		archive, err := storage.OpenArchive(filepath.Clean(rt.cfg.CachePath))
		if err != nil {
			return nil, errs.Wrap(err, "Could not open the transcript history.")
		}
		p.archive = archive
	}
	return p, nil
}

func (p *player) Close() error {
	if p.archive == nil {
		return nil
	}
	return p.archive.Close()
}

func (p *player) lookup(id string) (config.Profile, error) {
	if p.loadErr != nil {
		return config.Profile{}, p.loadErr
	}
	return p.profiles.Lookup(id)
}

func (p *player) runner(sc script.Scenario) *session.Runner {
	maxTurns := sc.MaxTurns
	if maxTurns <= 0 {
		maxTurns = p.cfg.MaxTurns
	}
	return &session.Runner{
		Factory:  p.factory,
		Name:     sc.Agent,
		MaxTurns: maxTurns,
		Parallel: p.cfg.Parallel,
		Observer: p.console,
		Logger:   p.log.With(zap.String("scenario", sc.Name)),
	}
}

// playAll runs scenarios in order. It fails only when nothing at all
// succeeded.
func (p *player) playAll(ctx context.Context, scenarios []script.Scenario) error {
	var replies, failures int
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		tr, err := p.play(ctx, sc)
		if err != nil {
			return err
		}
		for _, t := range tr.Turns {
			switch {
			case t.Failed():
				failures++
			case t.Role == proto.TurnAgent:
				replies++
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "Interrupted.")
	}
	if replies == 0 && failures > 0 {
		return errs.Wrapf(
			fmt.Errorf("%d failed units of work", failures),
			"No model answered. Check %s.", p.cfg.ModelsFile,
		)
	}
	return nil
}

// play runs one scenario and returns its transcript.
func (p *player) play(ctx context.Context, sc script.Scenario) (proto.Transcript, error) {
	tr := proto.Transcript{Title: sc.Title, Scenario: sc.Name}
	if tr.Title == "" {
		tr.Title = sc.Name
	}
	p.console.Banner(tr.Title)

	system := sc.System
	if system == "" {
		system = p.cfg.System
	}
	system, err := config.LoadText(ctx, system)
	if err != nil {
		return tr, errs.Wrapf(err, "Could not load the system message of %s.", sc.Name)
	}

	if sc.Team() {
		tr.Turns, err = p.playTeam(ctx, sc, system)
	} else {
		tr.Turns = p.playSingle(ctx, sc, system)
	}
	if err != nil {
		return tr, err
	}

	p.console.Success("%s finished: %d turns, %d failed", tr.Title, len(tr.Turns), tr.Failures())
	p.save(tr)
	return tr, nil
}

func (p *player) playSingle(ctx context.Context, sc script.Scenario, system string) []proto.Turn {
	runner := p.runner(sc)
	runner.System = system
	runner.Titles = sc.Headings()

	var resolved []config.Profile
	members := make([]session.Member, 0, len(sc.ModelIDs()))
	for _, id := range sc.ModelIDs() {
		profile, err := p.lookup(id)
		if err != nil {
			// Reported by the runner in the model's place.
			members = append(members, session.Member{Name: id, Profile: config.Profile{ID: id}, Err: err})
			continue
		}
		resolved = append(resolved, profile)
		members = append(members, runner.Member(profile))
	}
	if len(resolved) > 0 {
		p.console.Notice("models: %s", describeProfiles(resolved))
	}
	return runner.RunMembers(ctx, members, sc.Texts())
}

func (p *player) playTeam(ctx context.Context, sc script.Scenario, system string) ([]proto.Turn, error) {
	task, err := config.LoadText(ctx, sc.Task)
	if err != nil {
		return nil, errs.Wrapf(err, "Could not load the task of %s.", sc.Name)
	}

	var resolved []config.Profile
	members := make([]session.Member, 0, len(sc.Members))
	for _, m := range sc.Members {
		profile, err := p.lookup(m.Model)
		if err != nil {
			members = append(members, session.Member{Name: m.Name, Profile: config.Profile{ID: m.Model}, Err: err})
			continue
		}
		memberSystem := m.System
		if memberSystem == "" {
			memberSystem = system
		}
		memberSystem, err = config.LoadText(ctx, memberSystem)
		if err != nil {
			return nil, errs.Wrapf(err, "Could not load the system message of %s.", m.Name)
		}
		resolved = append(resolved, profile)
		members = append(members, session.Member{
			Name:    m.Name,
			System:  expandModel(memberSystem, m.Model),
			Profile: profile,
		})
	}
	if len(resolved) > 0 {
		p.console.Notice("models: %s", describeProfiles(resolved))
	}

	maxMessages := sc.MaxMessages
	if maxMessages <= 0 {
		maxMessages = p.cfg.MaxMessages
	}
	stop := session.MaxMessages(maxMessages)
	if sc.Stop != "" {
		stop = session.AnyOf(stop, session.TextMention(sc.Stop))
	}
	return p.runner(sc).RunTeam(ctx, members, task, stop), nil
}

func (p *player) save(tr proto.Transcript) {
	if p.archive == nil {
		return
	}
	if p.cfg.Title != "" {
		tr.Title = p.cfg.Title
	}
	rec, err := p.archive.Save(tr)
	if err != nil {
		p.console.Failure("history", err)
		return
	}
	p.console.Notice("saved as %s", rec.ShortID())
}

// describeProfiles names each profile with its upstream model, endpoint and
// key source. Keys are redacted.
func describeProfiles(profiles []config.Profile) string {
	out := make([]string, 0, len(profiles))
	for _, pr := range profiles {
		pr = pr.Redacted()
		desc := pr.ID + " (" + pr.Model
		if pr.BaseURL != "" {
			desc += " @ " + pr.BaseURL
		}
		out = append(out, desc+", "+keySource(pr)+")")
	}
	return strings.Join(out, "; ")
}

func expandModel(tmpl, id string) string {
	return strings.ReplaceAll(tmpl, "{model}", id)
}
