// Package script loads the scenarios yteam runs: prompt sequences for single
// models and tasks for teams.
package script

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yteam/internal/errs"
)

//go:embed scenarios.yml
var builtin []byte

// Scenario modes.
const (
	ModeSingle = "single"
	ModeTeam   = "team"
)

// Prompt is one prompt of a single-model scenario.
type Prompt struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// UnmarshalYAML accepts either a plain string or a {title, text} mapping.
func (p *Prompt) UnmarshalYAML(unmarshal func(any) error) error {
	var text string
	if err := unmarshal(&text); err == nil {
		*p = Prompt{Text: text}
		return nil
	}
	type plain Prompt
	var v plain
	if err := unmarshal(&v); err != nil {
		return err
	}
	*p = Prompt(v)
	return nil
}

// Member is one participant of a team scenario.
type Member struct {
	Name   string `yaml:"name"`
	Model  string `yaml:"model"`
	System string `yaml:"system"`
}

// Scenario is a named unit of work.
type Scenario struct {
	Name        string   `yaml:"-"`
	Title       string   `yaml:"title"`
	Mode        string   `yaml:"mode"`
	Models      []string `yaml:"models"`
	Agent       string   `yaml:"agent"`
	System      string   `yaml:"system"`
	Prompts     []Prompt `yaml:"prompts"`
	Members     []Member `yaml:"members"`
	Task        string   `yaml:"task"`
	MaxMessages int      `yaml:"max_messages"`
	MaxTurns    int      `yaml:"max_turns"`
	Stop        string   `yaml:"stop"`
}

// Team reports whether the scenario is a team exchange.
func (s Scenario) Team() bool { return s.Mode == ModeTeam }

// Texts returns the prompt texts in order.
func (s Scenario) Texts() []string {
	out := make([]string, 0, len(s.Prompts))
	for _, p := range s.Prompts {
		out = append(out, strings.TrimSpace(p.Text))
	}
	return out
}

// Headings returns a heading per prompt: "Task i: title" for titled prompts
// and "" for the rest.
func (s Scenario) Headings() []string {
	out := make([]string, len(s.Prompts))
	for i, p := range s.Prompts {
		if title := strings.TrimSpace(p.Title); title != "" {
			out[i] = fmt.Sprintf("Task %d: %s", i+1, title)
		}
	}
	return out
}

// ModelIDs returns the models the scenario needs, in order of first use.
func (s Scenario) ModelIDs() []string {
	if !s.Team() {
		return append([]string(nil), s.Models...)
	}
	var out []string
	seen := map[string]bool{}
	for _, m := range s.Members {
		if !seen[m.Model] {
			seen[m.Model] = true
			out = append(out, m.Model)
		}
	}
	return out
}

// Validate checks the scenario is runnable. Single scenarios without models
// are valid; the caller picks the model.
func (s Scenario) Validate() error {
	switch s.Mode {
	case ModeSingle:
		if len(s.Prompts) == 0 {
			return fmt.Errorf("scenario %q: no prompts", s.Name)
		}
		for i, p := range s.Prompts {
			if strings.TrimSpace(p.Text) == "" {
				return fmt.Errorf("scenario %q: prompt %d is empty", s.Name, i+1)
			}
		}
	case ModeTeam:
		if strings.TrimSpace(s.Task) == "" {
			return fmt.Errorf("scenario %q: no task", s.Name)
		}
		if len(s.Members) == 0 {
			return fmt.Errorf("scenario %q: no members", s.Name)
		}
		names := map[string]bool{}
		for i, m := range s.Members {
			if m.Name == "" || m.Model == "" {
				return fmt.Errorf("scenario %q: member %d needs a name and a model", s.Name, i+1)
			}
			if names[m.Name] {
				return fmt.Errorf("scenario %q: duplicate member %q", s.Name, m.Name)
			}
			names[m.Name] = true
		}
	default:
		return fmt.Errorf("scenario %q: unknown mode %q", s.Name, s.Mode)
	}
	if s.MaxMessages < 0 || s.MaxTurns < 0 {
		return fmt.Errorf("scenario %q: limits must not be negative", s.Name)
	}
	return nil
}

// Scenarios keeps the scenarios in file order.
type Scenarios []Scenario

// UnmarshalYAML implements ordered scenario decoding.
func (ss *Scenarios) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: scenarios must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var s Scenario
		if err := node.Content[i+1].Decode(&s); err != nil {
			return fmt.Errorf("scenario %q: %w", node.Content[i].Value, err)
		}
		s.Name = node.Content[i].Value
		if s.Mode == "" {
			s.Mode = ModeSingle
			if len(s.Members) > 0 {
				s.Mode = ModeTeam
			}
		}
		*ss = append(*ss, s)
	}
	return nil
}

// Script is a set of scenarios and named sequences of them.
type Script struct {
	Suites    map[string][]string `yaml:"suites"`
	Scenarios Scenarios           `yaml:"scenarios"`
}

// Builtin returns the scenarios shipped with yteam.
func Builtin() Script {
	s, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in scenarios: %v", err))
	}
	return s
}

// Load reads a script file.
func Load(path string) (Script, error) {
	bts, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Script{}, errs.Wrapf(err, "Script %s does not exist.", path)
	}
	if err != nil {
		return Script{}, errs.Wrap(err, "Could not read script.")
	}
	s, err := Parse(bts)
	if err != nil {
		return Script{}, errs.Wrapf(err, "Invalid script %s.", path)
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(bts []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(bts, &s); err != nil {
		return s, err
	}
	if len(s.Scenarios) == 0 {
		return s, errors.New("no scenarios")
	}
	seen := map[string]bool{}
	for _, sc := range s.Scenarios {
		if seen[sc.Name] {
			return s, fmt.Errorf("duplicate scenario %q", sc.Name)
		}
		seen[sc.Name] = true
		if err := sc.Validate(); err != nil {
			return s, err
		}
	}
	for name, steps := range s.Suites {
		if seen[name] {
			return s, fmt.Errorf("suite %q has the same name as a scenario", name)
		}
		if len(steps) == 0 {
			return s, fmt.Errorf("suite %q is empty", name)
		}
		for _, step := range steps {
			if !seen[step] {
				return s, fmt.Errorf("suite %q: unknown scenario %q", name, step)
			}
		}
	}
	return s, nil
}

// Get returns the scenario called name.
func (s Script) Get(name string) (Scenario, error) {
	for _, sc := range s.Scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return Scenario{}, errs.Wrapf(
		fmt.Errorf("unknown scenario %q", name),
		"No scenario or suite named %q; try one of: %s.", name, strings.Join(s.Names(), ", "),
	)
}

// Resolve returns the scenarios a suite or scenario name stands for.
func (s Script) Resolve(name string) ([]Scenario, error) {
	steps, ok := s.Suites[name]
	if !ok {
		sc, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		return []Scenario{sc}, nil
	}
	out := make([]Scenario, 0, len(steps))
	for _, step := range steps {
		sc, err := s.Get(step)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Names lists suites, sorted, followed by scenarios in file order.
func (s Script) Names() []string {
	suites := make([]string, 0, len(s.Suites))
	for name := range s.Suites {
		suites = append(suites, name)
	}
	sort.Strings(suites)
	out := suites
	for _, sc := range s.Scenarios {
		out = append(out, sc.Name)
	}
	return out
}
