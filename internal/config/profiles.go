package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yteam/internal/errs"
)

//go:embed models_template.yml
var modelsTemplate []byte

// Profile holds the connection parameters of one model.
type Profile struct {
	ID        string         `yaml:"-"`
	Provider  string         `yaml:"provider,omitempty"`
	Model     string         `yaml:"model"`
	BaseURL   string         `yaml:"base_url,omitempty"`
	APIKey    string         `yaml:"api_key,omitempty"`
	APIKeyEnv string         `yaml:"api_key_env,omitempty"`
	APIKeyCmd string         `yaml:"api_key_cmd,omitempty"`
	Extra     map[string]any `yaml:",inline"`
}

// Redacted returns a copy of p safe to print.
func (p Profile) Redacted() Profile {
	p.Extra = maps.Clone(p.Extra)
	if p.APIKey != "" {
		p.APIKey = redact(p.APIKey)
	}
	return p
}

func redact(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:3] + "****" + s[len(s)-4:]
}

type entry struct {
	Config *Profile `yaml:"config"`
}

// Profiles is the loaded models file. It is never modified after loading.
type Profiles struct {
	Path   string
	order  []string
	byID   map[string]Profile
	broken map[string]error
}

// LoadProfiles reads the models file at path.
//
// A missing file fails with errs.ErrConfigNotFound and content that is not a
// mapping of identifiers fails with errs.ErrConfigParse. Entries that are
// individually malformed do not fail the load; looking them up does.
func LoadProfiles(path string) (Profiles, error) {
	bts, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Profiles{}, fmt.Errorf("%w: %s", errs.ErrConfigNotFound, path)
	}
	if err != nil {
		return Profiles{}, fmt.Errorf("%w: %s: %w", errs.ErrConfigParse, path, err)
	}
	p, err := ParseProfiles(bts)
	if err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// ParseProfiles decodes the content of a models file, keeping its key order.
func ParseProfiles(bts []byte) (Profiles, error) {
	p := Profiles{
		byID:   map[string]Profile{},
		broken: map[string]error{},
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(bts, &doc); err != nil {
		return p, fmt.Errorf("%w: %w", errs.ErrConfigParse, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return p, fmt.Errorf("%w: file is empty", errs.ErrConfigParse)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return p, fmt.Errorf("%w: line %d: expected a mapping of model identifiers", errs.ErrConfigParse, root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		id := key.Value
		if _, ok := p.byID[id]; ok {
			return p, fmt.Errorf("%w: line %d: duplicate model %q", errs.ErrConfigParse, key.Line, id)
		}
		if _, ok := p.broken[id]; ok {
			return p, fmt.Errorf("%w: line %d: duplicate model %q", errs.ErrConfigParse, key.Line, id)
		}
		p.order = append(p.order, id)

		profile, err := decodeEntry(val)
		if err != nil {
			p.broken[id] = fmt.Errorf("%w: model %q (line %d): %w", errs.ErrConfigParse, id, val.Line, err)
			continue
		}
		profile.ID = id
		p.byID[id] = profile
	}
	return p, nil
}

func decodeEntry(node *yaml.Node) (Profile, error) {
	if node.Kind != yaml.MappingNode {
		return Profile{}, errors.New("expected a mapping with a config section")
	}
	var e entry
	if err := node.Decode(&e); err != nil {
		return Profile{}, err
	}
	if e.Config == nil {
		return Profile{}, errors.New("missing config section")
	}
	return *e.Config, nil
}

// IDs returns the model identifiers in file order.
func (p Profiles) IDs() []string {
	return append([]string(nil), p.order...)
}

// Len is the number of identifiers in the file.
func (p Profiles) Len() int { return len(p.order) }

// Lookup returns the profile named id.
func (p Profiles) Lookup(id string) (Profile, error) {
	if profile, ok := p.byID[id]; ok {
		profile.Extra = maps.Clone(profile.Extra)
		return profile, nil
	}
	if err, ok := p.broken[id]; ok {
		return Profile{}, err
	}
	return Profile{}, fmt.Errorf(
		"%w: model %q not found in %s (available: %s)",
		errs.ErrConfigKey, id, p.source(), p.available(),
	)
}

// Resolved is the result of looking up one identifier.
type Resolved struct {
	ID      string
	Profile Profile
	Err     error
}

// Resolve looks up every id, keeping their order and reporting failures
// per identifier.
func (p Profiles) Resolve(ids ...string) []Resolved {
	out := make([]Resolved, 0, len(ids))
	for _, id := range ids {
		profile, err := p.Lookup(id)
		out = append(out, Resolved{ID: id, Profile: profile, Err: err})
	}
	return out
}

func (p Profiles) source() string {
	if p.Path == "" {
		return "models file"
	}
	return p.Path
}

func (p Profiles) available() string {
	if len(p.order) == 0 {
		return "none"
	}
	return strings.Join(p.order, ", ")
}

// Redacted returns a copy of p with every key redacted.
func (p Profiles) Redacted() Profiles {
	out := p
	out.byID = make(map[string]Profile, len(p.byID))
	for id, profile := range p.byID {
		out.byID[id] = profile.Redacted()
	}
	return out
}

// MarshalYAML writes the profiles back in the models file layout. Broken
// entries are left out.
func (p Profiles) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range p.order {
		profile, ok := p.byID[id]
		if !ok {
			continue
		}
		var val yaml.Node
		if err := val.Encode(entry{Config: &profile}); err != nil {
			return nil, err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: id},
			&val,
		)
	}
	return root, nil
}

// ModelsTemplate returns the content written by WriteModelsFile.
func ModelsTemplate() []byte {
	return bytes.Clone(modelsTemplate)
}

// WriteModelsFile writes the models template to path. It refuses to replace
// an existing file unless force is set.
func WriteModelsFile(path string, force bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return errs.Wrapf(err, "Models file %s already exists.", path)
	}
	if err != nil {
		return errs.Wrap(err, "Could not create models file.")
	}
	if _, err := f.Write(modelsTemplate); err != nil {
		_ = f.Close()
		return errs.Wrap(err, "Could not write models file.")
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(err, "Could not write models file.")
	}
	return nil
}
