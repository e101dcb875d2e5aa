package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yteam/internal/errs"
)

// Settings holds persisted configuration loaded from the YAML settings file
// and environment variables.
type Settings struct {
	ModelsFile     string        `yaml:"models-file" env:"MODELS_FILE"`
	DefaultModel   string        `yaml:"default-model" env:"DEFAULT_MODEL"`
	System         string        `yaml:"system" env:"SYSTEM"`
	MaxTurns       int           `yaml:"max-turns" env:"MAX_TURNS"`
	MaxMessages    int           `yaml:"max-messages" env:"MAX_MESSAGES"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"REQUEST_TIMEOUT"`
	HTTPProxy      string        `yaml:"http-proxy" env:"HTTP_PROXY"`
	LogLevel       string        `yaml:"log-level" env:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log-format" env:"LOG_FORMAT"`
	Save           bool          `yaml:"save" env:"SAVE"`
	CachePath      string        `yaml:"cache-path" env:"CACHE_PATH"`
	WordWrap       int           `yaml:"word-wrap" env:"WORD_WRAP"`
	Quiet          bool          `yaml:"quiet" env:"QUIET"`
	Raw            bool          `yaml:"raw" env:"RAW"`
	Parallel       bool          `yaml:"parallel" env:"PARALLEL"`
}

// Runtime holds CLI/runtime-only options that should not be loaded from the
// settings file.
type Runtime struct {
	SettingsPath string
	ScriptPath   string
	Title        string
	Version      bool
}

// Config is the application configuration (settings + runtime-only options).
//
// Settings fields are promoted for ergonomic access, but runtime fields are
// explicitly excluded from YAML/env parsing.
type Config struct {
	Settings `yaml:",inline"`
	Runtime  `yaml:"-" env:"-"`
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "YTEAM_"

// Ensure loads settings from ~/.config/yteam/yteam.yml and the environment
// and applies defaults. A missing settings file is not an error.
func Ensure() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errs.Error{Err: err, Reason: "Could not determine home directory."}
	}
	c, err := Load(filepath.Join(home, ".config", "yteam", "yteam.yml"))
	if err != nil {
		return c, err
	}
	if c.CachePath == "" {
		c.CachePath = filepath.Join(home, ".config", "yteam", "history")
	}
	return c, nil
}

// Load reads the settings file at path, if any, then the environment.
func Load(path string) (Config, error) {
	c := Default()
	c.SettingsPath = path

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, errs.Error{Err: err, Reason: "Could not read settings file."}
	default:
		if err := yaml.Unmarshal(content, &c); err != nil {
			return c, errs.Error{Err: err, Reason: "Could not parse settings file."}
		}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse environment into settings."}
	}

	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.ModelsFile == "" {
		c.ModelsFile = d.ModelsFile
	}
	if c.DefaultModel == "" {
		c.DefaultModel = d.DefaultModel
	}
	if c.System == "" {
		c.System = d.System
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = d.MaxTurns
	}
	if c.MaxMessages <= 0 {
		c.MaxMessages = d.MaxMessages
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.WordWrap == 0 {
		c.WordWrap = d.WordWrap
	}
}

// Default returns the default configuration values.
func Default() Config {
	return Config{
		Settings: Settings{
			ModelsFile:   "custom_models_config.yaml",
			DefaultModel: "kimi_k2",
			System:       "You are an AI assistant running on the {model} model, skilled at programming and problem solving.",
			MaxTurns:     20,
			MaxMessages:  6,
			LogLevel:     "warn",
			LogFormat:    "console",
			WordWrap:     80,
		},
	}
}
