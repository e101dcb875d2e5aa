package cmd

import (
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/present"
)

var helpText = map[string]string{
	"models":          "Models file mapping identifiers to connection settings",
	"system":          "Default system message; {model} is replaced by the model identifier",
	"http-proxy":      "HTTP proxy to use for API requests",
	"request-timeout": "Timeout for each model request; e.g. 90s, 2m",
	"max-turns":       "Maximum replies in a team exchange",
	"max-messages":    "Stop a team exchange once the transcript has this many messages",
	"parallel":        "Run the models of a scenario concurrently",
	"save":            "Save transcripts to the history",
	"title":           "Title to save the transcript under",
	"quiet":           "Only print replies and failures",
	"raw":             "Print transcripts without formatting",
	"word-wrap":       "Wrap formatted output at a specific width",
	"log-level":       "Log level: debug, info, warn or error",
	"log-format":      "Log format: console or json",
}

// initRootFlags registers the persistent flags every command shares.
func initRootFlags(cmd *cobra.Command, cfg *config.Config) {
	desc := func(name string) string { return present.StdoutStyles().FlagDesc.Render(helpText[name]) }

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfg.ModelsFile, "models", "m", cfg.ModelsFile, desc("models"))
	flags.StringVar(&cfg.System, "system", cfg.System, desc("system"))
	flags.StringVarP(&cfg.HTTPProxy, "http-proxy", "x", cfg.HTTPProxy, desc("http-proxy"))
	flags.Var(newDurationFlag(cfg.RequestTimeout, &cfg.RequestTimeout), "request-timeout", desc("request-timeout"))
	flags.IntVar(&cfg.MaxTurns, "max-turns", cfg.MaxTurns, desc("max-turns"))
	flags.IntVar(&cfg.MaxMessages, "max-messages", cfg.MaxMessages, desc("max-messages"))
	flags.BoolVarP(&cfg.Parallel, "parallel", "P", cfg.Parallel, desc("parallel"))
	flags.BoolVarP(&cfg.Save, "save", "s", cfg.Save, desc("save"))
	flags.StringVarP(&cfg.Title, "title", "t", cfg.Title, desc("title"))
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, desc("quiet"))
	flags.BoolVarP(&cfg.Raw, "raw", "r", cfg.Raw, desc("raw"))
	flags.IntVar(&cfg.WordWrap, "word-wrap", cfg.WordWrap, desc("word-wrap"))
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, desc("log-level"))
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, desc("log-format"))
	flags.SortFlags = false
}

// durationFlag accepts the longer units of caarlos0/duration (d, w, mo, y).
type durationFlag time.Duration

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	if err != nil {
		return err //nolint:wrapcheck
	}
	*d = durationFlag(v)
	return nil
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

// flagParseError is a cobra flag error with the offending flag extracted,
// so handleError can highlight it.
type flagParseError struct {
	err    error
	reason string
	flag   string
}

var invalidArgRe = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)

func newFlagParseError(err error) flagParseError {
	s := err.Error()
	var reason, flag string
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		if fields := strings.Fields(s); len(fields) > 0 {
			flag = fields[len(fields)-1]
		}
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		if fields := strings.Fields(s); len(fields) > 0 {
			flag = fields[len(fields)-1]
		}
	case strings.HasPrefix(s, "unknown flag:"):
		reason = "Flag %s is missing."
		flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s have an invalid argument."
		if parts := invalidArgRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	default:
		reason = s
	}
	return flagParseError{err: err, reason: reason, flag: flag}
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}
