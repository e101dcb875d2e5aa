package cmd

import (
	"math/rand"
	"regexp"

	"github.com/dotcommander/yteam/internal/present"
)

var examples = map[string]string{
	"Quick test of one model":             `yteam try deepseek_r1`,
	"Every model, then a team":            `yteam survey --parallel --save`,
	"Run the coding demo without a menu":  `echo 3 | yteam demo --quiet`,
	"Run your own scenarios":              `yteam run --script "team.yml" review | tee review.md`,
	"Find which models are misconfigured": `yteam models check`,
}

func randomExample() string {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	desc := keys[rand.Intn(len(keys))] //nolint:gosec
	return desc
}

func cheapHighlighting(s present.Styles, code string) string {
	code = regexp.
		MustCompile(`"([^"\\]|\\.)*"`).
		ReplaceAllStringFunc(code, func(x string) string {
			return s.Quote.Render(x)
		})
	code = regexp.
		MustCompile(`\|`).
		ReplaceAllStringFunc(code, func(x string) string {
			return s.Pipe.Render(x)
		})
	return code
}
