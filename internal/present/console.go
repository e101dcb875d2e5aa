package present

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/proto"
)

const ruleWidth = 60

// Console prints a running session: user prompts, streamed replies and
// failures. It implements session.Observer.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
	quiet  bool

	streamed bool
	atBOL    bool
}

// NewConsole prints to w with styles. A quiet console only prints replies
// and failures.
func NewConsole(w io.Writer, styles Styles, quiet bool) *Console {
	return &Console{w: w, styles: styles, quiet: quiet, atBOL: true}
}

// TurnStarted implements session.Observer.
func (c *Console) TurnStarted(speaker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamed = false
	if !c.quiet {
		c.printf("%s\n", c.styles.Speaker.Render("🤖 "+speaker))
	}
}

// Delta implements session.Observer.
func (c *Console) Delta(_ string, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == "" {
		return
	}
	c.streamed = true
	c.printf("%s", text)
}

// TurnFinished implements session.Observer.
func (c *Console) TurnFinished(turn proto.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case turn.Failed():
		c.failure(turn.Speaker, turn.Err)
	case turn.Role == proto.TurnUser:
		if !c.quiet && turn.Title != "" {
			c.printf("\n%s\n", c.styles.Flag.Render("📋 "+turn.Title))
		}
		if !c.quiet {
			c.printf("\n%s %s\n\n", c.styles.User.Render("💬 user:"), strings.TrimSpace(turn.Content))
		}
	default:
		if !c.streamed {
			c.printf("%s", turn.Content)
		}
		if !c.atBOL {
			c.printf("\n")
		}
		if !c.quiet {
			c.printf("%s\n", c.styles.Comment.Render(strings.Repeat("─", ruleWidth)))
		}
	}
	c.streamed = false
}

func (c *Console) failure(speaker string, err error) {
	if !c.atBOL {
		c.printf("\n")
	}
	c.printf("%s\n", c.styles.Failure.Render(fmt.Sprintf("❌ %s: %s", speaker, errs.Reason(err))))
	if details := err.Error(); details != errs.Reason(err) {
		c.printf("   %s\n", c.styles.ErrorDetails.Render(details))
	}
}

// Banner prints a section title.
func (c *Console) Banner(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet {
		return
	}
	rule := strings.Repeat("=", ruleWidth)
	c.printf("\n%s\n%s\n%s\n", rule, MakeGradientText(c.styles.AppName, title), rule)
}

// Notice prints an informational line.
func (c *Console) Notice(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet {
		return
	}
	c.printf("%s\n", c.styles.Comment.Render(fmt.Sprintf(format, a...)))
}

// Success prints a line with a success marker.
func (c *Console) Success(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("%s\n", c.styles.Success.Render("✅ "+fmt.Sprintf(format, a...)))
}

// Failure prints a line with a failure marker.
func (c *Console) Failure(subject string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure(subject, err)
}

func (c *Console) printf(format string, a ...any) {
	s := fmt.Sprintf(format, a...)
	if s == "" {
		return
	}
	_, _ = io.WriteString(c.w, s)
	c.atBOL = strings.HasSuffix(s, "\n")
}

// NewStyledConsole returns a console on w with a renderer bound to it.
func NewStyledConsole(w io.Writer, quiet bool) *Console {
	return NewConsole(w, MakeStyles(lipgloss.NewRenderer(w)), quiet)
}
