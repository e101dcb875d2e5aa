package client

import (
	"fmt"
	"maps"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/caarlos0/duration"
)

// Params are the typed extras of a profile.
type Params struct {
	Temperature       *float64
	TopP              *float64
	TopK              *int64
	MaxTokens         *int64
	Timeout           time.Duration
	RequestsPerMinute int
	User              string
	ThinkingBudget    int64

	// Passthrough holds extras this client does not recognise.
	Passthrough map[string]any
}

// ParseParams validates the extra parameters of a profile.
func ParseParams(extra map[string]any) (Params, error) {
	var p Params
	rest := maps.Clone(extra)
	take := func(name string) (any, bool) {
		v, ok := rest[name]
		delete(rest, name)
		return v, ok && v != nil
	}

	if v, ok := take("temperature"); ok {
		f, err := floatIn(v, 0, 2)
		if err != nil {
			return p, fmt.Errorf("temperature: %w", err)
		}
		p.Temperature = &f
	}
	if v, ok := take("top_p"); ok {
		f, err := floatIn(v, 0, 1)
		if err != nil {
			return p, fmt.Errorf("top_p: %w", err)
		}
		p.TopP = &f
	}
	if v, ok := take("top_k"); ok {
		n, err := positiveInt(v)
		if err != nil {
			return p, fmt.Errorf("top_k: %w", err)
		}
		p.TopK = &n
	}
	if v, ok := take("max_tokens"); ok {
		n, err := positiveInt(v)
		if err != nil {
			return p, fmt.Errorf("max_tokens: %w", err)
		}
		p.MaxTokens = &n
	}
	if v, ok := take("thinking_budget"); ok {
		n, err := positiveInt(v)
		if err != nil {
			return p, fmt.Errorf("thinking_budget: %w", err)
		}
		p.ThinkingBudget = n
	}
	if v, ok := take("requests_per_minute"); ok {
		n, err := positiveInt(v)
		if err != nil {
			return p, fmt.Errorf("requests_per_minute: %w", err)
		}
		p.RequestsPerMinute = int(n)
	}
	if v, ok := take("timeout"); ok {
		d, err := timeout(v)
		if err != nil {
			return p, fmt.Errorf("timeout: %w", err)
		}
		p.Timeout = d
	}
	if v, ok := take("user"); ok {
		s, isString := v.(string)
		if !isString {
			return p, fmt.Errorf("user: expected a string, got %T", v)
		}
		p.User = s
	}

	if len(rest) > 0 {
		p.Passthrough = rest
	}
	return p, nil
}

// PassthroughNames returns the unrecognised extras, sorted.
func (p Params) PassthroughNames() []string {
	names := make([]string, 0, len(p.Passthrough))
	for k := range p.Passthrough {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func floatIn(v any, lo, hi float64) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if math.IsNaN(f) || f < lo || f > hi {
		return 0, fmt.Errorf("%v is out of range [%v, %v]", f, lo, hi)
	}
	return f, nil
}

func positiveInt(v any) (int64, error) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("expected an integer, got %v", v)
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive, got %v", v)
	}
	return int64(f), nil
}

func timeout(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			v = secs
		} else {
			d, err := duration.Parse(s)
			if err != nil {
				return 0, err
			}
			if d <= 0 {
				return 0, fmt.Errorf("must be positive, got %s", s)
			}
			return d, nil
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("expected a duration or seconds, got %T", v)
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive, got %v", f)
	}
	return time.Duration(f * float64(time.Second)), nil
}
