//go:build yteam_small

package client

import (
	"fmt"

	"charm.land/fantasy"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"
)

// Providers names the provider set compiled into this binary.
const Providers = "openai-compatible"

// The small build only carries the OpenAI-compatible provider.
func newProvider(cfg providerConfig) (fantasy.Provider, error) {
	if cfg.API != apiCompat && cfg.API != apiOllama {
		return nil, fmt.Errorf("provider %q is not included in this build", cfg.API)
	}
	opts := []fopenaicompat.Option{fopenaicompat.WithName(cfg.Name)}
	if cfg.APIKey != "" {
		opts = append(opts, fopenaicompat.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, fopenaicompat.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, fopenaicompat.WithHTTPClient(cfg.HTTPClient))
	}
	provider, err := fopenaicompat.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("new fantasy openai-compatible provider: %w", err)
	}
	return provider, nil
}
