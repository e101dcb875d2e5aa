//go:build !yteam_small

package client

import (
	"context"
	"testing"

	"charm.land/fantasy/providers/google"
	fopenai "charm.land/fantasy/providers/openai"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
)

func TestNewProviders(t *testing.T) {
	for provider, baseURL := range map[string]string{
		"openai":     "",
		"anthropic":  "https://api.anthropic.com/v1",
		"google":     "",
		"gemini":     "",
		"azure":      "https://example.openai.azure.com",
		"azure-ad":   "https://example.openai.azure.com",
		"openrouter": "",
		"vercel":     "",
		"bedrock":    "",
	} {
		t.Run(provider, func(t *testing.T) {
			c, err := New(context.Background(), config.Profile{
				ID:       provider,
				Provider: provider,
				Model:    "some-model",
				BaseURL:  baseURL,
				APIKey:   "token",
			})
			require.NoError(t, err)
			require.NoError(t, c.Close())
		})
	}
}

func TestNewBedrockRejectsExtras(t *testing.T) {
	c, err := New(context.Background(), config.Profile{
		ID:       "claude",
		Provider: "bedrock",
		Model:    "anthropic.claude-3",
		APIKey:   "token",
		Extra:    map[string]any{"seed": 1},
	})
	require.Nil(t, c)
	require.ErrorIs(t, err, errs.ErrTransportInit)
	require.ErrorContains(t, err, "not supported by bedrock")
}

func TestBuildCall(t *testing.T) {
	temp := 0.3
	maxTokens := int64(512)

	t.Run("sampling parameters", func(t *testing.T) {
		c := &Client{api: apiCompat, params: Params{Temperature: &temp, MaxTokens: &maxTokens}}
		call := c.buildCall(nil)
		require.Equal(t, &temp, call.Temperature)
		require.Equal(t, &maxTokens, call.MaxOutputTokens)
		require.Nil(t, call.TopP)
		require.Empty(t, call.ProviderOptions)
	})

	t.Run("compatible user", func(t *testing.T) {
		c := &Client{api: apiCompat, params: Params{User: "alice"}}
		opts, ok := c.buildCall(nil).ProviderOptions[fopenaicompat.Name].(*fopenaicompat.ProviderOptions)
		require.True(t, ok)
		require.Equal(t, "alice", *opts.User)
	})

	t.Run("openai user", func(t *testing.T) {
		c := &Client{api: apiOpenAI, params: Params{User: "dana"}}
		opts, ok := c.buildCall(nil).ProviderOptions[fopenai.Name].(*fopenai.ProviderOptions)
		require.True(t, ok)
		require.Equal(t, "dana", *opts.User)
	})

	t.Run("anthropic ignores user", func(t *testing.T) {
		c := &Client{api: apiAnthropic, params: Params{User: "dana"}}
		require.Empty(t, c.buildCall(nil).ProviderOptions)
	})

	t.Run("google thinking budget", func(t *testing.T) {
		c := &Client{api: apiGoogle, params: Params{ThinkingBudget: 256}}
		opts, ok := c.buildCall(nil).ProviderOptions[google.Name].(*google.ProviderOptions)
		require.True(t, ok)
		require.EqualValues(t, 256, *opts.ThinkingConfig.ThinkingBudget)
	})

	t.Run("thinking budget only for google", func(t *testing.T) {
		c := &Client{api: apiOpenAI, params: Params{ThinkingBudget: 256}}
		require.Empty(t, c.buildCall(nil).ProviderOptions)
	})
}
