package client

import (
	"net/http"
	"strings"
)

const (
	apiCompat     = "openai-compatible"
	apiOpenAI     = "openai"
	apiAnthropic  = "anthropic"
	apiGoogle     = "google"
	apiAzure      = "azure"
	apiOpenRouter = "openrouter"
	apiVercel     = "vercel"
	apiBedrock    = "bedrock"
	apiOllama     = "ollama"
)

type providerConfig struct {
	Name       string
	API        string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func normalizeAPI(provider string) string {
	switch p := strings.ToLower(strings.TrimSpace(provider)); p {
	case "", "openai_compatible", "openaicompat", "compat":
		return apiCompat
	case "azure-ad":
		return apiAzure
	case "gemini":
		return apiGoogle
	default:
		return p
	}
}
