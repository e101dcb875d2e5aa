//go:build !yteam_small

package client

import (
	"charm.land/fantasy"
	fgoogle "charm.land/fantasy/providers/google"
	fopenai "charm.land/fantasy/providers/openai"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"
)

func applyProviderOptions(call *fantasy.Call, api string, p Params) {
	if p.User != "" {
		user := p.User
		switch api {
		case apiOpenAI, apiAzure:
			call.ProviderOptions[fopenai.Name] = &fopenai.ProviderOptions{User: &user}
		case apiCompat, apiOllama:
			call.ProviderOptions[fopenaicompat.Name] = &fopenaicompat.ProviderOptions{User: &user}
		}
	}

	if api == apiGoogle && p.ThinkingBudget > 0 {
		call.ProviderOptions[fgoogle.Name] = &fgoogle.ProviderOptions{
			ThinkingConfig: &fgoogle.ThinkingConfig{
				ThinkingBudget: fantasy.Opt(p.ThinkingBudget),
			},
		}
	}
}
