//go:build yteam_small

package client

import (
	"charm.land/fantasy"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"
)

func applyProviderOptions(call *fantasy.Call, _ string, p Params) {
	if p.User == "" {
		return
	}
	user := p.User
	call.ProviderOptions[fopenaicompat.Name] = &fopenaicompat.ProviderOptions{User: &user}
}
