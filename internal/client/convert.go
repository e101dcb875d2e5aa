package client

import (
	"charm.land/fantasy"

	"github.com/dotcommander/yteam/internal/proto"
)

func toFantasyPrompt(input []proto.Message) fantasy.Prompt {
	messages := make([]fantasy.Message, 0, len(input))
	text := func(s string) []fantasy.MessagePart {
		return []fantasy.MessagePart{fantasy.TextPart{Text: s}}
	}
	for _, msg := range input {
		switch msg.Role {
		case proto.RoleSystem:
			messages = append(messages, fantasy.Message{Role: fantasy.MessageRoleSystem, Content: text(msg.Content)})
		case proto.RoleUser:
			messages = append(messages, fantasy.Message{Role: fantasy.MessageRoleUser, Content: text(msg.Content)})
		case proto.RoleAssistant:
			if msg.Content != "" {
				messages = append(messages, fantasy.Message{Role: fantasy.MessageRoleAssistant, Content: text(msg.Content)})
			}
		}
	}
	return messages
}
