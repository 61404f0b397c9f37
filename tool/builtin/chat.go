package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/mcpws/tool"
)

const (
	summaryEntries = 5
	summaryWidth   = 80
)

// ChatInput represents chat_with_ai arguments.
type ChatInput struct {
	Message string `json:"message" description:"message from the user"`
}

func (s *Service) registerChat(registry *tool.Registry) error {
	return tool.Register[ChatInput](registry, "chat_with_ai", "Record a chat turn and return the recent conversation", s.chat)
}

func (s *Service) chat(_ context.Context, input *ChatInput) (string, error) {
	message := strings.TrimSpace(input.Message)
	s.conversation.Add("user", message)
	entries := len(s.conversation.Entries())
	return fmt.Sprintf("received: %v\nrecent conversation (%d turn(s)):\n%v", message, entries,
		strings.TrimRight(s.conversation.Summary(summaryEntries, summaryWidth), "\n")), nil
}
