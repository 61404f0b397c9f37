package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/mcpws/tool"
)

// SaveNoteInput represents save_note arguments.
type SaveNoteInput struct {
	Content string `json:"content" description:"note text"`
	Tag     string `json:"tag,omitempty" description:"optional tag"`
}

func (s *Service) registerNotes(registry *tool.Registry) error {
	return tool.Register[SaveNoteInput](registry, "save_note", "Append a note to the notes document", s.saveNote)
}

func (s *Service) saveNote(ctx context.Context, input *SaveNoteInput) (string, error) {
	header := "## " + s.now().Format(time.RFC3339)
	if tag := strings.TrimSpace(input.Tag); tag != "" {
		header += " [" + tag + "]"
	}
	if err := s.notes.Append(ctx, "\n"+header+"\n"+strings.TrimSpace(input.Content)+"\n"); err != nil {
		return "", err
	}
	return fmt.Sprintf("note saved to %v", s.notes.URL), nil
}
