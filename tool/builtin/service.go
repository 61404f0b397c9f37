// Package builtin provides the tools exposed by the bridge: file access,
// shell and git inspection, notes, calendar, expenses, outbound messaging,
// web search and a short conversation memory.
package builtin

import (
	"context"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/viant/afs"
	"github.com/viant/mcpws/conversation"
	"github.com/viant/mcpws/store"
	"github.com/viant/mcpws/tool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Service holds the collaborators used by the built-in tools.
type Service struct {
	config       *Config
	fs           afs.Service
	notes        *store.TextStore
	calendar     *store.JSONStore[Event]
	expenses     *store.JSONStore[Expense]
	emails       *store.JSONStore[Email]
	conversation *conversation.Context
	client       *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
	now          func() time.Time
}

// Register adds all built-in tools to registry.
func (s *Service) Register(registry *tool.Registry) error {
	for _, register := range []func(registry *tool.Registry) error{
		s.registerFiles,
		s.registerShell,
		s.registerGit,
		s.registerNotes,
		s.registerCalendar,
		s.registerExpenses,
		s.registerMessaging,
		s.registerSearch,
		s.registerChat,
	} {
		if err := register(registry); err != nil {
			return err
		}
	}
	return nil
}

// Conversation returns the chat history shared with the chat tool.
func (s *Service) Conversation() *conversation.Context {
	return s.conversation
}

// resolve expands ~ and anchors relative paths at the workspace.
func (s *Service) resolve(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return s.config.Workspace, nil
	}
	if strings.Contains(location, "://") {
		return location, nil
	}
	expanded, err := homedir.Expand(location)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(s.config.Workspace, expanded)
	}
	return filepath.Clean(expanded), nil
}

func (s *Service) memoryURL(name string) string {
	if strings.Contains(s.config.MemoryDir, "://") {
		return strings.TrimRight(s.config.MemoryDir, "/") + "/" + name
	}
	return path.Join(s.config.MemoryDir, name)
}

// New creates the built-in tool service.
func New(ctx context.Context, config *Config, logger *zap.Logger) (*Service, error) {
	config.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	workspace, err := homedir.Expand(config.Workspace)
	if err != nil {
		return nil, err
	}
	config.Workspace = workspace
	if config.MemoryDir, err = homedir.Expand(config.MemoryDir); err != nil {
		return nil, err
	}
	fs := afs.New()
	ret := &Service{
		config:       config,
		fs:           fs,
		conversation: conversation.New(config.ContextTTL, config.ContextMaxEntries),
		client:       &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(time.Second), 5),
		logger:       logger,
		now:          time.Now,
	}
	ret.notes = store.NewText(fs, ret.memoryURL("notes.md"))
	ret.calendar = store.NewJSON[Event](fs, ret.memoryURL("calendar-events.json"))
	ret.expenses = store.NewJSON[Expense](fs, ret.memoryURL("expenses.json"))
	ret.emails = store.NewJSON[Email](fs, ret.memoryURL("pending-emails.json"))
	return ret, nil
}
