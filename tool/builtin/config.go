package builtin

import (
	"time"

	"github.com/viant/mcpws/conversation"
)

const (
	DefaultCommandTimeout = 30 * time.Second
	DefaultUpdateTimeout  = 120 * time.Second
	DefaultRestartTimeout = 15 * time.Second
	DefaultReadLimit      = 100
	DefaultListLimit      = 30
)

// Config represents built-in tool settings.
type Config struct {
	// Workspace resolves relative paths and is the default directory for listing and git status.
	Workspace string
	// MemoryDir holds the notes, calendar, expense and email documents.
	MemoryDir string

	CommandTimeout time.Duration
	UpdateTimeout  time.Duration
	RestartTimeout time.Duration
	UpdateCommand  string
	RestartCommand string
	VersionCommand string

	ReadLimit int
	ListLimit int

	Telegram Telegram
	Search   Search

	ContextTTL        time.Duration
	ContextMaxEntries int
}

// Telegram represents Telegram Bot API settings.
type Telegram struct {
	Token  string
	ChatID string
	// SecretURL points to an encrypted basic credential (username: chat id, password: bot token).
	SecretURL string
	SecretKey string
	APIURL    string
}

// Search represents Brave search API settings.
type Search struct {
	APIKey string
	APIURL string
}

func (c *Config) Init() {
	if c.Workspace == "" {
		c.Workspace = "."
	}
	if c.MemoryDir == "" {
		c.MemoryDir = c.Workspace + "/memory"
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.UpdateTimeout <= 0 {
		c.UpdateTimeout = DefaultUpdateTimeout
	}
	if c.RestartTimeout <= 0 {
		c.RestartTimeout = DefaultRestartTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = DefaultReadLimit
	}
	if c.ListLimit <= 0 {
		c.ListLimit = DefaultListLimit
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Telegram.SecretKey == "" {
		c.Telegram.SecretKey = "blowfish://default"
	}
	if c.Search.APIURL == "" {
		c.Search.APIURL = "https://api.search.brave.com/res/v1/web/search"
	}
	if c.ContextTTL <= 0 {
		c.ContextTTL = conversation.DefaultTTL
	}
	if c.ContextMaxEntries <= 0 {
		c.ContextMaxEntries = conversation.DefaultMaxEntries
	}
}
