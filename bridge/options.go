package bridge

import (
	"fmt"
	"time"

	"github.com/viant/mcpws/supervisor"
)

const (
	ModeServe = "serve"
	ModeRelay = "relay"
)

// Options represents bridge command line options; most fall back to environment variables.
type Options struct {
	URL   string `short:"u" long:"url" env:"XIAOZHI_MCP_URL" description:"websocket endpoint url" required:"true"`
	Token string `long:"token" env:"XIAOZHI_MCP_TOKEN" description:"endpoint token, appended as the token query parameter"`
	Mode  string `short:"m" long:"mode" env:"MCPWS_MODE" description:"serve answers tools only, relay also forwards to stdio" choice:"serve" choice:"relay" default:"serve"`

	Heartbeat         time.Duration `long:"heartbeat" env:"MCPWS_HEARTBEAT" description:"heartbeat interval" default:"30s"`
	HandshakeTimeout  time.Duration `long:"handshake-timeout" description:"handshake timeout" default:"10s"`
	ReconnectDelay    time.Duration `long:"reconnect-delay" env:"MCPWS_RECONNECT_DELAY" description:"initial reconnect delay" default:"5s"`
	MaxReconnectDelay time.Duration `long:"max-reconnect-delay" description:"reconnect delay cap" default:"60s"`
	Backoff           float64       `long:"backoff" description:"reconnect delay multiplier, 1 keeps the delay fixed" default:"1"`
	MaxReconnects     int           `long:"max-reconnects" env:"MCPWS_MAX_RECONNECTS" description:"consecutive failed attempts before giving up, negative for unlimited" default:"10"`
	Handshake         string        `long:"handshake" description:"await the peer initialize or initiate one" choice:"await" choice:"initiate" default:"await"`
	ProtocolVersion   string        `long:"protocol" description:"mcp protocol version announced by the bridge"`

	Workspace      string `short:"w" long:"workspace" env:"MCPWS_WORKSPACE" description:"workspace directory" default:"."`
	MemoryDir      string `long:"memory-dir" env:"MCPWS_MEMORY_DIR" description:"directory for notes, calendar and expenses"`
	UpdateCommand  string `long:"update-command" env:"MCPWS_UPDATE_COMMAND" description:"command run by update_package"`
	RestartCommand string `long:"restart-command" env:"MCPWS_RESTART_COMMAND" description:"command run after a successful update"`
	VersionCommand string `long:"version-command" description:"command printing the installed version"`

	TelegramToken  string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"telegram bot token"`
	TelegramChat   string `long:"telegram-chat" env:"TELEGRAM_CHAT_ID" description:"default telegram chat id"`
	TelegramSecret string `long:"telegram-secret" description:"encrypted telegram credential url"`
	BraveKey       string `long:"brave-key" env:"BRAVE_API_KEY" description:"brave search api key"`

	LogLevel string `long:"log-level" env:"MCPWS_LOG_LEVEL" description:"log level" default:"info"`
	Name     string `short:"n" long:"name" description:"server name announced on initialize" default:"mcpws"`
	Version  string `short:"v" long:"version" description:"server version announced on initialize" default:"0.1.0"`
}

// Validate checks option consistency.
func (o *Options) Validate() error {
	if o.URL == "" {
		return fmt.Errorf("endpoint url was empty: set --url or XIAOZHI_MCP_URL")
	}
	switch o.Mode {
	case "", ModeServe, ModeRelay:
	default:
		return fmt.Errorf("unsupported mode: %v", o.Mode)
	}
	switch supervisor.HandshakeMode(o.Handshake) {
	case "", supervisor.HandshakeAwait, supervisor.HandshakeInitiate:
	default:
		return fmt.Errorf("unsupported handshake: %v", o.Handshake)
	}
	return nil
}
