package bridge

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/viant/mcpws/router"
	"github.com/viant/mcpws/schema"
	"github.com/viant/mcpws/stdio"
	"github.com/viant/mcpws/supervisor"
	"github.com/viant/mcpws/tool"
	"github.com/viant/mcpws/tool/builtin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Service wires the connection supervisor, the router, the tool registry and the optional stdio endpoint.
type Service struct {
	options    *Options
	logger     *zap.Logger
	supervisor *supervisor.Supervisor
	router     *router.Router
	tools      *tool.Registry
	builtin    *builtin.Service
	local      *stdio.Endpoint
}

// Router returns the message router.
func (s *Service) Router() *router.Router {
	return s.router
}

// Supervisor returns the connection supervisor.
func (s *Service) Supervisor() *supervisor.Supervisor {
	return s.supervisor
}

// Run serves until ctx is done, the local input closes or the connection is abandoned.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.router.Run(ctx)
		return nil
	})
	group.Go(func() error {
		err := s.supervisor.Run(ctx)
		cancel()
		return err
	})
	if s.local != nil {
		group.Go(func() error {
			err := s.local.Serve(ctx, func(ctx context.Context, envelope *schema.Envelope) {
				s.router.Handle(ctx, router.Local, localGeneration, envelope)
			})
			if ctx.Err() == nil {
				s.logger.Info("local input closed, shutting down")
			}
			cancel()
			return err
		})
	}
	err := group.Wait()
	_ = s.supervisor.Close()
	s.router.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases resources.
func (s *Service) Close() error {
	return s.supervisor.Close()
}

// the stdio peer lives for the whole process
const localGeneration = 1

// New creates a bridge service; reader and writer back the stdio endpoint in relay mode.
func New(ctx context.Context, options *Options, logger *zap.Logger, reader io.Reader, writer io.Writer) (*Service, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	URL, err := endpointURL(options.URL, options.Token)
	if err != nil {
		return nil, err
	}
	info, err := inspectToken(URL, time.Now())
	if err != nil {
		return nil, err
	}
	supervisorConfig := &supervisor.Config{
		URL:                  URL,
		HandshakeTimeout:     options.HandshakeTimeout,
		HeartbeatInterval:    options.Heartbeat,
		ReconnectDelay:       options.ReconnectDelay,
		MaxReconnectDelay:    options.MaxReconnectDelay,
		BackoffMultiplier:    options.Backoff,
		MaxReconnectAttempts: options.MaxReconnects,
		Handshake:            supervisor.HandshakeMode(options.Handshake),
		ProtocolVersion:      options.ProtocolVersion,
		ClientName:           options.Name,
		ClientVersion:        options.Version,
	}
	if info != nil {
		supervisorConfig.TokenSource = oauth2.StaticTokenSource(info.token)
		fields := []zap.Field{zap.String("agent", info.agentID), zap.String("subject", info.subject)}
		if !info.token.Expiry.IsZero() {
			fields = append(fields, zap.Time("expires", info.token.Expiry))
		}
		logger.Info("endpoint token", fields...)
	}

	tools := tool.New(tool.WithLogger(logger.Named("tool")))
	builtinService, err := builtin.New(ctx, &builtin.Config{
		Workspace:      options.Workspace,
		MemoryDir:      options.MemoryDir,
		UpdateCommand:  options.UpdateCommand,
		RestartCommand: options.RestartCommand,
		VersionCommand: options.VersionCommand,
		Telegram: builtin.Telegram{
			Token:     options.TelegramToken,
			ChatID:    options.TelegramChat,
			SecretURL: options.TelegramSecret,
		},
		Search: builtin.Search{APIKey: options.BraveKey},
	}, logger.Named("builtin"))
	if err != nil {
		return nil, err
	}
	if err = builtinService.Register(tools); err != nil {
		return nil, err
	}

	aRouter := router.New(&router.Config{
		ProtocolVersion: options.ProtocolVersion,
		Name:            options.Name,
		Version:         options.Version,
	}, tools, logger.Named("router"))
	aSupervisor := supervisor.New(supervisorConfig, &supervisor.WebSocketDialer{
		HandshakeTimeout: supervisorConfig.HandshakeTimeout,
		WriteTimeout:     supervisor.DefaultWriteTimeout,
	}, aRouter, aRouter.Translator(router.Remote), logger.Named("supervisor"))
	aRouter.SetEndpoint(router.Remote, aSupervisor)
	aRouter.OnHandshake(aSupervisor.MarkReady)

	ret := &Service{
		options:    options,
		logger:     logger,
		supervisor: aSupervisor,
		router:     aRouter,
		tools:      tools,
		builtin:    builtinService,
	}
	if options.Mode == ModeRelay {
		if reader == nil {
			reader = os.Stdin
		}
		if writer == nil {
			writer = os.Stdout
		}
		ret.local = stdio.New(reader, writer, logger.Named("stdio"))
		aRouter.SetEndpoint(router.Local, ret.local)
	}
	logger.Info("bridge configured", zap.String("mode", options.Mode), zap.Int("tools", len(tools.Tools())))
	return ret, nil
}
