package bridge

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

// Run parses args and runs the bridge until interrupted.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	logger, err := NewLogger(options.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	service, err := New(ctx, options, logger, nil, nil)
	if err != nil {
		return err
	}
	if err = service.Run(ctx); err != nil {
		logger.Error("bridge stopped", zap.Error(err))
		return fmt.Errorf("bridge stopped: %w", err)
	}
	return nil
}
