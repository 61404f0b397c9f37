package builtin

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner/local"
	"github.com/viant/mcpws/tool"
	"go.uber.org/zap"
)

// ErrCommandTimeout is returned when a command exceeds its budget.
var ErrCommandTimeout = errors.New("command timed out")

// ExecuteCommandInput represents execute_command arguments.
type ExecuteCommandInput struct {
	Command string `json:"command" description:"shell command to run in the workspace"`
}

// SystemStatusInput represents check_system_status arguments.
type SystemStatusInput struct{}

// UpdatePackageInput represents update_package arguments.
type UpdatePackageInput struct {
	Confirm bool `json:"confirm,omitempty" description:"must be true to run the update"`
}

type probe struct {
	title   string
	command string
}

// shellResult is a finished command.
type shellResult struct {
	output string
	code   int
}

func (s *Service) registerShell(registry *tool.Registry) error {
	if err := tool.Register[ExecuteCommandInput](registry, "execute_command", "Run a shell command and return its output", s.executeCommand); err != nil {
		return err
	}
	if err := tool.Register[SystemStatusInput](registry, "check_system_status", "Report uptime, memory and disk usage", s.checkSystemStatus); err != nil {
		return err
	}
	return tool.Register[UpdatePackageInput](registry, "update_package", "Update the bridge package and restart it", s.updatePackage)
}

func (s *Service) executeCommand(ctx context.Context, input *ExecuteCommandInput) (string, error) {
	command := strings.TrimSpace(input.Command)
	if command == "" {
		return "", fmt.Errorf("command was empty")
	}
	result, err := s.run(ctx, "cd "+quote(s.config.Workspace)+" && "+command, s.config.CommandTimeout)
	if err != nil {
		return "", err
	}
	if result.code != 0 {
		return "", fmt.Errorf("exit code %d: %v", result.code, strings.TrimSpace(result.output))
	}
	if strings.TrimSpace(result.output) == "" {
		return "command completed with no output", nil
	}
	return result.output, nil
}

func (s *Service) checkSystemStatus(ctx context.Context, _ *SystemStatusInput) (string, error) {
	commands := []probe{{"Uptime", "uptime"}, {"Disk", "df -h ."}}
	if runtime.GOOS == "darwin" {
		commands = append(commands, probe{"Memory", "vm_stat | head -5"})
	} else {
		commands = append(commands, probe{"Memory", "free -h"})
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Host: %v/%v, %d CPUs\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()))
	for _, item := range commands {
		result, err := s.run(ctx, item.command, s.config.CommandTimeout)
		output := ""
		switch {
		case err != nil:
			output = "unavailable: " + err.Error()
		case result.code != 0:
			output = fmt.Sprintf("unavailable: exit code %d", result.code)
		default:
			output = strings.TrimSpace(result.output)
		}
		builder.WriteString(fmt.Sprintf("%v:\n%v\n", item.title, output))
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

func (s *Service) updatePackage(ctx context.Context, input *UpdatePackageInput) (string, error) {
	if !input.Confirm {
		return "update not confirmed: call again with confirm=true", nil
	}
	if s.config.UpdateCommand == "" {
		return "", fmt.Errorf("update command was not configured")
	}
	var builder strings.Builder
	if s.config.VersionCommand != "" {
		if result, err := s.run(ctx, s.config.VersionCommand, s.config.CommandTimeout); err == nil {
			builder.WriteString("current version: " + strings.TrimSpace(result.output) + "\n")
		}
	}
	result, err := s.run(ctx, s.config.UpdateCommand, s.config.UpdateTimeout)
	if err != nil {
		return "", err
	}
	if result.code != 0 {
		return "", fmt.Errorf("update exit code %d: %v", result.code, strings.TrimSpace(result.output))
	}
	builder.WriteString(strings.TrimSpace(result.output) + "\n")
	if s.config.VersionCommand != "" {
		if result, err := s.run(ctx, s.config.VersionCommand, s.config.CommandTimeout); err == nil {
			builder.WriteString("updated version: " + strings.TrimSpace(result.output) + "\n")
		}
	}
	if s.config.RestartCommand != "" {
		restart := s.config.RestartCommand
		go func() {
			// let the tool result reach the endpoint before the process is replaced
			time.Sleep(time.Second)
			if _, err := s.run(context.Background(), restart, s.config.RestartTimeout); err != nil {
				s.logger.Error("restart failed", zap.Error(err))
			}
		}()
		builder.WriteString("restart scheduled")
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

// run executes command in a fresh local shell bounded by timeout.
func (s *Service) run(ctx context.Context, command string, timeout time.Duration) (*shellResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	term, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}
	done := make(chan *shellResult, 1)
	failed := make(chan error, 1)
	go func() {
		output, code, err := term.Run(ctx, command)
		if err != nil {
			failed <- err
			return
		}
		done <- &shellResult{output: output, code: code}
	}()
	defer func() { _ = term.Close() }()
	select {
	case result := <-done:
		return result, nil
	case err := <-failed:
		return nil, err
	case <-ctx.Done():
		s.logger.Warn("command timed out", zap.String("command", command), zap.Duration("timeout", timeout))
		return nil, fmt.Errorf("%w after %v", ErrCommandTimeout, timeout)
	}
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
