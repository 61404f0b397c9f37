// Package tool implements the tool dispatch table: a registry of named,
// schema described handlers whose every outcome, including failure, is a
// bounded text result.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

const (
	DefaultMaxLines = 200
	DefaultMaxBytes = 16 * 1024
)

// Handler executes a tool with already validated arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (string, error)

type entry struct {
	tool    schema.Tool
	handler Handler
}

// Registry maps tool names to handlers.
type Registry struct {
	mux      sync.RWMutex
	entries  map[string]*entry
	maxLines int
	maxBytes int
	logger   *zap.Logger
}

// Register adds a tool; names must be unique.
func (r *Registry) Register(tool schema.Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name was empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %v: handler was nil", tool.Name)
	}
	if tool.InputSchema.Type == "" {
		tool.InputSchema.Type = "object"
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.entries[tool.Name]; ok {
		return fmt.Errorf("tool %v already registered", tool.Name)
	}
	r.entries[tool.Name] = &entry{tool: tool, handler: handler}
	return nil
}

// Register adds a tool whose input schema is derived from I.
func Register[I any](registry *Registry, name, description string, fn func(ctx context.Context, input *I) (string, error)) error {
	tool := schema.Tool{Name: name, Description: description}
	if err := tool.InputSchema.Load(new(I)); err != nil {
		return fmt.Errorf("tool %v: %w", name, err)
	}
	return registry.Register(tool, func(ctx context.Context, args map[string]interface{}) (string, error) {
		input := new(I)
		if len(args) > 0 {
			data, err := json.Marshal(args)
			if err != nil {
				return "", err
			}
			if err = json.Unmarshal(data, input); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
		}
		return fn(ctx, input)
	})
}

// Tools returns the catalog sorted by name.
func (r *Registry) Tools() []schema.Tool {
	r.mux.RLock()
	defer r.mux.RUnlock()
	result := make([]schema.Tool, 0, len(r.entries))
	for _, item := range r.entries {
		result = append(result, item.tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Dispatch runs the named tool and returns its text; failures are returned as text too.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) string {
	text, _ := r.dispatch(ctx, name, args)
	return text
}

// Call runs a tools/call request.
func (r *Registry) Call(ctx context.Context, params *schema.CallToolParams) *schema.CallToolResult {
	text, failed := r.dispatch(ctx, params.Name, params.Arguments)
	result := schema.NewTextResult(text)
	result.IsError = failed
	return result
}

func (r *Registry) dispatch(ctx context.Context, name string, args map[string]interface{}) (text string, failed bool) {
	r.mux.RLock()
	item, ok := r.entries[name]
	r.mux.RUnlock()
	if !ok {
		return fmt.Sprintf("unknown tool: %v", name), true
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	if err := item.tool.InputSchema.Validate(args); err != nil {
		return fmt.Sprintf("%v: %v", name, err), true
	}
	output, err := r.invoke(ctx, item, args)
	if err != nil {
		r.logger.Warn("tool failed", zap.String("tool", name), zap.Error(err))
		return r.bound(fmt.Sprintf("%v failed: %v", name, err)), true
	}
	return r.bound(output), false
}

func (r *Registry) invoke(ctx context.Context, item *entry, args map[string]interface{}) (output string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return item.handler(ctx, args)
}

func (r *Registry) bound(text string) string {
	return TruncateBytes(TruncateLines(text, r.maxLines), r.maxBytes)
}

// New creates a registry.
func New(options ...Option) *Registry {
	ret := &Registry{entries: map[string]*entry{}, maxLines: DefaultMaxLines, maxBytes: DefaultMaxBytes}
	for _, option := range options {
		option(ret)
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	return ret
}
