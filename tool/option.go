package tool

import "go.uber.org/zap"

// Option is a function that configures the registry.
type Option func(r *Registry)

// WithMaxLines caps the number of lines returned by a tool.
func WithMaxLines(maxLines int) Option {
	return func(r *Registry) {
		r.maxLines = maxLines
	}
}

// WithMaxBytes caps the size of the text returned by a tool.
func WithMaxBytes(maxBytes int) Option {
	return func(r *Registry) {
		r.maxBytes = maxBytes
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}
