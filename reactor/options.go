package reactor

import (
	"context"
	"log/slog"
)

// DefaultQueueSize is the event buffer used when WithQueueSize is not given.
const DefaultQueueSize = 64

type config struct {
	name       string
	queueSize  int
	logHandler slog.Handler
	ctx        context.Context
	observer   Observer
}

// Option represents a functional option for configuring a Reactor.
type Option func(*config)

// WithName sets the name used in logs, metrics and String().
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithQueueSize sets how many events may wait for the worker before Send
// blocks. Zero makes every Send a synchronous hand-off to the worker.
func WithQueueSize(size int) Option {
	return func(c *config) {
		c.queueSize = size
	}
}

// WithLogHandler sets a custom slog handler for the Reactor instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) {
		if handler != nil {
			c.logHandler = handler
		}
	}
}

// WithContext sets a parent context. Canceling it stops the worker as if the
// input had been closed, and Join reports ErrNotTerminated.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithObserver attaches an Observer, such as a metrics collector.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
