package stdio

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Connector.
type Option func(c *Connector)

// WithEnv adds KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(c *Connector) {
		c.env = append(c.env, env...)
	}
}

// WithDir sets the child working directory.
func WithDir(dir string) Option {
	return func(c *Connector) {
		c.dir = dir
	}
}

// WithGracePeriod sets how long Close waits for the child after closing its input.
func WithGracePeriod(grace time.Duration) Option {
	return func(c *Connector) {
		c.grace = grace
	}
}

// WithStderr sets where the child's standard error goes.
func WithStderr(w io.Writer) Option {
	return func(c *Connector) {
		c.stderr = w
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}
