package google

import (
	"log/slog"

	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"

	"golang.org/x/time/rate"
)

type Config struct {
	url   string
	model string

	token string

	tokenSource func() string

	transport transport.Func
	simulator *stream.Simulator
	limiter   *rate.Limiter
	logger    *slog.Logger

	maxRounds int
}

type Option func(*Config)

func WithURL(url string) Option {
	return func(c *Config) {
		c.url = url
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

// WithTokenSource supplies the API key dynamically, consulted once per round
// trip.
func WithTokenSource(fn func() string) Option {
	return func(c *Config) {
		c.tokenSource = fn
	}
}

func WithTransport(fn transport.Func) Option {
	return func(c *Config) {
		c.transport = fn
	}
}

func WithSimulator(s *stream.Simulator) Option {
	return func(c *Config) {
		c.simulator = s
	}
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Config) {
		c.limiter = limiter
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithMaxRounds caps the tool-continuation loop. 0 means unbounded.
func WithMaxRounds(n int) Option {
	return func(c *Config) {
		c.maxRounds = n
	}
}

func (c *Config) resolveToken() string {
	if c.tokenSource != nil {
		return c.tokenSource()
	}

	return c.token
}
