package openai

import (
	"log/slog"
	"strings"

	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"

	"golang.org/x/time/rate"
)

const (
	// DefaultURL is the OpenAI chat-completions endpoint.
	DefaultURL = "https://api.openai.com/v1/chat/completions"

	// GroqURL is Groq's OpenAI-compatible chat-completions endpoint.
	GroqURL = "https://api.groq.com/openai/v1/chat/completions"
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

// legacyMaxTokens reports whether the target endpoint still expects the old
// "max_tokens" parameter. Groq has not adopted "max_completion_tokens"; the
// parameter name is selected by host, not assumed universal.
func (c *Config) legacyMaxTokens() bool {
	return strings.Contains(c.url, "groq.com")
}
