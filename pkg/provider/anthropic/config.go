package anthropic

import (
	"log/slog"

	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"

	"golang.org/x/time/rate"
)

type Config struct {
	url   string
	model string

	accessToken string
	apiKey      string

	credentials func() (accessToken, apiKey string)

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

// WithAccessToken sets the OAuth access token. When present it takes
// precedence over the API key.
func WithAccessToken(token string) Option {
	return func(c *Config) {
		c.accessToken = token
	}
}

func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.apiKey = key
	}
}

// WithCredentials supplies the credentials dynamically. The function is
// consulted once per round trip, so a wholesale credential swap becomes
// visible to an in-flight call at its next round.
func WithCredentials(fn func() (accessToken, apiKey string)) Option {
	return func(c *Config) {
		c.credentials = fn
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

func (c *Config) resolveCredentials() (string, string) {
	if c.credentials != nil {
		return c.credentials()
	}

	return c.accessToken, c.apiKey
}
