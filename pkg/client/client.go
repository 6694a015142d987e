// Package client dispatches chat turns to one of the supported providers
// through a single call signature.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/laenglea/llmbridge/pkg/provider"
	"github.com/laenglea/llmbridge/pkg/provider/anthropic"
	"github.com/laenglea/llmbridge/pkg/provider/google"
	"github.com/laenglea/llmbridge/pkg/provider/openai"
	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGroq   Provider = "groq"
	ProviderGemini Provider = "gemini"
)

// Credentials holds the per-provider secrets. Unset values resolve to the
// empty string; the failure then surfaces as an authorization StatusError on
// the first round trip rather than up front.
type Credentials struct {
	AnthropicAccessToken string
	AnthropicAPIKey      string

	OpenAIAPIKey string
	GroqAPIKey   string
	GeminiAPIKey string
}

type Client struct {
	credentials atomic.Pointer[Credentials]

	transport transport.Func
	simulator *stream.Simulator
	limiter   *rate.Limiter
	logger    *slog.Logger

	maxRounds int
}

type Option func(*Client)

func WithCredentials(credentials Credentials) Option {
	return func(c *Client) {
		c.credentials.Store(&credentials)
	}
}

func WithTransport(fn transport.Func) Option {
	return func(c *Client) {
		c.transport = fn
	}
}

func WithStreamDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.simulator.Delay = delay
	}
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxRounds caps every provider's tool-continuation loop. 0 means
// unbounded.
func WithMaxRounds(n int) Option {
	return func(c *Client) {
		c.maxRounds = n
	}
}

func New(options ...Option) *Client {
	c := &Client{
		simulator: stream.New(),
		maxRounds: -1,
	}

	c.credentials.Store(&Credentials{})

	for _, option := range options {
		option(c)
	}

	if c.transport == nil {
		c.transport = transport.Default(nil)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// SetCredentials replaces the credential set wholesale. An in-flight call
// observes either the old or the new set at its next round trip, never a
// torn mix.
func (c *Client) SetCredentials(credentials Credentials) {
	c.credentials.Store(&credentials)
}

func (c *Client) Credentials() Credentials {
	return *c.credentials.Load()
}

// ChatOptions is the input of one SendMessage call.
type ChatOptions struct {
	Provider Provider
	Model    string

	System  string
	History []provider.Message

	Message     string
	Attachments []provider.Attachment

	Tools    []provider.Tool
	Executor provider.ToolExecutor

	Mode provider.Mode

	Hooks provider.Hooks
}

// SendMessage routes one chat turn to exactly one provider. No fallback, no
// cross-provider retries.
func (c *Client) SendMessage(ctx context.Context, opts ChatOptions) (*provider.Response, error) {
	req := &provider.ChatRequest{
		System:  opts.System,
		History: opts.History,

		Message:     opts.Message,
		Attachments: opts.Attachments,

		Tools:    opts.Tools,
		Executor: opts.Executor,

		Mode: opts.Mode,

		Hooks: opts.Hooks,
	}

	logger := c.logger.With("call", uuid.NewString(), "model", opts.Model)

	switch opts.Provider {
	case ProviderClaude:
		client, err := c.claude(opts.Model, logger)

		if err != nil {
			return nil, err
		}

		return client.Complete(ctx, req)

	case ProviderOpenAI, ProviderGroq:
		client, err := c.completions(opts.Provider, opts.Model, logger)

		if err != nil {
			return nil, err
		}

		return client.Complete(ctx, req)

	case ProviderGemini:
		client, err := c.gemini(opts.Model, logger)

		if err != nil {
			return nil, err
		}

		return client.Complete(ctx, req)

	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}

// Summarize performs a one-shot, non-conversational request against the given
// provider and returns the same response shape as SendMessage.
func (c *Client) Summarize(ctx context.Context, text, system string, providerTag Provider, model string) (*provider.Response, error) {
	logger := c.logger.With("call", uuid.NewString(), "model", model)

	switch providerTag {
	case ProviderClaude:
		client, err := c.claude(model, logger)

		if err != nil {
			return nil, err
		}

		return client.Summarize(ctx, text, system)

	case ProviderOpenAI, ProviderGroq:
		client, err := c.completions(providerTag, model, logger)

		if err != nil {
			return nil, err
		}

		return client.Summarize(ctx, text, system)

	case ProviderGemini:
		client, err := c.gemini(model, logger)

		if err != nil {
			return nil, err
		}

		return client.Summarize(ctx, text, system)

	default:
		return nil, fmt.Errorf("unknown provider %q", providerTag)
	}
}

func (c *Client) claude(model string, logger *slog.Logger) (*anthropic.Client, error) {
	options := []anthropic.Option{
		anthropic.WithCredentials(func() (string, string) {
			credentials := c.Credentials()
			return credentials.AnthropicAccessToken, credentials.AnthropicAPIKey
		}),
		anthropic.WithTransport(c.transport),
		anthropic.WithSimulator(c.simulator),
		anthropic.WithLogger(logger),
	}

	if c.limiter != nil {
		options = append(options, anthropic.WithLimiter(c.limiter))
	}

	if c.maxRounds >= 0 {
		options = append(options, anthropic.WithMaxRounds(c.maxRounds))
	}

	return anthropic.New(model, options...)
}

func (c *Client) completions(providerTag Provider, model string, logger *slog.Logger) (*openai.Client, error) {
	options := []openai.Option{
		openai.WithTransport(c.transport),
		openai.WithSimulator(c.simulator),
		openai.WithLogger(logger),
	}

	if providerTag == ProviderGroq {
		options = append(options,
			openai.WithURL(openai.GroqURL),
			openai.WithTokenSource(func() string {
				return c.Credentials().GroqAPIKey
			}),
		)
	} else {
		options = append(options,
			openai.WithTokenSource(func() string {
				return c.Credentials().OpenAIAPIKey
			}),
		)
	}

	if c.limiter != nil {
		options = append(options, openai.WithLimiter(c.limiter))
	}

	if c.maxRounds >= 0 {
		options = append(options, openai.WithMaxRounds(c.maxRounds))
	}

	return openai.New(model, options...)
}

func (c *Client) gemini(model string, logger *slog.Logger) (*google.Client, error) {
	options := []google.Option{
		google.WithTokenSource(func() string {
			return c.Credentials().GeminiAPIKey
		}),
		google.WithTransport(c.transport),
		google.WithSimulator(c.simulator),
		google.WithLogger(logger),
	}

	if c.limiter != nil {
		options = append(options, google.WithLimiter(c.limiter))
	}

	if c.maxRounds >= 0 {
		options = append(options, google.WithMaxRounds(c.maxRounds))
	}

	return google.New(model, options...)
}
