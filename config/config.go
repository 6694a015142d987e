// Package config loads client configuration from a YAML file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/laenglea/llmbridge/pkg/client"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Credentials credentialsConfig `yaml:"credentials"`

	Stream streamConfig `yaml:"stream"`
	Limits limitsConfig `yaml:"limits"`
}

type credentialsConfig struct {
	AnthropicAccessToken string `yaml:"anthropic_access_token"`
	AnthropicAPIKey      string `yaml:"anthropic_api_key"`

	OpenAIAPIKey string `yaml:"openai_api_key"`
	GroqAPIKey   string `yaml:"groq_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
}

type streamConfig struct {
	DelayMS int `yaml:"delay_ms"`
}

type limitsConfig struct {
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	MaxRounds         *int `yaml:"max_rounds"`
}

// Parse reads a YAML config file. ${VAR} references expand from the
// environment; unset variables expand empty, matching the empty-credential
// policy of the client.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config Config

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &config, nil
}

// Client builds a client from the configuration. Extra options apply after
// the configured ones and may override them.
func (c *Config) Client(options ...client.Option) *client.Client {
	opts := []client.Option{
		client.WithCredentials(client.Credentials{
			AnthropicAccessToken: c.Credentials.AnthropicAccessToken,
			AnthropicAPIKey:      c.Credentials.AnthropicAPIKey,

			OpenAIAPIKey: c.Credentials.OpenAIAPIKey,
			GroqAPIKey:   c.Credentials.GroqAPIKey,
			GeminiAPIKey: c.Credentials.GeminiAPIKey,
		}),
	}

	if c.Stream.DelayMS > 0 {
		opts = append(opts, client.WithStreamDelay(time.Duration(c.Stream.DelayMS)*time.Millisecond))
	}

	if c.Limits.RequestsPerMinute > 0 {
		opts = append(opts, client.WithLimiter(rate.NewLimiter(rate.Limit(float64(c.Limits.RequestsPerMinute)/60), c.Limits.RequestsPerMinute)))
	}

	if c.Limits.MaxRounds != nil {
		opts = append(opts, client.WithMaxRounds(*c.Limits.MaxRounds))
	}

	return client.New(append(opts, options...)...)
}
