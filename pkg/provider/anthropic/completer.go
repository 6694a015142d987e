package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/laenglea/llmbridge/pkg/provider"
	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"

	"github.com/google/uuid"
)

const (
	defaultURL = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"

	betaOAuth       = "oauth-2025-04-20"
	betaInterleaved = "interleaved-thinking-2025-05-14"

	defaultMaxTokens   = 8192
	reasoningMaxTokens = 32768

	thinkingBudget = 16384

	defaultMaxRounds = 32
)

var (
	_ provider.Completer  = (*Client)(nil)
	_ provider.Summarizer = (*Client)(nil)
)

type Client struct {
	*Config
}

func New(model string, options ...Option) (*Client, error) {
	cfg := &Config{
		url:   defaultURL,
		model: model,

		maxRounds: defaultMaxRounds,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.transport == nil {
		cfg.transport = transport.Default(nil)
	}

	if cfg.simulator == nil {
		cfg.simulator = stream.New()
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	cfg.logger = cfg.logger.With("provider", "anthropic")

	return &Client{
		Config: cfg,
	}, nil
}

// Complete runs the conversational tool-continuation loop against the
// Messages API. The full returned content array, thinking blocks included,
// is replayed as the assistant turn on each continuation round.
func (c *Client) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.Response, error) {
	messages := convertHistory(req.History)
	messages = append(messages, userMessage(req.Message, req.Attachments))

	reasoning := req.Mode == provider.ModeReason

	var text strings.Builder
	var total provider.Usage

	for round := 0; ; round++ {
		if c.maxRounds > 0 && round >= c.maxRounds {
			return nil, provider.ErrToolLoop
		}

		reply, err := c.send(ctx, c.buildRequest(req, messages, reasoning), reasoning)

		if err != nil {
			return nil, err
		}

		total.Add(toUsage(reply.Usage))

		c.logger.Debug("round complete",
			"round", round,
			"stop_reason", reply.StopReason,
			"blocks", len(reply.Content),
			"input_tokens", reply.Usage.InputTokens,
			"output_tokens", reply.Usage.OutputTokens,
		)

		var toolUses []contentBlock

		for i := range reply.Content {
			block := &reply.Content[i]

			switch block.Type {
			case "text":
				text.WriteString(block.Text)

				if err := c.simulator.Stream(ctx, block.Text, req.Hooks.OnText); err != nil {
					return nil, err
				}

			case "thinking":
				req.Hooks.Thinking(block.Thinking)

			case "tool_use":
				if block.ID == "" {
					block.ID = "toolu_" + uuid.NewString()
				}

				toolUses = append(toolUses, *block)
			}
		}

		if reply.StopReason == "end_turn" || len(toolUses) == 0 {
			return &provider.Response{
				Text:  text.String(),
				Usage: total,
			}, nil
		}

		if req.Executor == nil {
			return nil, provider.ErrMissingExecutor
		}

		messages = append(messages, chatMessage{
			Role:    "assistant",
			Content: reply.Content,
		})

		var results []contentBlock

		for _, call := range toolUses {
			input := call.Input

			if input == nil {
				input = map[string]any{}
			}

			req.Hooks.ToolUse(call.Name, input)

			result, err := req.Executor(ctx, call.Name, input)

			if err != nil {
				return nil, err
			}

			req.Hooks.ToolResult(call.Name, result)

			results = append(results, contentBlock{
				Type:      "tool_result",
				ToolUseID: call.ID,
				Content:   result,
			})
		}

		messages = append(messages, chatMessage{
			Role:    "user",
			Content: results,
		})
	}
}

// Summarize performs a single non-conversational request without tools or
// streaming.
func (c *Client) Summarize(ctx context.Context, text, system string) (*provider.Response, error) {
	body := messageRequest{
		Model: c.model,

		MaxTokens: defaultMaxTokens,

		Messages: []chatMessage{
			{Role: "user", Content: text},
		},
	}

	if system != "" {
		body.System = []textBlock{
			{Type: "text", Text: system, CacheControl: ephemeral()},
		}
	}

	reply, err := c.send(ctx, body, false)

	if err != nil {
		return nil, err
	}

	var result strings.Builder

	for _, block := range reply.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return &provider.Response{
		Text:  result.String(),
		Usage: toUsage(reply.Usage),
	}, nil
}

func (c *Client) send(ctx context.Context, body messageRequest, reasoning bool) (*messageResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(body)

	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.transport(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.url,
		Header: c.headers(reasoning),
		Body:   data,
	})

	if err != nil {
		return nil, err
	}

	if resp.Status != http.StatusOK {
		return nil, &provider.StatusError{
			Status: resp.Status,
			Body:   string(resp.Body),
		}
	}

	var reply messageResponse

	if err := resp.Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &reply, nil
}

func (c *Client) buildRequest(req *provider.ChatRequest, messages []chatMessage, reasoning bool) messageRequest {
	body := messageRequest{
		Model: c.model,

		MaxTokens: defaultMaxTokens,

		Messages: messages,
	}

	if reasoning {
		body.MaxTokens = reasoningMaxTokens

		if strings.Contains(c.model, "opus") {
			body.Thinking = &thinkingConfig{Type: "adaptive"}
		} else {
			body.Thinking = &thinkingConfig{Type: "enabled", BudgetTokens: thinkingBudget}
		}
	}

	if req.System != "" {
		body.System = []textBlock{
			{Type: "text", Text: req.System, CacheControl: ephemeral()},
		}
	}

	for _, t := range req.Tools {
		body.Tools = append(body.Tools, toolParam{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	// Prompt-caching breakpoint after the last tool definition.
	if len(body.Tools) > 0 {
		body.Tools[len(body.Tools)-1].CacheControl = ephemeral()
	}

	return body
}

// headers builds the per-request header set. An access token switches auth to
// bearer mode with its beta flag; otherwise the raw API key header is used.
// Never both.
func (c *Client) headers(reasoning bool) map[string]string {
	header := map[string]string{
		"content-type":      "application/json",
		"anthropic-version": apiVersion,
	}

	var betas []string

	accessToken, apiKey := c.resolveCredentials()

	if accessToken != "" {
		header["Authorization"] = "Bearer " + accessToken
		betas = append(betas, betaOAuth)
	} else {
		header["x-api-key"] = apiKey
	}

	if reasoning {
		betas = append(betas, betaInterleaved)
	}

	if len(betas) > 0 {
		header["anthropic-beta"] = strings.Join(betas, ",")
	}

	return header
}

func convertHistory(history []provider.Message) []chatMessage {
	var messages []chatMessage

	for _, m := range history {
		switch m.Role {
		case provider.RoleUser:
			messages = append(messages, chatMessage{Role: "user", Content: m.Text})

		case provider.RoleAssistant:
			messages = append(messages, chatMessage{Role: "assistant", Content: m.Text})
		}
	}

	return messages
}

func userMessage(text string, attachments []provider.Attachment) chatMessage {
	if len(attachments) == 0 {
		return chatMessage{Role: "user", Content: text}
	}

	var blocks []contentBlock

	for _, a := range attachments {
		switch a.Kind {
		case provider.AttachmentText:
			blocks = append(blocks, contentBlock{Type: "text", Text: a.Label()})

		case provider.AttachmentImage:
			blocks = append(blocks, contentBlock{
				Type: "image",
				Source: &blockSource{
					Type:      "base64",
					MediaType: a.MimeType,
					Data:      a.Data,
				},
			})

		case provider.AttachmentPDF:
			blocks = append(blocks, contentBlock{
				Type: "document",
				Source: &blockSource{
					Type:      "base64",
					MediaType: "application/pdf",
					Data:      a.Data,
				},
			})
		}
	}

	blocks = append(blocks, contentBlock{Type: "text", Text: text})

	return chatMessage{Role: "user", Content: blocks}
}

func toUsage(u usage) provider.Usage {
	return provider.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,

		CacheCreationInputTokens: u.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
	}
}
