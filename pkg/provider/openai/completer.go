package openai

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
)

const (
	defaultMaxTokens = 4096
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
		url:   DefaultURL,
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

	name := "openai"

	if cfg.legacyMaxTokens() {
		name = "groq"
	}

	cfg.logger = cfg.logger.With("provider", name)

	return &Client{
		Config: cfg,
	}, nil
}

// Complete runs the conversational tool-continuation loop against the chat
// completions protocol. Tool results are correlated by tool_call_id.
func (c *Client) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.Response, error) {
	messages := seedMessages(req)

	var text strings.Builder
	var total provider.Usage

	for round := 0; ; round++ {
		if c.maxRounds > 0 && round >= c.maxRounds {
			return nil, provider.ErrToolLoop
		}

		body := c.buildRequest(req.Tools, messages)

		reply, err := c.send(ctx, body)

		if err != nil {
			return nil, err
		}

		if len(reply.Choices) == 0 {
			return nil, provider.ErrNoCandidates
		}

		total.Add(provider.Usage{
			InputTokens:  reply.Usage.PromptTokens,
			OutputTokens: reply.Usage.CompletionTokens,
		})

		current := reply.Choices[0]

		c.logger.Debug("round complete",
			"round", round,
			"finish_reason", current.FinishReason,
			"tool_calls", len(current.Message.ToolCalls),
			"input_tokens", reply.Usage.PromptTokens,
			"output_tokens", reply.Usage.CompletionTokens,
		)

		if current.Message.Content != "" {
			text.WriteString(current.Message.Content)

			if err := c.simulator.Stream(ctx, current.Message.Content, req.Hooks.OnText); err != nil {
				return nil, err
			}
		}

		if current.FinishReason != "tool_calls" || len(current.Message.ToolCalls) == 0 {
			return &provider.Response{
				Text:  text.String(),
				Usage: total,
			}, nil
		}

		if req.Executor == nil {
			return nil, provider.ErrMissingExecutor
		}

		assistant := chatMessage{
			Role:      "assistant",
			ToolCalls: current.Message.ToolCalls,
		}

		if current.Message.Content != "" {
			assistant.Content = current.Message.Content
		}

		messages = append(messages, assistant)

		for _, call := range current.Message.ToolCalls {
			var input map[string]any

			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("parse tool arguments for %s: %w", call.Function.Name, err)
			}

			if input == nil {
				input = map[string]any{}
			}

			req.Hooks.ToolUse(call.Function.Name, input)

			result, err := req.Executor(ctx, call.Function.Name, input)

			if err != nil {
				return nil, err
			}

			req.Hooks.ToolResult(call.Function.Name, result)

			messages = append(messages, chatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
}

// Summarize performs a single request without tools or streaming.
func (c *Client) Summarize(ctx context.Context, text, system string) (*provider.Response, error) {
	var messages []chatMessage

	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	messages = append(messages, chatMessage{Role: "user", Content: text})

	reply, err := c.send(ctx, c.buildRequest(nil, messages))

	if err != nil {
		return nil, err
	}

	if len(reply.Choices) == 0 {
		return nil, provider.ErrNoCandidates
	}

	return &provider.Response{
		Text: reply.Choices[0].Message.Content,
		Usage: provider.Usage{
			InputTokens:  reply.Usage.PromptTokens,
			OutputTokens: reply.Usage.CompletionTokens,
		},
	}, nil
}

func (c *Client) send(ctx context.Context, body chatRequest) (*chatResponse, error) {
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
		Header: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + c.resolveToken(),
		},
		Body: data,
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

	var reply chatResponse

	if err := resp.Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &reply, nil
}

func (c *Client) buildRequest(tools []provider.Tool, messages []chatMessage) chatRequest {
	body := chatRequest{
		Model:    c.model,
		Messages: messages,
	}

	if c.legacyMaxTokens() {
		body.MaxTokens = defaultMaxTokens
	} else {
		body.MaxCompletionTokens = defaultMaxTokens
	}

	for _, t := range tools {
		body.Tools = append(body.Tools, toolParam{
			Type: "function",
			Function: functionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	return body
}

func seedMessages(req *provider.ChatRequest) []chatMessage {
	var messages []chatMessage

	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}

	for _, m := range req.History {
		switch m.Role {
		case provider.RoleUser:
			messages = append(messages, chatMessage{Role: "user", Content: m.Text})

		case provider.RoleAssistant:
			messages = append(messages, chatMessage{Role: "assistant", Content: m.Text})
		}
	}

	return append(messages, userMessage(req.Message, req.Attachments))
}

func userMessage(text string, attachments []provider.Attachment) chatMessage {
	if len(attachments) == 0 {
		return chatMessage{Role: "user", Content: text}
	}

	var parts []contentPart

	for _, a := range attachments {
		switch a.Kind {
		case provider.AttachmentText:
			parts = append(parts, contentPart{Type: "text", Text: a.Label()})

		case provider.AttachmentImage:
			parts = append(parts, contentPart{
				Type: "image_url",
				ImageURL: &imageURL{
					URL:    "data:" + a.MimeType + ";base64," + a.Data,
					Detail: "auto",
				},
			})

		case provider.AttachmentPDF:
			// No native document support on this protocol.
			parts = append(parts, contentPart{
				Type: "text",
				Text: fmt.Sprintf("[Unsupported attachment: %s (%s)]", a.Name, a.MimeType),
			})
		}
	}

	parts = append(parts, contentPart{Type: "text", Text: text})

	return chatMessage{Role: "user", Content: parts}
}
