package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/laenglea/llmbridge/pkg/provider"
	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"
)

const (
	defaultURL = "https://generativelanguage.googleapis.com/v1beta/models"

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

	cfg.logger = cfg.logger.With("provider", "gemini")

	return &Client{
		Config: cfg,
	}, nil
}

// Complete runs the conversational tool-continuation loop against the
// generateContent API. The full returned parts array is echoed back into
// history each round; function results are correlated by function name.
func (c *Client) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.Response, error) {
	contents := convertHistory(req.History)
	contents = append(contents, userContent(req.Message, req.Attachments))

	body := generateRequest{
		Contents: contents,
	}

	if req.System != "" {
		body.SystemInstruction = &content{
			Parts: []part{{Text: req.System}},
		}
	}

	if len(req.Tools) > 0 {
		body.Tools = []toolParam{{
			FunctionDeclarations: convertTools(req.Tools),
		}}
	}

	var text strings.Builder
	var total provider.Usage

	for round := 0; ; round++ {
		if c.maxRounds > 0 && round >= c.maxRounds {
			return nil, provider.ErrToolLoop
		}

		reply, err := c.send(ctx, body)

		if err != nil {
			return nil, err
		}

		if len(reply.Candidates) == 0 {
			return nil, provider.ErrNoCandidates
		}

		total.Add(provider.Usage{
			InputTokens:  reply.UsageMetadata.PromptTokenCount,
			OutputTokens: reply.UsageMetadata.CandidatesTokenCount,
		})

		current := reply.Candidates[0]

		var calls []functionCall

		for _, p := range current.Content.Parts {
			if p.Text != "" {
				text.WriteString(p.Text)

				if err := c.simulator.Stream(ctx, p.Text, req.Hooks.OnText); err != nil {
					return nil, err
				}
			}

			if p.FunctionCall != nil {
				calls = append(calls, *p.FunctionCall)
			}
		}

		c.logger.Debug("round complete",
			"round", round,
			"finish_reason", current.FinishReason,
			"function_calls", len(calls),
			"input_tokens", reply.UsageMetadata.PromptTokenCount,
			"output_tokens", reply.UsageMetadata.CandidatesTokenCount,
		)

		if len(calls) == 0 {
			return &provider.Response{
				Text:  text.String(),
				Usage: total,
			}, nil
		}

		if req.Executor == nil {
			return nil, provider.ErrMissingExecutor
		}

		// Echo the full returned parts array, not just the text, or the
		// model loses its own function calls on the next round.
		body.Contents = append(body.Contents, content{
			Role:  "model",
			Parts: current.Content.Parts,
		})

		var results []part

		for _, call := range calls {
			input := call.Args

			if input == nil {
				input = map[string]any{}
			}

			req.Hooks.ToolUse(call.Name, input)

			result, err := req.Executor(ctx, call.Name, input)

			if err != nil {
				return nil, err
			}

			req.Hooks.ToolResult(call.Name, result)

			results = append(results, part{
				FunctionResponse: &functionResponse{
					Name: call.Name,
					Response: map[string]any{
						"result": result,
					},
				},
			})
		}

		body.Contents = append(body.Contents, content{
			Role:  "user",
			Parts: results,
		})
	}
}

// Summarize performs a single request without tools or streaming.
func (c *Client) Summarize(ctx context.Context, text, system string) (*provider.Response, error) {
	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: text}}},
		},
	}

	if system != "" {
		body.SystemInstruction = &content{
			Parts: []part{{Text: system}},
		}
	}

	reply, err := c.send(ctx, body)

	if err != nil {
		return nil, err
	}

	if len(reply.Candidates) == 0 {
		return nil, provider.ErrNoCandidates
	}

	var result strings.Builder

	for _, p := range reply.Candidates[0].Content.Parts {
		result.WriteString(p.Text)
	}

	return &provider.Response{
		Text: result.String(),
		Usage: provider.Usage{
			InputTokens:  reply.UsageMetadata.PromptTokenCount,
			OutputTokens: reply.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

func (c *Client) send(ctx context.Context, body generateRequest) (*generateResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(body)

	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	// The API key travels as a query parameter; there is no auth header.
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(c.url, "/"), c.model, url.QueryEscape(c.resolveToken()))

	resp, err := c.transport(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: map[string]string{
			"Content-Type": "application/json",
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

	var reply generateResponse

	if err := resp.Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &reply, nil
}

func convertHistory(history []provider.Message) []content {
	var contents []content

	for _, m := range history {
		switch m.Role {
		case provider.RoleUser:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: m.Text}}})

		case provider.RoleAssistant:
			contents = append(contents, content{Role: "model", Parts: []part{{Text: m.Text}}})
		}
	}

	return contents
}

func userContent(text string, attachments []provider.Attachment) content {
	var parts []part

	for _, a := range attachments {
		switch a.Kind {
		case provider.AttachmentText:
			parts = append(parts, part{Text: a.Label()})

		case provider.AttachmentImage, provider.AttachmentPDF:
			parts = append(parts, part{
				InlineData: &inlineData{
					MimeType: a.MimeType,
					Data:     a.Data,
				},
			})
		}
	}

	return content{
		Role:  "user",
		Parts: append(parts, part{Text: text}),
	}
}

func convertTools(tools []provider.Tool) []functionDeclaration {
	var declarations []functionDeclaration

	for _, t := range tools {
		declarations = append(declarations, functionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		})
	}

	return declarations
}
