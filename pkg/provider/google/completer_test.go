package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/laenglea/llmbridge/pkg/provider"
	"github.com/laenglea/llmbridge/pkg/stream"
	"github.com/laenglea/llmbridge/pkg/transport"

	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	requests  []transport.Request
	responses []*transport.Response
}

func (s *stubTransport) Func() transport.Func {
	return func(ctx context.Context, req transport.Request) (*transport.Response, error) {
		s.requests = append(s.requests, req)

		if len(s.responses) == 0 {
			return nil, errors.New("no scripted response")
		}

		resp := s.responses[0]
		s.responses = s.responses[1:]

		return resp, nil
	}
}

func (s *stubTransport) respond(t *testing.T, status int, body any) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	s.responses = append(s.responses, &transport.Response{Status: status, Body: data})
}

func (s *stubTransport) decodeRequest(t *testing.T, index int) map[string]any {
	t.Helper()

	require.Greater(t, len(s.requests), index)

	var body map[string]any
	require.NoError(t, json.Unmarshal(s.requests[index].Body, &body))

	return body
}

func newTestClient(t *testing.T, stub *stubTransport, options ...Option) *Client {
	t.Helper()

	options = append([]Option{
		WithToken("test-key"),
		WithTransport(stub.Func()),
		WithSimulator(&stream.Simulator{BatchSize: 3, Delay: 0}),
	}, options...)

	client, err := New("gemini-2.0-flash", options...)
	require.NoError(t, err)

	return client
}

func textResponse(text string, prompt, candidates int) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     prompt,
			"candidatesTokenCount": candidates,
		},
	}
}

func functionCallResponse(name string, args map[string]any, prompt, candidates int) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role": "model",
					"parts": []map[string]any{
						{"functionCall": map[string]any{"name": name, "args": args}},
					},
				},
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     prompt,
			"candidatesTokenCount": candidates,
		},
	}
}

func TestComplete(t *testing.T) {
	t.Run("single round returns text and usage", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, textResponse("Hello world", 10, 5))

		client := newTestClient(t, stub)

		var streamed []string

		resp, err := client.Complete(context.Background(), &provider.ChatRequest{
			Message: "hi",
			Hooks: provider.Hooks{
				OnText: func(chunk string) {
					streamed = append(streamed, chunk)
				},
			},
		})

		require.NoError(t, err)
		require.Equal(t, "Hello world", resp.Text)
		require.Equal(t, "Hello world", strings.Join(streamed, ""))
		require.Equal(t, 10, resp.Usage.InputTokens)
		require.Equal(t, 5, resp.Usage.OutputTokens)
	})

	t.Run("api key travels as a query parameter", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, textResponse("ok", 1, 1))

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{Message: "hi"})
		require.NoError(t, err)

		url := stub.requests[0].URL
		require.Contains(t, url, "gemini-2.0-flash:generateContent")
		require.Contains(t, url, "key=test-key")
		require.NotContains(t, stub.requests[0].Header, "Authorization")
	})

	t.Run("function call round correlates by name and echoes parts", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, functionCallResponse("lookup", map[string]any{"q": "x"}, 10, 5))
		stub.respond(t, http.StatusOK, textResponse("Done.", 42, 7))

		client := newTestClient(t, stub)

		var events []string

		resp, err := client.Complete(context.Background(), &provider.ChatRequest{
			Message: "go",
			Tools:   []provider.Tool{{Name: "lookup", InputSchema: map[string]any{"type": "object"}}},
			Executor: func(ctx context.Context, name string, input map[string]any) (string, error) {
				events = append(events, "execute:"+name)
				require.Equal(t, "x", input["q"])
				return "found", nil
			},
			Hooks: provider.Hooks{
				OnToolUse: func(name string, input map[string]any) {
					events = append(events, "use:"+name)
				},
				OnToolResult: func(name, result string) {
					events = append(events, "result:"+name+":"+result)
				},
			},
		})

		require.NoError(t, err)
		require.Equal(t, "Done.", resp.Text)
		require.Equal(t, []string{"use:lookup", "execute:lookup", "result:lookup:found"}, events)
		require.Equal(t, 42, resp.Usage.InputTokens)
		require.Equal(t, 12, resp.Usage.OutputTokens)

		body := stub.decodeRequest(t, 1)
		contents := body["contents"].([]any)
		require.Len(t, contents, 3)

		// The model turn echoes the full parts array, functionCall included.
		model := contents[1].(map[string]any)
		require.Equal(t, "model", model["role"])

		call := model["parts"].([]any)[0].(map[string]any)["functionCall"].(map[string]any)
		require.Equal(t, "lookup", call["name"])

		// The result is a functionResponse part keyed by name.
		user := contents[2].(map[string]any)
		require.Equal(t, "user", user["role"])

		response := user["parts"].([]any)[0].(map[string]any)["functionResponse"].(map[string]any)
		require.Equal(t, "lookup", response["name"])
		require.Equal(t, "found", response["response"].(map[string]any)["result"])
	})

	t.Run("missing candidates is a distinct failure", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, map[string]any{
			"candidates":    []map[string]any{},
			"usageMetadata": map[string]any{},
		})

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{Message: "hi"})
		require.ErrorIs(t, err, provider.ErrNoCandidates)

		var statusErr *provider.StatusError
		require.False(t, errors.As(err, &statusErr))
	})

	t.Run("non-success status aborts with StatusError", func(t *testing.T) {
		stub := &stubTransport{}
		stub.responses = append(stub.responses, &transport.Response{
			Status: http.StatusForbidden,
			Body:   []byte("denied"),
		})

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{Message: "hi"})

		var statusErr *provider.StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusForbidden, statusErr.Status)
	})
}

func TestRequestShape(t *testing.T) {
	t.Run("system prompt is a top-level field and roles map to model", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, textResponse("ok", 1, 1))

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{
			System:  "be brief",
			History: []provider.Message{provider.UserMessage("earlier"), provider.AssistantMessage("reply")},
			Message: "now",
		})
		require.NoError(t, err)

		body := stub.decodeRequest(t, 0)

		system := body["systemInstruction"].(map[string]any)
		require.Equal(t, "be brief", system["parts"].([]any)[0].(map[string]any)["text"])

		contents := body["contents"].([]any)
		require.Len(t, contents, 3)
		require.Equal(t, "user", contents[0].(map[string]any)["role"])
		require.Equal(t, "model", contents[1].(map[string]any)["role"])
		require.Equal(t, "user", contents[2].(map[string]any)["role"])
	})

	t.Run("tools wrap as function declarations", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, textResponse("ok", 1, 1))

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{
			Message: "hi",
			Tools: []provider.Tool{
				{Name: "lookup", Description: "finds things", InputSchema: map[string]any{"type": "object"}},
			},
			Executor: func(ctx context.Context, name string, input map[string]any) (string, error) {
				return "", nil
			},
		})
		require.NoError(t, err)

		body := stub.decodeRequest(t, 0)
		tools := body["tools"].([]any)
		require.Len(t, tools, 1)

		declarations := tools[0].(map[string]any)["functionDeclarations"].([]any)
		require.Len(t, declarations, 1)
		require.Equal(t, "lookup", declarations[0].(map[string]any)["name"])
	})

	t.Run("attachments become inline-data parts before the user text", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, textResponse("ok", 1, 1))

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{
			Message: "see attached",
			Attachments: []provider.Attachment{
				{Kind: provider.AttachmentText, Name: "notes.txt", Data: "hello"},
				{Kind: provider.AttachmentImage, Name: "pic.png", MimeType: "image/png", Data: "aW1n"},
				{Kind: provider.AttachmentPDF, Name: "doc.pdf", MimeType: "application/pdf", Data: "cGRm"},
			},
		})
		require.NoError(t, err)

		body := stub.decodeRequest(t, 0)
		parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
		require.Len(t, parts, 4)

		text := parts[0].(map[string]any)
		require.Contains(t, text["text"], "notes.txt")
		require.Contains(t, text["text"], "hello")

		image := parts[1].(map[string]any)["inlineData"].(map[string]any)
		require.Equal(t, "image/png", image["mimeType"])
		require.Equal(t, "aW1n", image["data"])

		// PDFs ride the same inline-data encoding.
		document := parts[2].(map[string]any)["inlineData"].(map[string]any)
		require.Equal(t, "application/pdf", document["mimeType"])

		require.Equal(t, "see attached", parts[3].(map[string]any)["text"])
	})

	t.Run("no attachments means a single text part", func(t *testing.T) {
		stub := &stubTransport{}
		stub.respond(t, http.StatusOK, textResponse("ok", 1, 1))

		client := newTestClient(t, stub)

		_, err := client.Complete(context.Background(), &provider.ChatRequest{Message: "plain"})
		require.NoError(t, err)

		body := stub.decodeRequest(t, 0)
		parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
		require.Len(t, parts, 1)
		require.Equal(t, "plain", parts[0].(map[string]any)["text"])
	})
}

func TestSummarize(t *testing.T) {
	stub := &stubTransport{}
	stub.respond(t, http.StatusOK, textResponse("a summary", 100, 20))

	client := newTestClient(t, stub)

	resp, err := client.Summarize(context.Background(), "long text", "condense this")
	require.NoError(t, err)
	require.Equal(t, "a summary", resp.Text)
	require.Equal(t, 100, resp.Usage.InputTokens)
	require.Equal(t, 20, resp.Usage.OutputTokens)

	require.Len(t, stub.requests, 1)

	body := stub.decodeRequest(t, 0)
	require.NotContains(t, body, "tools")
	require.Equal(t, "condense this", body["systemInstruction"].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"])
}
