package provider

import (
	"context"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role

	Text string
}

func SystemMessage(text string) Message {
	return Message{
		Role: RoleSystem,
		Text: text,
	}
}

func UserMessage(text string) Message {
	return Message{
		Role: RoleUser,
		Text: text,
	}
}

func AssistantMessage(text string) Message {
	return Message{
		Role: RoleAssistant,
		Text: text,
	}
}

type AttachmentKind string

const (
	AttachmentText  AttachmentKind = "text"
	AttachmentImage AttachmentKind = "image"
	AttachmentPDF   AttachmentKind = "pdf"
)

// Attachment is a provider-agnostic file attached to a user turn. Data holds
// the raw text for text attachments and the base64-encoded payload for image
// and pdf attachments.
type Attachment struct {
	Kind AttachmentKind

	Name     string
	MimeType string

	Data string
}

// Label renders a text attachment as a labeled block carrying both the file
// name and its payload.
func (a Attachment) Label() string {
	return "File: " + a.Name + "\n\n" + a.Data
}

type Tool struct {
	Name        string
	Description string

	InputSchema map[string]any
}

// Usage tracks token accounting across the round trips of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int

	CacheCreationInputTokens int
	CacheReadInputTokens     int
}

// Add merges one round's reported usage. Providers report context size, not a
// delta: input and cache counts are replaced by the latest round, output
// accumulates.
func (u *Usage) Add(round Usage) {
	u.InputTokens = round.InputTokens
	u.OutputTokens += round.OutputTokens

	u.CacheCreationInputTokens = round.CacheCreationInputTokens
	u.CacheReadInputTokens = round.CacheReadInputTokens
}

// Response is the final result of one conversational or summarize call.
type Response struct {
	Text string

	Usage Usage
}

// ToolExecutor runs a tool requested by the model and returns its result as a
// plain string. Errors abort the whole call.
type ToolExecutor func(ctx context.Context, name string, input map[string]any) (string, error)

// Hooks carries the caller's streaming callbacks. Any of them may be nil.
type Hooks struct {
	OnText       func(text string)
	OnThinking   func(text string)
	OnToolUse    func(name string, input map[string]any)
	OnToolResult func(name, result string)
}

func (h Hooks) Thinking(text string) {
	if h.OnThinking != nil {
		h.OnThinking(text)
	}
}

func (h Hooks) ToolUse(name string, input map[string]any) {
	if h.OnToolUse != nil {
		h.OnToolUse(name, input)
	}
}

func (h Hooks) ToolResult(name, result string) {
	if h.OnToolResult != nil {
		h.OnToolResult(name, result)
	}
}

// Mode selects the conversational mode. Reasoning mode enables extended
// thinking on providers that support it.
type Mode string

const (
	ModeDefault Mode = "chat"
	ModeReason  Mode = "reason"
)

// Completer sends one conversational turn, running the tool-continuation
// loop until the provider signals completion.
type Completer interface {
	Complete(ctx context.Context, req *ChatRequest) (*Response, error)
}

// Summarizer performs a single-shot, non-conversational request.
type Summarizer interface {
	Summarize(ctx context.Context, text, system string) (*Response, error)
}

// ChatRequest is the common input of one conversational call. History is
// never mutated; providers build their own working copy.
type ChatRequest struct {
	System  string
	History []Message

	Message     string
	Attachments []Attachment

	Tools    []Tool
	Executor ToolExecutor

	Mode Mode

	Hooks Hooks
}
