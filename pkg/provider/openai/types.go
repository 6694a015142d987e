package openai

// Wire types for the Chat Completions protocol, shared by the OpenAI and
// Groq hosts.

type chatRequest struct {
	Model string `json:"model"`

	Messages []chatMessage `json:"messages"`
	Tools    []toolParam   `json:"tools,omitempty"`

	// Exactly one of the two token-limit parameters is set, depending on
	// the target host.
	MaxCompletionTokens int `json:"max_completion_tokens,omitempty"`
	MaxTokens           int `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role string `json:"role"`

	// Content is a bare string for plain turns and []contentPart when
	// attachments are present.
	Content any `json:"content,omitempty"`

	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type contentPart struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type toolParam struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type functionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type toolCall struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Function functionCall `json:"function"`
}

type functionCall struct {
	Name string `json:"name"`

	// Arguments arrive as a JSON-encoded string and must be parsed before
	// dispatch.
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`

	Usage usage `json:"usage"`
}

type choice struct {
	Message      replyMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

type replyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	ToolCalls []toolCall `json:"tool_calls"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
