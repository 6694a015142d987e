package anthropic

// Wire types for the Messages API.

type messageRequest struct {
	Model string `json:"model"`

	MaxTokens int `json:"max_tokens"`

	System   []textBlock     `json:"system,omitempty"`
	Messages []chatMessage   `json:"messages"`
	Tools    []toolParam     `json:"tools,omitempty"`
	Thinking *thinkingConfig `json:"thinking,omitempty"`
}

type chatMessage struct {
	Role string `json:"role"`

	// Content is a bare string for plain user turns and a []contentBlock
	// otherwise. The distinction matters upstream and must be preserved.
	Content any `json:"content"`
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`

	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
}

func ephemeral() *cacheControl {
	return &cacheControl{Type: "ephemeral"}
}

type thinkingConfig struct {
	Type string `json:"type"`

	BudgetTokens int `json:"budget_tokens,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`

	Source *blockSource `json:"source,omitempty"`

	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type blockSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data"`
}

type toolParam struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`

	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type messageResponse struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Model string `json:"model"`

	Content []contentBlock `json:"content"`

	StopReason string `json:"stop_reason"`

	Usage usage `json:"usage"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}
