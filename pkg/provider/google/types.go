package google

// Wire types for the generateContent API.

type generateRequest struct {
	SystemInstruction *content `json:"systemInstruction,omitempty"`

	Contents []content `json:"contents"`

	Tools []toolParam `json:"tools,omitempty"`
}

type content struct {
	Role string `json:"role,omitempty"`

	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`

	InlineData *inlineData `json:"inlineData,omitempty"`

	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type toolParam struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`

	UsageMetadata usageMetadata `json:"usageMetadata"`
}

type candidate struct {
	Content content `json:"content"`

	FinishReason string `json:"finishReason"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}
