package generator

import "context"

// LLMClient abstracts the chat-completion model so it can be swapped or stubbed.
// Implementations perform a single non-streaming call with no retries.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the base configuration handed to concrete clients.
type LLMSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	MaxTokens  int
	ImageModel string
}
