package generator

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// Any OpenAI-compatible endpoint works through BaseURL.
type OpenAILLM struct {
	Model     string
	MaxTokens int
	client    openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings, extra ...option.RequestOption) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key or OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	// Retries belong to the caller.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAILLM{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		client:    openai.NewClient(opts...),
	}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(prompt.Temperature),
	}
	maxTokens := prompt.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Err: errors.New("openai: empty choices")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &GenerationError{Err: ErrEmptyCompletion}
	}
	return content, nil
}
