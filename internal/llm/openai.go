// Package llm wraps the model invocation used by the conversation core.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the text-completion capability consumed by the core. Complete
// sends the system prompt, an optional context block and the new user
// utterance, and returns the raw assistant reply. Transport and provider
// failures are returned as *ProviderError.
type Client interface {
	Complete(ctx context.Context, systemPrompt, contextText, userText string) (string, error)
}

// ProviderError marks a failure of the model provider itself (network,
// quota, bad response). The core recovers from it with a fallback reply
// instead of failing the turn.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("model provider: %v", e.Err) }

func (e *ProviderError) Unwrap() error { return e.Err }

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI-backed client for the given API key
// and model name.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete implements Client. The context block, when present, precedes
// the user utterance in a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, contextText, userText string) (string, error) {
	content := userText
	if contextText != "" {
		content = contextText + "\n\nUser: " + userText
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: 0.2,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Err: fmt.Errorf("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}
