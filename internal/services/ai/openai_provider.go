// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iyunix/go-chatapp/internal/domain"
)

type OpenAIProvider struct {
	config *Config
	client *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (p *OpenAIProvider) GetCompletion(ctx context.Context, userMessage string) (string, error) {
	return p.complete(ctx, p.buildMessages(nil, userMessage))
}

func (p *OpenAIProvider) GetCompletionWithHistory(ctx context.Context, history []domain.ChatMessage, userMessage string) (string, error) {
	return p.complete(ctx, p.buildMessages(history, userMessage))
}

// buildMessages maps the session transcript onto the chat-completion roles,
// always leading with the configured system prompt.
func (p *OpenAIProvider) buildMessages(history []domain.ChatMessage, userMessage string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: p.config.SystemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.IsUserMessage {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})
	return messages
}

// complete consumes the streaming API and assembles the deltas into one
// reply, so callers get the whole text in a single return.
func (p *OpenAIProvider) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    messages,
		Temperature: p.config.Temperature,
		TopP:        p.config.TopP,
	})
	if err != nil {
		return "", NewProviderError("completion", "failed to create completion stream", err)
	}
	defer stream.Close()

	var reply []byte
	for {
		response, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", NewProviderError("completion", "stream receive error", err)
		}
		if len(response.Choices) > 0 {
			reply = append(reply, response.Choices[0].Delta.Content...)
		}
	}

	if len(reply) == 0 {
		return "", &AIError{
			Type:      ErrTypeProvider,
			Operation: "completion",
			Message:   "empty completion response",
			Model:     p.config.Model,
		}
	}
	return string(reply), nil
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	return nil
}

func (p *OpenAIProvider) GetStatus(ctx context.Context) ProviderStatus {
	return ProviderStatus{IsHealthy: true, Message: "OpenAI provider healthy"}
}
