// File: internal/services/ai/openai_provider_test.go
package ai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-chatapp/internal/domain"
)

func TestBuildMessages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	p := NewOpenAIProvider(cfg)

	history := []domain.ChatMessage{
		{Text: "Hello", IsUserMessage: true},
		{Text: "Hi, how can I help?", IsUserMessage: false},
	}

	messages := p.buildMessages(history, "More detail please")
	require.Len(t, messages, 4)

	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, cfg.SystemPrompt, messages[0].Content)

	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, "Hello", messages[1].Content)

	assert.Equal(t, openai.ChatMessageRoleAssistant, messages[2].Role)

	assert.Equal(t, openai.ChatMessageRoleUser, messages[3].Role)
	assert.Equal(t, "More detail please", messages[3].Content)
}

func TestBuildMessagesWithoutHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	p := NewOpenAIProvider(cfg)

	messages := p.buildMessages(nil, "Hello")
	require.Len(t, messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.APIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg.Model = ""
	assert.Error(t, cfg.Validate())
}
