// File: internal/services/ai/interface.go
package ai

import (
	"context"

	"github.com/iyunix/go-chatapp/internal/domain"
)

// ProviderStatus represents completion provider health.
type ProviderStatus struct {
	IsHealthy bool
	Message   string
}

// CompletionProvider produces one whole assistant reply per call. The
// underlying client may stream internally, but callers always receive the
// fully assembled text.
type CompletionProvider interface {
	// GetCompletion answers a single user message with no prior context.
	GetCompletion(ctx context.Context, userMessage string) (string, error)

	// GetCompletionWithHistory answers with the ordered prior conversation
	// included in the prompt.
	GetCompletionWithHistory(ctx context.Context, history []domain.ChatMessage, userMessage string) (string, error)

	HealthCheck(ctx context.Context) error
	GetStatus(ctx context.Context) ProviderStatus
}
