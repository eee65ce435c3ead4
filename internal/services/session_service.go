// File: internal/services/session_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-chatapp/internal/domain"
	sessionrepo "github.com/iyunix/go-chatapp/internal/repository/session"
	"github.com/iyunix/go-chatapp/internal/services/ai"
	"github.com/iyunix/go-chatapp/internal/services/session"
)

// TurnInput carries one chat-turn submission.
type TurnInput struct {
	Owner       string
	SessionID   string // empty means "create a new session"
	UserMessage string
	UseHistory  bool
	TurnKey     string // optional client idempotency key
}

// TurnResult is what a completed turn returns to the API layer.
type TurnResult struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"response"`
}

// SessionService is the Session Manager: it owns session creation, message
// identity and ordering, naming, and the persistence contract. The repository
// is a passive document store and the provider is an opaque text generator.
type SessionService struct {
	repo     sessionrepo.SessionRepository
	provider ai.CompletionProvider
	logger   Logger
}

func NewSessionService(repo sessionrepo.SessionRepository, provider ai.CompletionProvider, logger Logger) (*SessionService, error) {
	if repo == nil {
		return nil, session.NewValidationError("constructor", "session repository is required")
	}
	if provider == nil {
		return nil, session.NewValidationError("constructor", "completion provider is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &SessionService{repo: repo, provider: provider, logger: logger}, nil
}

// SubmitTurn runs one chat turn: load or create the session, generate the
// reply, append the user/assistant pair, and persist the whole document.
// The provider call and the store write are strictly sequential; a provider
// failure aborts the turn before anything is appended or written.
func (s *SessionService) SubmitTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	if strings.TrimSpace(input.Owner) == "" {
		return nil, session.NewValidationError("submit_turn", "owner is required")
	}
	if strings.TrimSpace(input.UserMessage) == "" {
		return nil, session.NewValidationError("submit_turn", "user message is required")
	}

	var (
		sess  *domain.ChatSession
		isNew = input.SessionID == ""
	)
	if isNew {
		sess = &domain.ChatSession{
			ID:     uuid.NewString(),
			UserID: input.Owner,
		}
	} else {
		loaded, err := s.repo.FindByID(ctx, input.Owner, input.SessionID)
		if err != nil {
			if errors.Is(err, sessionrepo.ErrSessionNotFound) {
				return nil, session.NewNotFoundError(input.Owner, input.SessionID)
			}
			return nil, session.NewStorageError("submit_turn", "could not load session", err)
		}
		sess = loaded
	}

	// A retried submission with the key of the already-applied turn gets the
	// stored reply back instead of a regenerated (and duplicated) pair.
	if input.TurnKey != "" && sess.LastTurnKey == input.TurnKey {
		if reply, ok := sess.LastReply(); ok {
			s.logger.Info("turn replayed from idempotency key",
				"session_id", sess.ID, "turn_key", input.TurnKey)
			return &TurnResult{SessionID: sess.ID, Reply: reply}, nil
		}
	}

	useHistory := input.UseHistory && len(sess.Messages) > 0
	var reply string
	var err error
	if useHistory {
		reply, err = s.provider.GetCompletionWithHistory(ctx, sess.Messages, input.UserMessage)
	} else {
		reply, err = s.provider.GetCompletion(ctx, input.UserMessage)
	}
	if err != nil {
		return nil, session.NewProviderError("submit_turn", "completion failed", err)
	}

	now := time.Now().UTC()
	sess.AppendTurn(
		domain.ChatMessage{
			MessageID:     uuid.NewString(),
			Text:          input.UserMessage,
			IsUserMessage: true,
			Timestamp:     now,
			UsedHistory:   useHistory,
		},
		domain.ChatMessage{
			MessageID:     uuid.NewString(),
			Text:          reply,
			IsUserMessage: false,
			Timestamp:     now,
			UsedHistory:   useHistory,
		},
	)

	if isNew {
		sess.SessionName = domain.DeriveSessionName(input.UserMessage)
	}
	sess.LastUpdated = now
	sess.LastTurnKey = input.TurnKey

	expected := sess.Version
	sess.Version++
	if err := s.repo.Upsert(ctx, sess, expected); err != nil {
		if errors.Is(err, sessionrepo.ErrVersionConflict) {
			return nil, session.NewConflictError(input.Owner, sess.ID, err)
		}
		return nil, session.NewStorageError("submit_turn", "could not persist session", err)
	}

	s.logger.Info("turn completed",
		"session_id", sess.ID, "messages", len(sess.Messages), "used_history", useHistory)
	return &TurnResult{SessionID: sess.ID, Reply: reply}, nil
}

// GetUserSessions returns summaries of every session the owner has, most
// recently updated first.
func (s *SessionService) GetUserSessions(ctx context.Context, owner string) ([]domain.SessionSummary, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, session.NewValidationError("get_sessions", "owner is required")
	}

	sessions, err := s.repo.FindByUserID(ctx, owner)
	if err != nil {
		return nil, session.NewStorageError("get_sessions", "could not list sessions", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for i := range sessions {
		summaries = append(summaries, sessions[i].Summary())
	}
	return summaries, nil
}

// GetSession returns the full session, messages included. A session owned by
// someone else reads as not found, never as someone else's data.
func (s *SessionService) GetSession(ctx context.Context, owner, sessionID string) (*domain.ChatSession, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, session.NewValidationError("get_session", "owner is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, session.NewValidationError("get_session", "session id is required")
	}

	sess, err := s.repo.FindByID(ctx, owner, sessionID)
	if err != nil {
		if errors.Is(err, sessionrepo.ErrSessionNotFound) {
			return nil, session.NewNotFoundError(owner, sessionID)
		}
		return nil, session.NewStorageError("get_session", "could not load session", err)
	}
	return sess, nil
}

// DeleteSession removes the session irreversibly.
func (s *SessionService) DeleteSession(ctx context.Context, owner, sessionID string) error {
	if strings.TrimSpace(owner) == "" {
		return session.NewValidationError("delete_session", "owner is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return session.NewValidationError("delete_session", "session id is required")
	}

	if err := s.repo.Delete(ctx, owner, sessionID); err != nil {
		if errors.Is(err, sessionrepo.ErrSessionNotFound) {
			return session.NewNotFoundError(owner, sessionID)
		}
		return session.NewStorageError("delete_session", "could not delete session", err)
	}

	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}
