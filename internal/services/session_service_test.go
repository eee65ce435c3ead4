// File: internal/services/session_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-chatapp/internal/domain"
	sessionrepo "github.com/iyunix/go-chatapp/internal/repository/session"
	"github.com/iyunix/go-chatapp/internal/services/ai"
	"github.com/iyunix/go-chatapp/internal/services/session"
)

// fakeProvider returns canned replies and records how it was called.
type fakeProvider struct {
	calls       int
	historyLens []int
	err         error
}

func (f *fakeProvider) GetCompletion(ctx context.Context, userMessage string) (string, error) {
	f.calls++
	f.historyLens = append(f.historyLens, 0)
	if f.err != nil {
		return "", f.err
	}
	return "reply to: " + userMessage, nil
}

func (f *fakeProvider) GetCompletionWithHistory(ctx context.Context, history []domain.ChatMessage, userMessage string) (string, error) {
	f.calls++
	f.historyLens = append(f.historyLens, len(history))
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("reply %d to: %s", len(history), userMessage), nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeProvider) GetStatus(ctx context.Context) ai.ProviderStatus {
	return ai.ProviderStatus{IsHealthy: true}
}

// failingRepo fails every operation with a fixed error.
type failingRepo struct {
	err error
}

func (r *failingRepo) Upsert(ctx context.Context, s *domain.ChatSession, expectedVersion int) error {
	return r.err
}
func (r *failingRepo) FindByID(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	return nil, r.err
}
func (r *failingRepo) FindByUserID(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	return nil, r.err
}
func (r *failingRepo) Delete(ctx context.Context, userID, sessionID string) error {
	return r.err
}

func newService(t *testing.T) (*SessionService, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{}
	svc, err := NewSessionService(sessionrepo.NewMemorySessionRepository(), provider, &NoOpLogger{})
	require.NoError(t, err)
	return svc, provider
}

func TestSubmitTurnCreatesSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	result, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "I need help with my account"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.Reply)

	sess, err := svc.GetSession(ctx, "u1", result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "I need…", sess.SessionName)
	require.Len(t, sess.Messages, 2)
	assert.True(t, sess.Messages[0].IsUserMessage)
	assert.Equal(t, "I need help with my account", sess.Messages[0].Text)
	assert.False(t, sess.Messages[1].IsUserMessage)
	assert.Equal(t, result.Reply, sess.Messages[1].Text)
	assert.NotEqual(t, sess.Messages[0].MessageID, sess.Messages[1].MessageID)
}

func TestSubmitTurnAppendsToExistingSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hello"})
	require.NoError(t, err)

	before, err := svc.GetSession(ctx, "u1", first.SessionID)
	require.NoError(t, err)

	second, err := svc.SubmitTurn(ctx, TurnInput{
		Owner:       "u1",
		SessionID:   first.SessionID,
		UserMessage: "More detail please",
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	after, err := svc.GetSession(ctx, "u1", first.SessionID)
	require.NoError(t, err)
	require.Len(t, after.Messages, 4)

	// The prior sequence is untouched.
	for i, m := range before.Messages {
		assert.Equal(t, m.MessageID, after.Messages[i].MessageID)
		assert.Equal(t, m.Text, after.Messages[i].Text)
	}
	assert.Equal(t, "More detail please", after.Messages[2].Text)
	assert.True(t, after.Messages[2].IsUserMessage)
	assert.False(t, after.Messages[3].IsUserMessage)

	// The name came from the first turn and stays.
	assert.Equal(t, "Hello", after.SessionName)
	assert.False(t, after.LastUpdated.Before(before.LastUpdated))
}

func TestSubmitTurnUsesHistoryOnlyWhenRequestedAndPresent(t *testing.T) {
	svc, provider := newService(t)
	ctx := context.Background()

	// New session: nothing to include even when asked.
	first, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hello", UseHistory: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, provider.historyLens)

	// Second turn with history gets the prior pair.
	_, err = svc.SubmitTurn(ctx, TurnInput{
		Owner:       "u1",
		SessionID:   first.SessionID,
		UserMessage: "And now?",
		UseHistory:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, provider.historyLens)

	sess, err := svc.GetSession(ctx, "u1", first.SessionID)
	require.NoError(t, err)
	assert.False(t, sess.Messages[1].UsedHistory)
	assert.True(t, sess.Messages[3].UsedHistory)

	// Third turn without the flag is single-shot again.
	_, err = svc.SubmitTurn(ctx, TurnInput{
		Owner:       "u1",
		SessionID:   first.SessionID,
		UserMessage: "One more",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 0}, provider.historyLens)
}

func TestSubmitTurnValidation(t *testing.T) {
	svc, provider := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitTurn(ctx, TurnInput{UserMessage: "Hello"})
	assert.True(t, session.IsValidation(err))

	_, err = svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "   "})
	assert.True(t, session.IsValidation(err))

	assert.Zero(t, provider.calls)
}

func TestSubmitTurnUnknownSession(t *testing.T) {
	svc, provider := newService(t)

	_, err := svc.SubmitTurn(context.Background(), TurnInput{
		Owner:       "u1",
		SessionID:   "missing",
		UserMessage: "Hello",
	})
	assert.True(t, session.IsNotFound(err))
	assert.Zero(t, provider.calls)
}

func TestSubmitTurnProviderFailureLeavesNoState(t *testing.T) {
	repo := sessionrepo.NewMemorySessionRepository()
	provider := &fakeProvider{err: errors.New("model unavailable")}
	svc, err := NewSessionService(repo, provider, &NoOpLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hello"})
	assert.True(t, session.IsProvider(err))

	sessions, err := svc.GetUserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSubmitTurnStorageFailureIsTyped(t *testing.T) {
	svc, err := NewSessionService(&failingRepo{err: errors.New("disk full")}, &fakeProvider{}, &NoOpLogger{})
	require.NoError(t, err)

	_, err = svc.SubmitTurn(context.Background(), TurnInput{Owner: "u1", UserMessage: "Hello"})
	assert.True(t, session.IsStorage(err))
}

func TestSubmitTurnVersionConflictIsTyped(t *testing.T) {
	svc, err := NewSessionService(&failingRepo{err: sessionrepo.ErrVersionConflict}, &fakeProvider{}, &NoOpLogger{})
	require.NoError(t, err)

	_, err = svc.SubmitTurn(context.Background(), TurnInput{Owner: "u1", UserMessage: "Hello"})
	assert.True(t, session.IsConflict(err))
}

func TestSubmitTurnIdempotentReplay(t *testing.T) {
	svc, provider := newService(t)
	ctx := context.Background()

	first, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hello", TurnKey: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	// Same key again: stored reply, no second completion, no new messages.
	replay, err := svc.SubmitTurn(ctx, TurnInput{
		Owner:       "u1",
		SessionID:   first.SessionID,
		UserMessage: "Hello",
		TurnKey:     "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, first.Reply, replay.Reply)
	assert.Equal(t, 1, provider.calls)

	sess, err := svc.GetSession(ctx, "u1", first.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2)

	// A fresh key is a real turn.
	_, err = svc.SubmitTurn(ctx, TurnInput{
		Owner:       "u1",
		SessionID:   first.SessionID,
		UserMessage: "Next question",
		TurnKey:     "t2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestGetSessionCrossOwnerReadsAsNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	result, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hello"})
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, "u2", result.SessionID)
	assert.True(t, session.IsNotFound(err))
}

func TestDeleteSessionIsTerminal(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	result, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hello"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, "u1", result.SessionID))

	_, err = svc.GetSession(ctx, "u1", result.SessionID)
	assert.True(t, session.IsNotFound(err))

	sessions, err := svc.GetUserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	err = svc.DeleteSession(ctx, "u1", result.SessionID)
	assert.True(t, session.IsNotFound(err))
}

func TestGetUserSessionsReturnsSummaries(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "I need help with my account"})
	require.NoError(t, err)
	_, err = svc.SubmitTurn(ctx, TurnInput{Owner: "u1", SessionID: a.SessionID, UserMessage: "still there?"})
	require.NoError(t, err)
	_, err = svc.SubmitTurn(ctx, TurnInput{Owner: "u1", UserMessage: "Hi"})
	require.NoError(t, err)
	_, err = svc.SubmitTurn(ctx, TurnInput{Owner: "u2", UserMessage: "other owner"})
	require.NoError(t, err)

	summaries, err := svc.GetUserSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byName := map[string]int{}
	for _, s := range summaries {
		byName[s.SessionName] = s.MessageCount
	}
	assert.Equal(t, 4, byName["I need…"])
	assert.Equal(t, 2, byName["Hi"])
}
