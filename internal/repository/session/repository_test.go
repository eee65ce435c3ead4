// File: internal/repository/session/repository_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iyunix/go-chatapp/internal/domain"
)

func newGormRepo(t *testing.T) SessionRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return NewGormSessionRepository(db)
}

func testSession(id, userID string) *domain.ChatSession {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.ChatSession{
		ID:          id,
		UserID:      userID,
		SessionName: "Hello there…",
		Messages: []domain.ChatMessage{
			{MessageID: "m1", Text: "Hello there friend", IsUserMessage: true, Timestamp: now},
			{MessageID: "m2", Text: "Hi! How can I help?", IsUserMessage: false, Timestamp: now},
		},
		LastUpdated: now,
		Version:     1,
	}
}

func TestSessionRepositories(t *testing.T) {
	impls := []struct {
		name string
		make func(t *testing.T) SessionRepository
	}{
		{"gorm", newGormRepo},
		{"memory", func(t *testing.T) SessionRepository { return NewMemorySessionRepository() }},
	}

	for _, impl := range impls {
		t.Run(impl.name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()
				s := testSession("s1", "u1")

				require.NoError(t, repo.Upsert(ctx, s, 0))

				got, err := repo.FindByID(ctx, "u1", "s1")
				require.NoError(t, err)
				assert.Equal(t, s.ID, got.ID)
				assert.Equal(t, s.SessionName, got.SessionName)
				require.Len(t, got.Messages, 2)
				assert.Equal(t, "Hello there friend", got.Messages[0].Text)
				assert.True(t, got.Messages[0].IsUserMessage)
				assert.False(t, got.Messages[1].IsUserMessage)
				assert.Equal(t, 1, got.Version)
			})

			t.Run("not found", func(t *testing.T) {
				repo := impl.make(t)
				_, err := repo.FindByID(context.Background(), "u1", "missing")
				assert.ErrorIs(t, err, ErrSessionNotFound)
			})

			t.Run("owner isolation", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()
				require.NoError(t, repo.Upsert(ctx, testSession("s1", "u1"), 0))

				_, err := repo.FindByID(ctx, "u2", "s1")
				assert.ErrorIs(t, err, ErrSessionNotFound)

				sessions, err := repo.FindByUserID(ctx, "u2")
				require.NoError(t, err)
				assert.Empty(t, sessions)
			})

			t.Run("conditional update succeeds on matching version", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()
				s := testSession("s1", "u1")
				require.NoError(t, repo.Upsert(ctx, s, 0))

				s.Version = 2
				s.Messages = append(s.Messages,
					domain.ChatMessage{MessageID: "m3", Text: "More detail please", IsUserMessage: true},
					domain.ChatMessage{MessageID: "m4", Text: "Sure.", IsUserMessage: false},
				)
				require.NoError(t, repo.Upsert(ctx, s, 1))

				got, err := repo.FindByID(ctx, "u1", "s1")
				require.NoError(t, err)
				assert.Len(t, got.Messages, 4)
				assert.Equal(t, 2, got.Version)
			})

			t.Run("conditional update fails on stale version", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()
				s := testSession("s1", "u1")
				require.NoError(t, repo.Upsert(ctx, s, 0))

				s.Version = 2
				require.NoError(t, repo.Upsert(ctx, s, 1))

				stale := testSession("s1", "u1")
				stale.Version = 2
				assert.ErrorIs(t, repo.Upsert(ctx, stale, 1), ErrVersionConflict)
			})

			t.Run("list is ordered by last update", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()

				older := testSession("s1", "u1")
				older.LastUpdated = time.Now().UTC().Add(-time.Hour)
				newer := testSession("s2", "u1")
				require.NoError(t, repo.Upsert(ctx, older, 0))
				require.NoError(t, repo.Upsert(ctx, newer, 0))

				sessions, err := repo.FindByUserID(ctx, "u1")
				require.NoError(t, err)
				require.Len(t, sessions, 2)
				assert.Equal(t, "s2", sessions[0].ID)
				assert.Equal(t, "s1", sessions[1].ID)
			})

			t.Run("delete is terminal", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()
				require.NoError(t, repo.Upsert(ctx, testSession("s1", "u1"), 0))

				require.NoError(t, repo.Delete(ctx, "u1", "s1"))
				_, err := repo.FindByID(ctx, "u1", "s1")
				assert.ErrorIs(t, err, ErrSessionNotFound)
				assert.ErrorIs(t, repo.Delete(ctx, "u1", "s1"), ErrSessionNotFound)
			})

			t.Run("delete requires the owner", func(t *testing.T) {
				repo := impl.make(t)
				ctx := context.Background()
				require.NoError(t, repo.Upsert(ctx, testSession("s1", "u1"), 0))

				assert.ErrorIs(t, repo.Delete(ctx, "u2", "s1"), ErrSessionNotFound)
				_, err := repo.FindByID(ctx, "u1", "s1")
				assert.NoError(t, err)
			})
		})
	}
}
