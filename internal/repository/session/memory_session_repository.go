// File: internal/repository/session/memory_session_repository.go
package session

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/iyunix/go-chatapp/internal/domain"
)

// memorySessionRepository keeps session documents in a go-cache instance with
// no expiry. Used by tests and local development; the mutex serializes the
// read-modify-write of conditional upserts.
type memorySessionRepository struct {
	store *cache.Cache
	mu    sync.Mutex
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{
		store: cache.New(cache.NoExpiration, 0),
	}
}

func key(userID, sessionID string) string {
	return userID + "/" + sessionID
}

func (r *memorySessionRepository) Upsert(_ context.Context, s *domain.ChatSession, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(s.UserID, s.ID)
	existing, found := r.store.Get(k)
	if expectedVersion == 0 {
		if found {
			return ErrVersionConflict
		}
	} else {
		if !found {
			return ErrSessionNotFound
		}
		if existing.(*domain.ChatSession).Version != expectedVersion {
			return ErrVersionConflict
		}
	}

	r.store.Set(k, copySession(s), cache.NoExpiration)
	return nil
}

func (r *memorySessionRepository) FindByID(_ context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	v, found := r.store.Get(key(userID, sessionID))
	if !found {
		return nil, ErrSessionNotFound
	}
	return copySession(v.(*domain.ChatSession)), nil
}

func (r *memorySessionRepository) FindByUserID(_ context.Context, userID string) ([]domain.ChatSession, error) {
	sessions := []domain.ChatSession{}
	for _, item := range r.store.Items() {
		s := item.Object.(*domain.ChatSession)
		if s.UserID == userID {
			sessions = append(sessions, *copySession(s))
		}
	}
	// Most recently updated first, matching the gorm implementation.
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && sessions[j].LastUpdated.After(sessions[j-1].LastUpdated); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
	return sessions, nil
}

func (r *memorySessionRepository) Delete(_ context.Context, userID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(userID, sessionID)
	if _, found := r.store.Get(k); !found {
		return ErrSessionNotFound
	}
	r.store.Delete(k)
	return nil
}

// copySession clones the document so callers never share message slices with
// the stored copy.
func copySession(s *domain.ChatSession) *domain.ChatSession {
	clone := *s
	clone.Messages = make([]domain.ChatMessage, len(s.Messages))
	copy(clone.Messages, s.Messages)
	return &clone
}
