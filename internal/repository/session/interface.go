// File: internal/repository/session/interface.go
package session

import (
	"context"
	"errors"

	"github.com/iyunix/go-chatapp/internal/domain"
)

var (
	// ErrSessionNotFound is returned when no session exists for the
	// (owner, session id) pair.
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict is returned when a conditional upsert observes a
	// stored version different from the expected one.
	ErrVersionConflict = errors.New("session version conflict")
)

// SessionRepository is the document-store contract the Session Manager
// persists through: upsert, point read, delete, and query by owner. Every
// record is keyed by (UserID, ID), with UserID acting as the partition.
type SessionRepository interface {
	// Upsert writes the full session document. expectedVersion is the
	// version the caller loaded (0 for a brand new session); the write is
	// conditional on it and fails with ErrVersionConflict on mismatch. On
	// success the stored document carries session.Version.
	Upsert(ctx context.Context, session *domain.ChatSession, expectedVersion int) error

	// FindByID reads one session. Returns ErrSessionNotFound when absent,
	// including when the session exists under a different owner.
	FindByID(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)

	// FindByUserID returns every session owned by userID, most recently
	// updated first.
	FindByUserID(ctx context.Context, userID string) ([]domain.ChatSession, error)

	// Delete removes the session irreversibly. Returns ErrSessionNotFound
	// when there was nothing to delete.
	Delete(ctx context.Context, userID, sessionID string) error
}
