// File: internal/repository/session/gorm_session_repository.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/iyunix/go-chatapp/internal/domain"
)

// sessionRecord is the persisted document shape: the message sequence is
// embedded as a JSON array rather than a child table, so a session is always
// written and read as one unit.
type sessionRecord struct {
	ID          string         `gorm:"primaryKey"`
	UserID      string         `gorm:"index;not null"`
	SessionName string         `gorm:"not null"`
	Messages    datatypes.JSON `gorm:"not null"`
	LastUpdated time.Time      `gorm:"index"`
	Version     int            `gorm:"not null;default:0"`
	LastTurnKey string
}

func (sessionRecord) TableName() string {
	return "chat_sessions"
}

type gormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) SessionRepository {
	return &gormSessionRepository{db: db}
}

// Migrate creates the chat_sessions table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&sessionRecord{})
}

func (r *gormSessionRepository) Upsert(ctx context.Context, s *domain.ChatSession, expectedVersion int) error {
	record, err := toRecord(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}

	if expectedVersion == 0 {
		if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrVersionConflict
			}
			return fmt.Errorf("creating session %s: %w", s.ID, err)
		}
		return nil
	}

	// Conditional replace: only succeeds if nobody moved the version since
	// the caller loaded the document.
	res := r.db.WithContext(ctx).
		Model(&sessionRecord{}).
		Where("id = ? AND user_id = ? AND version = ?", s.ID, s.UserID, expectedVersion).
		Updates(map[string]interface{}{
			"session_name":  record.SessionName,
			"messages":      record.Messages,
			"last_updated":  record.LastUpdated,
			"version":       record.Version,
			"last_turn_key": record.LastTurnKey,
		})
	if res.Error != nil {
		return fmt.Errorf("updating session %s: %w", s.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *gormSessionRepository) FindByID(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	var record sessionRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("reading session %s: %w", sessionID, err)
	}
	return fromRecord(&record)
}

func (r *gormSessionRepository) FindByUserID(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	var records []sessionRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing sessions for user: %w", err)
	}

	sessions := make([]domain.ChatSession, 0, len(records))
	for i := range records {
		s, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (r *gormSessionRepository) Delete(ctx context.Context, userID, sessionID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Delete(&sessionRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func toRecord(s *domain.ChatSession) (*sessionRecord, error) {
	messages := s.Messages
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}
	return &sessionRecord{
		ID:          s.ID,
		UserID:      s.UserID,
		SessionName: s.SessionName,
		Messages:    datatypes.JSON(raw),
		LastUpdated: s.LastUpdated,
		Version:     s.Version,
		LastTurnKey: s.LastTurnKey,
	}, nil
}

func fromRecord(r *sessionRecord) (*domain.ChatSession, error) {
	var messages []domain.ChatMessage
	if len(r.Messages) > 0 {
		if err := json.Unmarshal(r.Messages, &messages); err != nil {
			return nil, fmt.Errorf("decoding messages for session %s: %w", r.ID, err)
		}
	}
	return &domain.ChatSession{
		ID:          r.ID,
		UserID:      r.UserID,
		SessionName: r.SessionName,
		Messages:    messages,
		LastUpdated: r.LastUpdated,
		Version:     r.Version,
		LastTurnKey: r.LastTurnKey,
	}, nil
}
