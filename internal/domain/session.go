// File: internal/domain/session.go
package domain

import (
	"strings"
	"time"
)

// DefaultSessionName is used when no name can be derived from the first message.
const DefaultSessionName = "Default Session"

// ChatMessage is a single message inside a session. Messages are created only
// as part of a chat turn and are never edited or deleted individually.
type ChatMessage struct {
	MessageID     string    `json:"messageId"`
	Text          string    `json:"text"`
	IsUserMessage bool      `json:"isUserMessage"`
	Timestamp     time.Time `json:"timestamp"`
	UsedHistory   bool      `json:"usedHistory,omitempty"`
}

// ChatSession is one named, append-only conversation belonging to one owner.
// The message slice only ever grows, in user/assistant pairs, until the
// session is deleted as a whole.
type ChatSession struct {
	ID          string        `json:"sessionId"`
	UserID      string        `json:"userId"`
	SessionName string        `json:"sessionName"`
	Messages    []ChatMessage `json:"messages"`
	LastUpdated time.Time     `json:"lastUpdated"`

	// Version is the optimistic concurrency token. It starts at 0 for a
	// session that has never been persisted and increments on every write.
	Version int `json:"version"`

	// LastTurnKey is the idempotency key of the most recent turn, so a
	// retried submission does not produce a duplicate message pair.
	LastTurnKey string `json:"lastTurnKey,omitempty"`
}

// SessionSummary is the list-view projection of a session, without message bodies.
type SessionSummary struct {
	SessionID    string    `json:"sessionId"`
	SessionName  string    `json:"sessionName"`
	LastUpdated  time.Time `json:"lastUpdated"`
	MessageCount int       `json:"messageCount"`
}

// Summary projects a session into its list-view form.
func (s *ChatSession) Summary() SessionSummary {
	return SessionSummary{
		SessionID:    s.ID,
		SessionName:  s.SessionName,
		LastUpdated:  s.LastUpdated,
		MessageCount: len(s.Messages),
	}
}

// AppendTurn appends one user/assistant message pair. A session never ends
// mid-pair, so this is the only way messages are added.
func (s *ChatSession) AppendTurn(userMsg, assistantMsg ChatMessage) {
	s.Messages = append(s.Messages, userMsg, assistantMsg)
}

// LastReply returns the text of the most recent assistant message.
func (s *ChatSession) LastReply() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if !s.Messages[i].IsUserMessage {
			return s.Messages[i].Text, true
		}
	}
	return "", false
}

// DeriveSessionName builds a display name from the first user message: the
// first two words, with a trailing ellipsis when the message had more.
func DeriveSessionName(firstUserMessage string) string {
	words := strings.Fields(firstUserMessage)
	if len(words) == 0 {
		return DefaultSessionName
	}
	if len(words) <= 2 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:2], " ") + "…"
}
