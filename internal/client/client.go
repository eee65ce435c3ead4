// File: internal/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/iyunix/go-chatapp/internal/domain"
	"github.com/iyunix/go-chatapp/internal/dtos"
	"github.com/iyunix/go-chatapp/internal/services"
)

// sessionListKey is the single cache key holding the session-list mirror.
const sessionListKey = "sessions"

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL string
	Token   string
	UserID  string

	// HTTPClient is optional; a default with a sane timeout is used when nil.
	HTTPClient *http.Client

	Logger services.Logger
}

// Client mirrors server-side session state: a session-list cache and a
// per-session message cache, both without expiry. Entries only change on
// explicit invalidation after mutating calls, never by timeout, so the
// mirror can never drift ahead of what the server has confirmed.
type Client struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
	logger  services.Logger

	sessions *cache.Cache // sessionListKey -> []domain.SessionSummary
	messages *cache.Cache // session id -> []domain.ChatMessage

	activeSessionID string
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		userID:   cfg.UserID,
		http:     httpClient,
		logger:   logger,
		sessions: cache.New(cache.NoExpiration, 0),
		messages: cache.New(cache.NoExpiration, 0),
	}, nil
}

// UserID returns the owner this client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// ActiveSessionID returns the session the next turn will append to, or empty
// when the next turn starts a new conversation.
func (c *Client) ActiveSessionID() string {
	return c.activeSessionID
}

// SetActiveSession selects an existing session for subsequent turns.
func (c *Client) SetActiveSession(sessionID string) {
	c.activeSessionID = sessionID
}

// NewSession drops the active session so the next turn creates a fresh one.
func (c *Client) NewSession() {
	c.activeSessionID = ""
}

// ListSessions returns the cached session list, fetching only when the cache
// is empty or forceRefresh is set. A fetch failure leaves the cache as it was.
func (c *Client) ListSessions(ctx context.Context, forceRefresh bool) ([]domain.SessionSummary, error) {
	if !forceRefresh {
		if cached, found := c.sessions.Get(sessionListKey); found {
			c.logger.Debug("using cached session list")
			return cached.([]domain.SessionSummary), nil
		}
	}

	var summaries []domain.SessionSummary
	path := fmt.Sprintf("/api/chat/history?userId=%s", c.userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &summaries); err != nil {
		return nil, err
	}

	c.sessions.Set(sessionListKey, summaries, cache.NoExpiration)
	c.reconcileActive(summaries)
	return summaries, nil
}

// LoadSessionMessages returns the mirrored message array for a session,
// fetching the full session once and serving from cache afterwards.
func (c *Client) LoadSessionMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if cached, found := c.messages.Get(sessionID); found {
		c.logger.Debug("using cached messages", "session_id", sessionID)
		return cached.([]domain.ChatMessage), nil
	}

	var sess domain.ChatSession
	path := fmt.Sprintf("/api/chat/sessions/%s/%s", c.userID, sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &sess); err != nil {
		return nil, err
	}

	messages := sess.Messages
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	c.messages.Set(sessionID, messages, cache.NoExpiration)
	return messages, nil
}

// SubmitTurn sends one chat turn against the active session (creating one
// server-side when none is active), then appends the confirmed pair to the
// local mirror and force-refreshes the session list.
func (c *Client) SubmitTurn(ctx context.Context, text string, includeHistory bool) (*dtos.ChatResponse, error) {
	wasNew := c.activeSessionID == ""
	req := dtos.ChatRequest{
		UserID:         c.userID,
		UserMessage:    text,
		SessionID:      c.activeSessionID,
		IncludeHistory: includeHistory,
		TurnID:         uuid.NewString(),
	}

	var resp dtos.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}

	c.activeSessionID = resp.SessionID

	// Append only after server confirmation. For a brand-new session the
	// pair is the complete transcript; for a known one we extend whatever
	// is already mirrored. An uncached existing session stays uncached and
	// will be fetched whole on the next load.
	now := time.Now().UTC()
	pair := []domain.ChatMessage{
		{MessageID: uuid.NewString(), Text: text, IsUserMessage: true, Timestamp: now},
		{MessageID: uuid.NewString(), Text: resp.Response, IsUserMessage: false, Timestamp: now},
	}
	if cached, found := c.messages.Get(resp.SessionID); found {
		c.messages.Set(resp.SessionID, append(cached.([]domain.ChatMessage), pair...), cache.NoExpiration)
	} else if wasNew {
		c.messages.Set(resp.SessionID, pair, cache.NoExpiration)
	}

	// A new turn may have created or renamed a session entry.
	if _, err := c.ListSessions(ctx, true); err != nil {
		c.logger.Warn("session list refresh failed after turn", "error", err.Error())
	}

	return &resp, nil
}

// DeleteSession removes the session server-side and evicts it from both
// mirrors.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/api/chat/sessions/%s/%s", c.userID, sessionID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}

	c.messages.Delete(sessionID)
	if cached, found := c.sessions.Get(sessionListKey); found {
		summaries := cached.([]domain.SessionSummary)
		kept := make([]domain.SessionSummary, 0, len(summaries))
		for _, s := range summaries {
			if s.SessionID != sessionID {
				kept = append(kept, s)
			}
		}
		c.sessions.Set(sessionListKey, kept, cache.NoExpiration)
	}
	if c.activeSessionID == sessionID {
		c.activeSessionID = ""
	}
	return nil
}

// reconcileActive clears the active session when a refresh shows it no
// longer exists, e.g. deleted from another client.
func (c *Client) reconcileActive(summaries []domain.SessionSummary) {
	if c.activeSessionID == "" {
		return
	}
	for _, s := range summaries {
		if s.SessionID == c.activeSessionID {
			return
		}
	}
	c.logger.Info("active session no longer exists", "session_id", c.activeSessionID)
	c.activeSessionID = ""
}

// do runs one API call; any non-2xx response becomes an *APIError and the
// caches are never touched on the error path.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr dtos.ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		message := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
