// File: internal/dtos/chat.go
package dtos

// ChatRequest is the payload of POST /api/chat. SessionID is absent on the
// first turn of a conversation; TurnID is an optional client-generated
// idempotency key for safe resubmission.
type ChatRequest struct {
	UserID         string `json:"userId" validate:"required"`
	UserMessage    string `json:"userMessage" validate:"required"`
	SessionID      string `json:"sessionId,omitempty"`
	IncludeHistory bool   `json:"includeHistory,omitempty"`
	TurnID         string `json:"turnId,omitempty"`
}

// ChatResponse returns the generated reply together with the session id the
// client must carry into subsequent turns.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// StatusResponse is the generic acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the uniform error body for all API failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
