// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/iyunix/go-chatapp/internal/dtos"
	"github.com/iyunix/go-chatapp/internal/middleware"
	"github.com/iyunix/go-chatapp/internal/services"
	"github.com/iyunix/go-chatapp/internal/services/session"
)

type ChatHandler struct {
	SessionService *services.SessionService
	validate       *validator.Validate
	logger         services.Logger
}

func NewChatHandler(ss *services.SessionService, logger services.Logger) (*ChatHandler, error) {
	if ss == nil {
		return nil, session.NewValidationError("constructor", "session service is required")
	}
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &ChatHandler{
		SessionService: ss,
		validate:       validator.New(),
		logger:         logger,
	}, nil
}

// SubmitTurn handles POST /api/chat: one user message in, one reply out,
// creating the session when no sessionId is supplied.
func (h *ChatHandler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dtos.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, "userId and userMessage are required", http.StatusBadRequest)
		return
	}

	// The body carries the owner the frontend believes it acts for; it must
	// match the one the token established.
	if req.UserID != owner {
		writeError(w, "Owner mismatch", http.StatusUnauthorized)
		return
	}

	result, err := h.SessionService.SubmitTurn(r.Context(), services.TurnInput{
		Owner:       owner,
		SessionID:   req.SessionID,
		UserMessage: req.UserMessage,
		UseHistory:  req.IncludeHistory,
		TurnKey:     req.TurnID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.ChatResponse{
		Response:  result.Reply,
		SessionID: result.SessionID,
	})
}

// GetHistory handles GET /api/chat/history?userId= and returns every session
// summary the owner has.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, "userId query parameter is required", http.StatusBadRequest)
		return
	}
	if userID != owner {
		writeError(w, "Owner mismatch", http.StatusUnauthorized)
		return
	}

	summaries, err := h.SessionService.GetUserSessions(r.Context(), owner)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetSession handles GET /api/chat/sessions/{userId}/{sessionId} and returns
// the full session, messages included.
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := h.ownedSessionVars(w, r)
	if !ok {
		return
	}

	sess, err := h.SessionService.GetSession(r.Context(), owner, sessionID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/chat/sessions/{userId}/{sessionId}.
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := h.ownedSessionVars(w, r)
	if !ok {
		return
	}

	if err := h.SessionService.DeleteSession(r.Context(), owner, sessionID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.StatusResponse{Status: "deleted"})
}

// ownedSessionVars extracts the path parameters and enforces that the userId
// in the path matches the authenticated owner.
func (h *ChatHandler) ownedSessionVars(w http.ResponseWriter, r *http.Request) (owner, sessionID string, ok bool) {
	owner, authed := middleware.OwnerFromContext(r.Context())
	if !authed {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return "", "", false
	}

	vars := mux.Vars(r)
	userID := vars["userId"]
	sessionID = vars["sessionId"]
	if userID == "" || sessionID == "" {
		writeError(w, "userId and sessionId are required", http.StatusBadRequest)
		return "", "", false
	}
	if userID != owner {
		writeError(w, "Owner mismatch", http.StatusUnauthorized)
		return "", "", false
	}
	return owner, sessionID, true
}

// writeServiceError maps the session error family to HTTP statuses.
func (h *ChatHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case session.IsValidation(err):
		writeError(w, err.Error(), http.StatusBadRequest)
	case session.IsNotFound(err):
		writeError(w, "Session not found", http.StatusNotFound)
	case session.IsAuth(err):
		writeError(w, "Unauthorized", http.StatusUnauthorized)
	case session.IsConflict(err):
		writeError(w, "Session was modified concurrently, please retry", http.StatusConflict)
	case session.IsProvider(err):
		h.logger.Error("completion provider failure", "path", r.URL.Path, "error", err.Error())
		writeError(w, "Could not generate a reply", http.StatusBadGateway)
	default:
		h.logger.Error("internal error", "path", r.URL.Path, "error", err.Error())
		writeError(w, "An internal server error occurred", http.StatusInternalServerError)
	}
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, dtos.ErrorResponse{Error: message})
}
