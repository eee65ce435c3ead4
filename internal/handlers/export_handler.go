// File: internal/handlers/export_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/iyunix/go-chatapp/internal/domain"
)

// ExportSession handles GET /api/chat/sessions/{userId}/{sessionId}/export
// and returns the conversation as a standalone HTML transcript. Assistant
// replies are markdown and are rendered; user messages are escaped verbatim.
func (h *ChatHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := h.ownedSessionVars(w, r)
	if !ok {
		return
	}

	sess, err := h.SessionService.GetSession(r.Context(), owner, sessionID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	page, err := renderTranscript(sess)
	if err != nil {
		h.logger.Error("transcript rendering failed", "session_id", sessionID, "error", err.Error())
		writeError(w, "Could not render transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func renderTranscript(sess *domain.ChatSession) ([]byte, error) {
	var body strings.Builder
	body.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	body.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&body, "<title>%s</title>\n", html.EscapeString(sess.SessionName))
	body.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(sess.SessionName))

	for _, msg := range sess.Messages {
		if msg.IsUserMessage {
			fmt.Fprintf(&body, "<div class=\"user-msg\"><p>%s</p></div>\n",
				html.EscapeString(msg.Text))
			continue
		}

		var rendered bytes.Buffer
		if err := goldmark.Convert([]byte(msg.Text), &rendered); err != nil {
			return nil, err
		}
		fmt.Fprintf(&body, "<div class=\"ai-msg\">%s</div>\n", rendered.String())
	}

	body.WriteString("</body>\n</html>\n")
	return []byte(body.String()), nil
}
