// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iyunix/go-chatapp/internal/auth"
	"github.com/iyunix/go-chatapp/internal/services"
)

// NewBearerAuthMiddleware validates the Authorization bearer token and puts
// the token subject into the request context as the owner identifier.
// Handlers must read the owner through OwnerFromContext, never from ambient
// globals.
func NewBearerAuthMiddleware(secretKey []byte, logger services.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				logger.Warn("missing bearer token", "path", r.URL.Path)
				writeAuthError(w, "missing bearer token")
				return
			}

			subject, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "), secretKey)
			if err != nil {
				logger.Warn("invalid bearer token", "path", r.URL.Path, "error", err.Error())
				writeAuthError(w, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), OwnerKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the authenticated owner set by the auth middleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(OwnerKey).(string)
	return owner, ok && owner != ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
