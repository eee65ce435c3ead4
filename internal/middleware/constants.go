// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

const (
	// OwnerKey carries the authenticated owner identifier (the token subject).
	OwnerKey contextKey = "owner"
)
