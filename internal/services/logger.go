// File: internal/services/logger.go
package services

import (
	"os"
	"strings"
)

// Logger defines the common logging interface for all services.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// NoOpLogger is a logger that does nothing (for testing).
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// NewLogger is the environment-based logger factory: silent under test,
// console-friendly in development, JSON with file rotation in production.
func NewLogger(service string) Logger {
	env := strings.ToLower(os.Getenv("GO_ENV"))
	if env == "test" {
		return &NoOpLogger{}
	}
	return NewZapLogger(service, env == "production")
}
