// File: internal/services/session/errors.go
package session

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeAuth       ErrorType = "AUTH"
	ErrTypeConflict   ErrorType = "CONFLICT"
)

// SessionError is the error family for all Session Manager operations. The
// handler layer maps Type to an HTTP status; callers can also test with the
// Is* predicates below.
type SessionError struct {
	Type      ErrorType
	Operation string
	Message   string
	UserID    string
	SessionID string
	Cause     error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("session %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *SessionError {
	return &SessionError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewNotFoundError(userID, sessionID string) *SessionError {
	return &SessionError{
		Type:      ErrTypeNotFound,
		Operation: "lookup",
		Message:   "session not found",
		UserID:    userID,
		SessionID: sessionID,
	}
}

func NewProviderError(operation, msg string, cause error) *SessionError {
	return &SessionError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewStorageError(operation, msg string, cause error) *SessionError {
	return &SessionError{Type: ErrTypeStorage, Operation: operation, Message: msg, Cause: cause}
}

func NewAuthError(operation, msg string) *SessionError {
	return &SessionError{Type: ErrTypeAuth, Operation: operation, Message: msg}
}

func NewConflictError(userID, sessionID string, cause error) *SessionError {
	return &SessionError{
		Type:      ErrTypeConflict,
		Operation: "upsert",
		Message:   "session was modified concurrently",
		UserID:    userID,
		SessionID: sessionID,
		Cause:     cause,
	}
}

func isType(err error, t ErrorType) bool {
	var se *SessionError
	return errors.As(err, &se) && se.Type == t
}

func IsValidation(err error) bool { return isType(err, ErrTypeValidation) }
func IsNotFound(err error) bool   { return isType(err, ErrTypeNotFound) }
func IsProvider(err error) bool   { return isType(err, ErrTypeProvider) }
func IsStorage(err error) bool    { return isType(err, ErrTypeStorage) }
func IsAuth(err error) bool       { return isType(err, ErrTypeAuth) }
func IsConflict(err error) bool   { return isType(err, ErrTypeConflict) }
