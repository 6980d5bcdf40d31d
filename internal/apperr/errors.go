// Package apperr defines the error taxonomy shared by the service and api layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means no authenticated caller could be identified.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers both "does not exist" and "not owned by the caller".
	ErrNotFound = errors.New("not found")

	// ErrCredentialMissing means the user has not configured a usable provider key.
	ErrCredentialMissing = errors.New("ai provider credential is not configured")
)

// ValidationError represents malformed or missing input for a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConversationError ties a failure to the conversation the request already
// created or used, so callers can still adopt that conversation.
type ConversationError struct {
	ConversationID string
	Err            error
}

func (e *ConversationError) Error() string {
	return fmt.Sprintf("conversation %s: %v", e.ConversationID, e.Err)
}

func (e *ConversationError) Unwrap() error { return e.Err }

// ConversationOf returns the conversation id carried by err, if any.
func ConversationOf(err error) (string, bool) {
	var cErr *ConversationError
	if errors.As(err, &cErr) && cErr.ConversationID != "" {
		return cErr.ConversationID, true
	}
	return "", false
}

// EncryptionError wraps a failure to encrypt a credential.
type EncryptionError struct {
	Err error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("failed to encrypt credential: %v", e.Err)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

// DecryptionError wraps a failure to decrypt a stored credential.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decrypt credential: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to decrypt credential: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// CompletionError wraps a failed call to the completion provider.
type CompletionError struct {
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion provider returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion provider call failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
