package types

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest represents the request body for account registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserSummary is the public view of a user
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// PantryItemRequest is the body for creating or updating a pantry item.
// Name and category are validated by the service so errors carry a field.
type PantryItemRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Notes    *string `json:"notes"`
}

// PantryItemResponse is a single pantry item
type PantryItemResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Notes    *string   `json:"notes"`
	AddedAt  time.Time `json:"addedAt"`
}

// PantryListResponse wraps the owner's items, newest first
type PantryListResponse struct {
	Items []PantryItemResponse `json:"items"`
}

// PantryStatsResponse carries the category aggregation. Categories the owner
// has no items in are absent.
type PantryStatsResponse struct {
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"byCategory"`
}

// ExportResponse carries a temporary download link for a transcript
type ExportResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Code  string `json:"code,omitempty"`

	// ConversationID is set when the failed request still stored a message
	ConversationID string `json:"conversationId,omitempty"`
}
