package types

import "time"

// TurnRequest is one user turn. A nil or blank ConversationID starts a new
// conversation.
type TurnRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversationId"`
}

// TurnResponse is the assistant message the turn produced and the
// conversation it landed in.
type TurnResponse struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	ConversationID string    `json:"conversationId"`
}

// ConversationSummary is one row of the conversation list
type ConversationSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	LastMessage string `json:"lastMessage"`
	Time        string `json:"time"`
}

// ConversationListResponse is ordered most recently updated first
type ConversationListResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// MessageResponse is one transcript entry
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageListResponse is ordered oldest first
type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
}
