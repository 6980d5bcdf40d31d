// Package chatclient keeps a client's view of its conversations, including
// conversations created locally that the server has not seen yet.
package chatclient

import (
	"github.com/google/uuid"
)

// ProvisionalPrefix marks locally generated conversation ids in logs and UIs
const ProvisionalPrefix = "local-"

// ConversationRef identifies a conversation either by a local provisional id
// or by the id the server assigned. The zero value refers to nothing.
type ConversationRef struct {
	id          string
	provisional bool
}

// NewProvisionalRef generates a fresh provisional reference
func NewProvisionalRef() ConversationRef {
	return ConversationRef{id: ProvisionalPrefix + uuid.NewString(), provisional: true}
}

// ConfirmedRef refers to a conversation the server knows as id
func ConfirmedRef(id string) ConversationRef {
	return ConversationRef{id: id}
}

// ID returns the local or server id
func (r ConversationRef) ID() string { return r.id }

// IsProvisional reports whether the server has not assigned an id yet
func (r ConversationRef) IsProvisional() bool { return r.provisional }

// IsZero reports whether r refers to nothing
func (r ConversationRef) IsZero() bool { return r.id == "" }

// ServerID returns the id to send to the server. Provisional references have
// none, so the server starts a new conversation.
func (r ConversationRef) ServerID() *string {
	if r.provisional || r.id == "" {
		return nil
	}
	id := r.id
	return &id
}

func (r ConversationRef) String() string { return r.id }
