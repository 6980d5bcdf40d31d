package chatclient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

var (
	// ErrTurnInFlight is returned when a turn is already outstanding for the conversation
	ErrTurnInFlight = errors.New("a message is already being sent in this conversation")

	// ErrEmptyMessage is returned for a blank message
	ErrEmptyMessage = errors.New("message is empty")

	// ErrUnknownConversation is returned for a reference the session does not hold
	ErrUnknownConversation = errors.New("conversation is not in the list")
)

// Backend is the server surface the session talks to
type Backend interface {
	ListConversations(ctx context.Context) ([]types.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID string) ([]types.MessageResponse, error)
	SendTurn(ctx context.Context, message string, conversationID *string) (*types.TurnResponse, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Conversation is one entry of the session's conversation list
type Conversation struct {
	Ref         ConversationRef
	Title       string
	LastMessage string
	Time        string
}

// Message is one entry of the selected conversation's transcript
type Message struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
	// Pending is true for a user message whose turn has not completed
	Pending bool
}

// Session holds the conversation list, the selected conversation and its
// messages. State changes are applied atomically once each backend call
// completes and are announced on Changed.
type Session struct {
	backend Backend
	changed Signal

	mu            sync.Mutex
	conversations []Conversation
	selected      ConversationRef
	messages      []Message
	inFlight      map[string]bool
	// pending holds the unanswered user message per in-flight conversation
	pending map[string]Message
	// loadSeq discards message loads overtaken by a later selection
	loadSeq int
}

// NewSession creates an empty session
func NewSession(backend Backend) *Session {
	return &Session{
		backend:  backend,
		inFlight: make(map[string]bool),
		pending:  make(map[string]Message),
	}
}

// Changed is notified after every applied state change
func (s *Session) Changed() *Signal { return &s.changed }

// Conversations returns a copy of the conversation list
func (s *Session) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Conversation(nil), s.conversations...)
}

// Selected returns the selected conversation, or the zero ref
func (s *Session) Selected() ConversationRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Messages returns a copy of the selected conversation's transcript
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Sending reports whether a turn is outstanding for ref
func (s *Session) Sending(ref ConversationRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[ref.ID()]
}

// NewConversation adds a provisional conversation at the head of the list and
// selects it.
func (s *Session) NewConversation() ConversationRef {
	ref := NewProvisionalRef()

	s.mu.Lock()
	s.conversations = append([]Conversation{{
		Ref:   ref,
		Title: service.DefaultConversationTitle,
		Time:  "Just now",
	}}, s.conversations...)
	s.selected = ref
	s.messages = nil
	s.loadSeq++
	s.mu.Unlock()

	s.changed.Notify()
	return ref
}

// Select makes ref the selected conversation and loads its transcript.
// Provisional conversations have no server transcript.
func (s *Session) Select(ctx context.Context, ref ConversationRef) error {
	s.mu.Lock()
	if s.indexOf(ref) < 0 {
		s.mu.Unlock()
		return ErrUnknownConversation
	}
	s.selected = ref
	s.messages = nil
	if p, ok := s.pending[ref.ID()]; ok {
		s.messages = []Message{p}
	}
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()
	s.changed.Notify()

	if ref.IsProvisional() {
		return nil
	}
	return s.loadMessages(ctx, ref, seq)
}

// loadMessages replaces the transcript with the server's copy unless a later
// selection has overtaken seq. An unanswered message stays at the end.
func (s *Session) loadMessages(ctx context.Context, ref ConversationRef, seq int) error {
	remote, err := s.backend.ListMessages(ctx, ref.ID())
	if err != nil {
		return err
	}

	s.mu.Lock()
	if seq != s.loadSeq || s.selected != ref {
		s.mu.Unlock()
		return nil
	}
	s.messages = make([]Message, len(remote), len(remote)+1)
	for i, m := range remote {
		s.messages[i] = Message{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	}
	if p, ok := s.pending[ref.ID()]; ok {
		s.messages = append(s.messages, p)
	}
	s.mu.Unlock()

	s.changed.Notify()
	return nil
}

// Send posts text to the selected conversation, creating a provisional one
// first when nothing is selected. When the server answers, a provisional
// entry is replaced in place by the server's conversation.
func (s *Session) Send(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if s.Selected().IsZero() {
		s.NewConversation()
	}

	s.mu.Lock()
	ref := s.selected
	if s.inFlight[ref.ID()] {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.inFlight[ref.ID()] = true
	pending := Message{
		ID:        ProvisionalPrefix + uuid.NewString(),
		Role:      models.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
		Pending:   true,
	}
	s.pending[ref.ID()] = pending
	s.messages = append(s.messages, pending)
	seq := s.loadSeq
	s.mu.Unlock()
	s.changed.Notify()

	resp, err := s.backend.SendTurn(ctx, text, ref.ServerID())

	s.mu.Lock()
	delete(s.inFlight, ref.ID())
	delete(s.pending, ref.ID())
	if err != nil {
		// A missing credential is reported after the server stored the
		// message, so the conversation exists even though the turn failed.
		conversationID, stored := apperr.ConversationOf(err)
		if !stored {
			if s.selected == ref {
				s.messages = removeMessage(s.messages, pending.ID)
			}
			s.mu.Unlock()
			s.changed.Notify()
			return nil, err
		}
		s.settle(ctx, ref, ConfirmedRef(conversationID), seq, pending, text, nil)
		return nil, err
	}

	reply := Message{
		ID:        resp.ID,
		Role:      resp.Role,
		Content:   resp.Content,
		CreatedAt: resp.CreatedAt,
	}
	s.settle(ctx, ref, ConfirmedRef(resp.ConversationID), seq, pending, resp.Content, &reply)
	return &reply, nil
}

// settle applies a turn the server stored: the list entry is reconciled and,
// if the conversation is on screen, the pending message is confirmed and the
// reply appended. When the transcript was reloaded mid-turn it is fetched
// again so it matches the server. Callers hold s.mu; settle releases it.
func (s *Session) settle(ctx context.Context, sent, confirmed ConversationRef, seq int, pending Message, lastMessage string, reply *Message) {
	s.reconcile(sent, confirmed, pending.Content, lastMessage)

	onScreen := s.selected == sent || s.selected == confirmed
	if onScreen {
		s.selected = confirmed
		found := false
		for i := range s.messages {
			if s.messages[i].ID == pending.ID {
				s.messages[i].Pending = false
				found = true
			}
		}
		if !found {
			pending.Pending = false
			s.messages = append(s.messages, pending)
		}
		if reply != nil {
			s.messages = append(s.messages, *reply)
		}
	}
	reload := onScreen && seq != s.loadSeq
	current := s.loadSeq
	s.mu.Unlock()
	s.changed.Notify()

	if reload {
		// The locally patched transcript stands if this fails
		_ = s.loadMessages(ctx, confirmed, current)
	}
}

// reconcile folds a completed turn back into the list. The entry for sent
// takes the server id in place, and any other entry already holding that id
// is dropped. Callers hold s.mu.
func (s *Session) reconcile(sent, confirmed ConversationRef, userText, lastMessage string) {
	idx := s.indexOf(sent)
	if idx < 0 {
		// Deleted while the turn was outstanding. The server still has it.
		s.conversations = append([]Conversation{{
			Ref:         confirmed,
			Title:       service.DeriveTitle(userText),
			LastMessage: lastMessage,
			Time:        "Just now",
		}}, s.conversations...)
		idx = 0
	} else {
		entry := &s.conversations[idx]
		if entry.Ref != confirmed {
			entry.Title = service.DeriveTitle(userText)
		}
		entry.Ref = confirmed
		entry.LastMessage = lastMessage
		entry.Time = "Just now"
	}

	kept := s.conversations[:0]
	for i, c := range s.conversations {
		if i != idx && c.Ref == confirmed {
			continue
		}
		kept = append(kept, c)
	}
	s.conversations = kept
}

// Refresh reloads the conversation list. Provisional entries stay ahead of
// the server's list in their current order. Confirmed entries come from the
// server.
func (s *Session) Refresh(ctx context.Context) error {
	remote, err := s.backend.ListConversations(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	merged := make([]Conversation, 0, len(remote)+len(s.conversations))
	for _, c := range s.conversations {
		if c.Ref.IsProvisional() {
			merged = append(merged, c)
		}
	}
	onServer := make(map[string]bool, len(remote))
	for _, r := range remote {
		onServer[r.ID] = true
		merged = append(merged, Conversation{
			Ref:         ConfirmedRef(r.ID),
			Title:       r.Title,
			LastMessage: r.LastMessage,
			Time:        r.Time,
		})
	}
	s.conversations = merged

	if !s.selected.IsZero() && !s.selected.IsProvisional() && !onServer[s.selected.ID()] && !s.inFlight[s.selected.ID()] {
		s.selected = ConversationRef{}
		s.messages = nil
		s.loadSeq++
	}
	s.mu.Unlock()

	s.changed.Notify()
	return nil
}

// Delete removes a conversation. Provisional conversations are removed
// locally. Confirmed ones are deleted on the server first.
func (s *Session) Delete(ctx context.Context, ref ConversationRef) error {
	if !ref.IsProvisional() {
		if err := s.backend.DeleteConversation(ctx, ref.ID()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if idx := s.indexOf(ref); idx >= 0 {
		s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	}
	if s.selected == ref {
		s.selected = ConversationRef{}
		s.messages = nil
		s.loadSeq++
	}
	s.mu.Unlock()

	s.changed.Notify()
	return nil
}

func (s *Session) indexOf(ref ConversationRef) int {
	for i, c := range s.conversations {
		if c.Ref == ref {
			return i
		}
	}
	return -1
}

func removeMessage(messages []Message, id string) []Message {
	for i, m := range messages {
		if m.ID == id {
			return append(messages[:i], messages[i+1:]...)
		}
	}
	return messages
}
