package models

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single transcript entry.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationSession is the whole state of one chat. Everything the booking
// dialogue needs between requests lives in ActiveBooking.
type ConversationSession struct {
	ID            string         `json:"id"`
	Messages      []ChatMessage  `json:"messages"`
	ActiveBooking *ActiveBooking `json:"activeBooking,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// NewConversationSession returns an empty session.
func NewConversationSession(id string, now time.Time) *ConversationSession {
	return &ConversationSession{
		ID:        id,
		Messages:  []ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the transcript.
func (s *ConversationSession) Append(role, content string, at time.Time) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content, CreatedAt: at})
	s.UpdatedAt = at
}

// RecentMessages returns at most n trailing messages.
func (s *ConversationSession) RecentMessages(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
