package domain

import (
	"sync"
	"time"
)

// ChatRole is the author of a chat turn.
type ChatRole string

// Chat roles.
const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// Citation is a source document backing a knowledge base answer.
type Citation struct {
	URI     string `json:"uri"`
	Excerpt string `json:"excerpt,omitempty"`
}

// CitationGroup is one cited span of the generated answer and the
// references the knowledge base returned for it. A reference with an empty
// URI had no usable location.
type CitationGroup struct {
	Span       string      `json:"span"`
	References []Reference `json:"references"`
}

// Reference is a retrieved passage.
type Reference struct {
	LocationType string `json:"location_type"`
	URI          string `json:"uri"`
	Text         string `json:"text"`
}

// ChatTurn is a single message in a chat session.
type ChatTurn struct {
	Role      ChatRole   `json:"role"`
	Text      string     `json:"text"`
	Model     ModelID    `json:"model,omitempty"`
	RAG       bool       `json:"rag"`
	Citations []Citation `json:"citations,omitempty"`
	NoContext bool       `json:"no_context,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Answer is the result of asking a question.
type Answer struct {
	Question  string     `json:"question"`
	Text      string     `json:"text"`
	Model     ModelID    `json:"model"`
	ModelName string     `json:"model_name"`
	RAG       bool       `json:"rag"`
	Citations []Citation `json:"citations"`
	// NoContext is set when retrieval found no supporting passage.
	NoContext bool `json:"no_context"`
	// CitationError is set when the citations could not be fully read.
	CitationError string `json:"citation_error,omitempty"`
}

// ChatSession is the ordered chat history of one user session.
type ChatSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu         sync.RWMutex
	turns      []ChatTurn
	lastActive time.Time
}

// NewChatSession creates an empty session.
func NewChatSession(id string, now time.Time) *ChatSession {
	return &ChatSession{ID: id, CreatedAt: now, lastActive: now}
}

// AppendExchange appends a user turn and its assistant reply together.
func (s *ChatSession) AppendExchange(user, assistant ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, user, assistant)
	if assistant.CreatedAt.After(s.lastActive) {
		s.lastActive = assistant.CreatedAt
	}
}

// History returns a copy of the turns in chronological order.
func (s *ChatSession) History() []ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *ChatSession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Reset clears the whole history.
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Touch marks the session as used at t.
func (s *ChatSession) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.lastActive) {
		s.lastActive = t
	}
}

// LastActive returns the time of the last use.
func (s *ChatSession) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}
