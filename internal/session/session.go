// Package session holds the per-conversation state the controller works on.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Chan-con/chat-assistant/internal/model"
)

// ChatMessage is one locally recorded exchange entry. Timestamp is in milliseconds.
type ChatMessage struct {
	ID        string
	Role      model.Role
	Content   string
	Timestamp int64
	IsCommand bool
}

// NewMessage stamps a message with a fresh id at t.
func NewMessage(role model.Role, content string, t time.Time, isCommand bool) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: t.UnixMilli(),
		IsCommand: isCommand,
	}
}

// Session is the document, the local chat log and the backend thread of one conversation.
// All accessors are safe for concurrent use and return copies.
type Session struct {
	mu          sync.RWMutex
	document    string
	messages    []ChatMessage
	threadID    string
	assistantID string
	snapshot    []model.ThreadMessage
}

func New() *Session {
	return &Session{}
}

func (s *Session) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

func (s *Session) SetDocument(text string) {
	s.mu.Lock()
	s.document = text
	s.mu.Unlock()
}

func (s *Session) ClearDocument() {
	s.SetDocument("")
}

// Messages returns the chat log in append order.
func (s *Session) Messages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Append adds messages to the chat log atomically.
func (s *Session) Append(msgs ...ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msgs...)
	s.mu.Unlock()
}

func (s *Session) ThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadID
}

// SetThreadID switches to another thread; the old snapshot no longer applies and is dropped.
func (s *Session) SetThreadID(id string) {
	s.mu.Lock()
	if s.threadID != id {
		s.snapshot = nil
	}
	s.threadID = id
	s.mu.Unlock()
}

func (s *Session) AssistantID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assistantID
}

func (s *Session) SetAssistantID(id string) {
	s.mu.Lock()
	s.assistantID = id
	s.mu.Unlock()
}

// ThreadSnapshot is the last fetched copy of the backend thread.
func (s *Session) ThreadSnapshot() []model.ThreadMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ThreadMessage, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// ReplaceThreadSnapshot swaps the snapshot wholesale; it is never merged.
func (s *Session) ReplaceThreadSnapshot(msgs []model.ThreadMessage) {
	cp := make([]model.ThreadMessage, len(msgs))
	copy(cp, msgs)
	s.mu.Lock()
	s.snapshot = cp
	s.mu.Unlock()
}

// Reset forgets the thread, assistant, snapshot and chat log. The document survives.
func (s *Session) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.threadID = ""
	s.assistantID = ""
	s.snapshot = nil
	s.mu.Unlock()
}
