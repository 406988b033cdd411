package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownThread is returned when a thread id was never created by the backend.
var ErrUnknownThread = errors.New("unknown thread")

// ThreadMessage is one message as the backend's thread history records it.
// CreatedAt is in seconds since the epoch.
type ThreadMessage struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt int64
}

// Reply is the assistant's answer to one submitted message.
type Reply struct {
	Text      string
	MessageID string
}

// Backend is a conversation service that keeps its own thread history.
type Backend interface {
	CreateThread(ctx context.Context) (string, error)
	// SendAndAwaitReply posts content to the thread, runs it with instructions and blocks
	// until the assistant has answered or ctx is done.
	SendAndAwaitReply(ctx context.Context, threadID, content, instructions string) (Reply, error)
	// ListThreadMessages returns the thread in ascending time order.
	ListThreadMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)
}

// Settings selects and configures a backend.
type Settings struct {
	Provider string // assistants|openai|github-models|ollama
	Model    string
	Endpoint string
	APIKey   string
	Token    string

	AssistantName         string
	AssistantInstructions string
	AssistantID           string
	PollInterval          time.Duration
}

// NewBackend builds the backend named by s.Provider. "assistants" talks to the hosted
// Assistants API; any other name is a registered chat provider with local threads.
func NewBackend(s Settings) (Backend, error) {
	if s.Provider == "" || s.Provider == "assistants" {
		if s.APIKey == "" {
			return nil, fmt.Errorf("assistants backend: %w", ErrMissingCredentials)
		}
		return NewAssistantsBackend(s.APIKey,
			WithAssistant(s.AssistantName, s.AssistantInstructions, s.Model),
			WithAssistantID(s.AssistantID),
			WithBaseURL(s.Endpoint),
			WithPollInterval(s.PollInterval),
		), nil
	}

	p, err := NewProvider(s.Provider, map[string]string{
		"api_key":  s.APIKey,
		"token":    s.Token,
		"model":    s.Model,
		"base_url": s.Endpoint,
		"endpoint": s.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return NewProviderBackend(p), nil
}

// ErrMissingCredentials is returned when a backend needs a key that is not stored.
var ErrMissingCredentials = errors.New("missing credentials")
