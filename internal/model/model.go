package model

import (
	"context"
	"fmt"
)

// Role is the author of a message in a conversation thread.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message handed to a chat-style provider.
type Turn struct {
	Role    Role
	Content string
}

// Provider represents an AI model provider (e.g., Ollama, OpenAI)
type Provider interface {
	Name() string
	// Chat answers the last turn, with instructions taking the system slot.
	Chat(ctx context.Context, instructions string, turns []Turn) (string, error)
}

// Lister is implemented by providers that can enumerate their models.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Model handles AI interactions
type Model struct {
	provider Provider
}

// New creates a new Model with the given provider
func New(p Provider) *Model {
	return &Model{provider: p}
}

// Name returns the provider name, or "" when none is configured.
func (m *Model) Name() string {
	if m.provider == nil {
		return ""
	}
	return m.provider.Name()
}

// Chat forwards a multi-turn request to the provider.
func (m *Model) Chat(ctx context.Context, instructions string, turns []Turn) (string, error) {
	if m.provider == nil {
		return "", fmt.Errorf("no provider configured")
	}
	return m.provider.Chat(ctx, instructions, turns)
}

// ListModels returns the provider's models when it supports discovery.
func (m *Model) ListModels(ctx context.Context) ([]string, error) {
	l, ok := m.provider.(Lister)
	if !ok {
		return nil, fmt.Errorf("provider %q cannot list models", m.Name())
	}
	return l.ListModels(ctx)
}
