package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Chan-con/chat-assistant/internal/logging"
)

// ProviderBackend gives a plain chat provider thread semantics by keeping each thread
// in memory and replaying it on every send.
type ProviderBackend struct {
	model *Model
	now   func() time.Time

	mu      sync.Mutex
	threads map[string][]ThreadMessage

	log zerolog.Logger
}

// NewProviderBackend wraps p.
func NewProviderBackend(p Provider) *ProviderBackend {
	return &ProviderBackend{
		model:   New(p),
		now:     time.Now,
		threads: map[string][]ThreadMessage{},
		log:     logging.Component("threads").With().Str("provider", p.Name()).Logger(),
	}
}

// Model exposes the wrapped provider, for model discovery.
func (b *ProviderBackend) Model() *Model {
	return b.model
}

// CreateThread implements Backend.
func (b *ProviderBackend) CreateThread(ctx context.Context) (string, error) {
	id := "thread_local_" + uuid.NewString()
	b.mu.Lock()
	b.threads[id] = nil
	b.mu.Unlock()
	return id, nil
}

// SendAndAwaitReply implements Backend. The user message stays in the thread even
// when generation fails, as a hosted thread would keep it.
func (b *ProviderBackend) SendAndAwaitReply(ctx context.Context, threadID, content, instructions string) (Reply, error) {
	b.mu.Lock()
	history, ok := b.threads[threadID]
	if !ok {
		b.mu.Unlock()
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	user := ThreadMessage{ID: "msg_" + uuid.NewString(), Role: RoleUser, Content: content, CreatedAt: b.now().Unix()}
	history = append(history, user)
	b.threads[threadID] = history
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	b.mu.Unlock()

	text, err := b.model.Chat(ctx, instructions, turns)
	if err != nil {
		return Reply{}, err
	}

	reply := ThreadMessage{ID: "msg_" + uuid.NewString(), Role: RoleAssistant, Content: text, CreatedAt: b.now().Unix()}
	b.mu.Lock()
	b.threads[threadID] = append(b.threads[threadID], reply)
	b.mu.Unlock()

	b.log.Debug().Str("thread_id", threadID).Int("turns", len(turns)).Msg("reply generated")
	return Reply{Text: text, MessageID: reply.ID}, nil
}

// ListThreadMessages implements Backend.
func (b *ProviderBackend) ListThreadMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	history, ok := b.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	out := make([]ThreadMessage, len(history))
	copy(out, history)
	return out, nil
}
