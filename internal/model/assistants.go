package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	oai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/Chan-con/chat-assistant/internal/logging"
)

const defaultPollInterval = time.Second

// ErrRunFailed is returned when a run ends in any status other than completed.
var ErrRunFailed = errors.New("run did not complete")

// AssistantsBackend keeps conversations in hosted threads and answers through runs.
type AssistantsBackend struct {
	client       *oai.Client
	pollInterval time.Duration

	name         string
	instructions string
	model        string

	mu          sync.Mutex
	assistantID string

	log zerolog.Logger
}

type assistantsOptions struct {
	baseURL    string
	httpClient *http.Client
}

// AssistantsOption configures an AssistantsBackend.
type AssistantsOption func(*AssistantsBackend, *assistantsOptions)

// WithBaseURL points the backend at another API root. Empty keeps the default.
func WithBaseURL(u string) AssistantsOption {
	return func(_ *AssistantsBackend, o *assistantsOptions) {
		if u != "" {
			o.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) AssistantsOption {
	return func(_ *AssistantsBackend, o *assistantsOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithPollInterval sets how often run status is fetched. Non-positive keeps the default.
func WithPollInterval(d time.Duration) AssistantsOption {
	return func(b *AssistantsBackend, _ *assistantsOptions) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithAssistant sets what is used to create the assistant on first use.
func WithAssistant(name, instructions, model string) AssistantsOption {
	return func(b *AssistantsBackend, _ *assistantsOptions) {
		if name != "" {
			b.name = name
		}
		if instructions != "" {
			b.instructions = instructions
		}
		if model != "" {
			b.model = model
		}
	}
}

// WithAssistantID reuses an assistant created earlier instead of creating one.
func WithAssistantID(id string) AssistantsOption {
	return func(b *AssistantsBackend, _ *assistantsOptions) {
		b.assistantID = id
	}
}

// NewAssistantsBackend creates a backend authenticated with apiKey.
func NewAssistantsBackend(apiKey string, opts ...AssistantsOption) *AssistantsBackend {
	b := &AssistantsBackend{
		pollInterval: defaultPollInterval,
		name:         "Chat Assistant",
		model:        oai.GPT4o,
		log:          logging.Component("assistants"),
	}
	var o assistantsOptions
	for _, opt := range opts {
		opt(b, &o)
	}

	cfg := oai.DefaultConfig(apiKey)
	cfg.AssistantVersion = "v2"
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	b.client = oai.NewClientWithConfig(cfg)
	return b
}

// AssistantID returns the assistant in use, or "" before the first call.
func (b *AssistantsBackend) AssistantID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.assistantID
}

// EnsureAssistant creates the assistant once and returns its id.
func (b *AssistantsBackend) EnsureAssistant(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assistantID != "" {
		return b.assistantID, nil
	}

	req := oai.AssistantRequest{
		Model: b.model,
		Name:  &b.name,
	}
	if b.instructions != "" {
		req.Instructions = &b.instructions
	}
	a, err := b.client.CreateAssistant(ctx, req)
	if err != nil {
		return "", fmt.Errorf("creating assistant: %w", err)
	}
	b.assistantID = a.ID
	b.log.Info().Str("assistant_id", a.ID).Str("model", b.model).Msg("assistant created")
	return a.ID, nil
}

// CreateThread implements Backend. The assistant is bootstrapped first so a bad key
// fails here rather than on the first send.
func (b *AssistantsBackend) CreateThread(ctx context.Context) (string, error) {
	if _, err := b.EnsureAssistant(ctx); err != nil {
		return "", err
	}
	th, err := b.client.CreateThread(ctx, oai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	b.log.Debug().Str("thread_id", th.ID).Msg("thread created")
	return th.ID, nil
}

// SendAndAwaitReply implements Backend. Run status is polled at the configured interval
// while it is queued or in progress; there is no retry cap, ctx bounds the wait.
func (b *AssistantsBackend) SendAndAwaitReply(ctx context.Context, threadID, content, instructions string) (Reply, error) {
	assistantID, err := b.EnsureAssistant(ctx)
	if err != nil {
		return Reply{}, err
	}

	_, err = b.client.CreateMessage(ctx, threadID, oai.MessageRequest{
		Role:    oai.ChatMessageRoleUser,
		Content: content,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("posting message: %w", err)
	}

	run, err := b.client.CreateRun(ctx, threadID, oai.RunRequest{
		AssistantID:  assistantID,
		Instructions: instructions,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("starting run: %w", err)
	}

	limiter := rate.NewLimiter(rate.Every(b.pollInterval), 1)
	for {
		if err := pace(ctx, limiter); err != nil {
			return Reply{}, err
		}
		run, err = b.client.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return Reply{}, fmt.Errorf("retrieving run: %w", err)
		}
		if run.Status != oai.RunStatusQueued && run.Status != oai.RunStatusInProgress {
			break
		}
	}

	if run.Status != oai.RunStatusCompleted {
		b.log.Warn().Str("run_id", run.ID).Str("status", string(run.Status)).Msg("run failed")
		return Reply{}, fmt.Errorf("%w: status %s", ErrRunFailed, run.Status)
	}

	latest, err := b.listMessages(ctx, threadID, "desc", 1)
	if err != nil {
		return Reply{}, err
	}
	if len(latest) == 0 || latest[0].Role != RoleAssistant {
		return Reply{}, fmt.Errorf("%w: no assistant message", ErrRunFailed)
	}
	return Reply{Text: latest[0].Content, MessageID: latest[0].ID}, nil
}

// pace blocks until the limiter grants a token. Unlike Limiter.Wait it reports the
// context's own error when the deadline ends the wait.
func pace(ctx context.Context, limiter *rate.Limiter) error {
	r := limiter.Reserve()
	d := r.Delay()
	if d == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// ListThreadMessages implements Backend.
func (b *AssistantsBackend) ListThreadMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	return b.listMessages(ctx, threadID, "asc", 100)
}

func (b *AssistantsBackend) listMessages(ctx context.Context, threadID, order string, limit int) ([]ThreadMessage, error) {
	list, err := b.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	msgs := make([]ThreadMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		var text string
		if len(m.Content) > 0 && m.Content[0].Text != nil {
			text = m.Content[0].Text.Value
		}
		msgs = append(msgs, ThreadMessage{
			ID:        m.ID,
			Role:      Role(m.Role),
			Content:   text,
			CreatedAt: int64(m.CreatedAt),
		})
	}
	return msgs, nil
}
