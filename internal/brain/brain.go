// Package brain is the conversation controller: it classifies each utterance, builds the
// model instruction, runs the generation and keeps the reply document, chat log and
// thread snapshot consistent.
package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/Chan-con/chat-assistant/internal/confirm"
	"github.com/Chan-con/chat-assistant/internal/logging"
	"github.com/Chan-con/chat-assistant/internal/model"
	"github.com/Chan-con/chat-assistant/internal/prompt"
	"github.com/Chan-con/chat-assistant/internal/session"
	"github.com/Chan-con/chat-assistant/internal/timeline"
)

// DefaultTimeout bounds one generation.
const DefaultTimeout = 120 * time.Second

// DocumentStore persists the reply document across runs.
type DocumentStore interface {
	LoadDocument() (string, error)
	SaveDocument(text string) error
}

// assistantIdentifier is implemented by backends that own a hosted assistant.
type assistantIdentifier interface {
	AssistantID() string
}

// Result describes what one Send did.
type Result struct {
	Command prompt.Command
	// Reply is the cleaned assistant text; empty while a preview awaits confirmation.
	Reply     string
	MessageID string
	Document  string
	// Preview is set when the command was routed through confirmation.
	Preview *confirm.Preview
}

// Brain is the conversation controller for one session.
type Brain struct {
	// mu guards backend and epoch. Results are applied under it so a credential
	// reset cannot interleave with them.
	mu      sync.Mutex
	backend model.Backend
	epoch   uint64

	system   atomic.Pointer[prompt.System]
	store    DocumentStore
	session  *session.Session
	workflow *confirm.Workflow
	gate     *semaphore.Weighted
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Brain.
type Option func(*Brain)

// WithTimeout sets the generation timeout. Non-positive keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(b *Brain) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithSystem sets the prompt synthesizer.
func WithSystem(s *prompt.System) Option {
	return func(b *Brain) {
		if s != nil {
			b.system.Store(s)
		}
	}
}

// WithStore persists the document through s.
func WithStore(s DocumentStore) Option {
	return func(b *Brain) { b.store = s }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Brain) { b.now = now }
}

func New(backend model.Backend, opts ...Option) *Brain {
	b := &Brain{
		backend:  backend,
		session:  session.New(),
		workflow: confirm.New(),
		gate:     semaphore.NewWeighted(1),
		timeout:  DefaultTimeout,
		now:      time.Now,
		log:      logging.Component("brain"),
	}
	b.system.Store(prompt.DefaultSystem())
	for _, o := range opts {
		o(b)
	}
	b.workflow.Observe(func(from, to confirm.State) {
		b.log.Debug().Stringer("from", from).Stringer("to", to).Msg("edit confirmation")
	})
	return b
}

// Session exposes the underlying state, read-only by convention.
func (b *Brain) Session() *session.Session {
	return b.session
}

// SetSystem swaps the prompt synthesizer, e.g. after the config file changed.
// A send already in flight keeps the instructions it was built with.
func (b *Brain) SetSystem(s *prompt.System) {
	if s != nil {
		b.system.Store(s)
	}
}

// Workflow exposes the confirmation state machine.
func (b *Brain) Workflow() *confirm.Workflow {
	return b.workflow
}

// Start restores the document, opens a thread and loads its history.
func (b *Brain) Start(ctx context.Context) error {
	if b.store != nil {
		doc, err := b.store.LoadDocument()
		if err != nil {
			b.log.Warn().Err(err).Msg("loading document")
		} else {
			b.session.SetDocument(doc)
		}
	}

	backend, epoch := b.current()
	if err := b.openThread(ctx, backend, epoch); err != nil {
		return err
	}
	if _, err := b.Refresh(ctx); err != nil {
		b.log.Warn().Err(err).Msg("initial refresh")
	}
	return nil
}

// current returns the backend and the epoch it belongs to.
func (b *Brain) current() (model.Backend, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backend, b.epoch
}

// apply runs fn unless the credentials were reset after epoch.
func (b *Brain) apply(epoch uint64, fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.epoch != epoch {
		return ErrSessionReset
	}
	fn()
	return nil
}

func (b *Brain) openThread(ctx context.Context, backend model.Backend, epoch uint64) error {
	if backend == nil {
		return &BackendError{Op: OpCreateThread, Err: model.ErrMissingCredentials}
	}
	id, err := backend.CreateThread(ctx)
	if err != nil {
		return &BackendError{Op: OpCreateThread, Err: err}
	}
	err = b.apply(epoch, func() {
		b.session.SetThreadID(id)
		if a, ok := backend.(assistantIdentifier); ok {
			b.session.SetAssistantID(a.AssistantID())
		}
	})
	if err != nil {
		return err
	}
	b.log.Info().Str("thread_id", id).Msg("thread opened")
	return nil
}

// NewThread starts a fresh conversation. The document is kept; the chat log and any
// pending edit are dropped.
func (b *Brain) NewThread(ctx context.Context) error {
	if !b.gate.TryAcquire(1) {
		return ErrBusy
	}
	defer b.gate.Release(1)

	backend, epoch := b.current()
	err := b.apply(epoch, func() {
		b.workflow.Abort()
		assistant := b.session.AssistantID()
		b.session.Reset()
		b.session.SetAssistantID(assistant)
	})
	if err != nil {
		return err
	}
	return b.openThread(ctx, backend, epoch)
}

// ResetCredentials forgets everything tied to the current credentials, then switches to
// backend. With a nil backend every send fails with model.ErrMissingCredentials.
// It does not wait for a send in flight: that send's result is discarded and the send
// returns ErrSessionReset.
func (b *Brain) ResetCredentials(backend model.Backend) {
	b.mu.Lock()
	b.epoch++
	b.backend = backend
	b.workflow.Abort()
	b.session.Reset()
	b.mu.Unlock()
	b.log.Info().Msg("session reset after credential change")
}

// Send processes one utterance end to end.
func (b *Brain) Send(ctx context.Context, utterance string) (Result, error) {
	if !prompt.LooksLikePrompt(utterance) {
		return Result{}, ErrEmptyInput
	}
	if !b.gate.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	defer b.gate.Release(1)

	if b.workflow.State() != confirm.Idle {
		return Result{}, ErrEditPending
	}
	backend, epoch := b.current()
	if backend == nil {
		return Result{}, &BackendError{Op: OpSend, Err: model.ErrMissingCredentials}
	}

	submitted := b.now()
	document := b.session.Document()
	cmd := prompt.Classify(utterance, document)
	instructions := b.system.Load().Synthesize(cmd, document)

	b.log.Debug().
		Str("action", string(cmd.Action)).
		Bool("is_command", cmd.IsCommand).
		Bool("needs_confirmation", cmd.NeedsConfirmation).
		Msg("classified")

	if b.session.ThreadID() == "" {
		if err := b.openThread(ctx, backend, epoch); err != nil {
			return Result{}, err
		}
	}
	threadID := b.session.ThreadID()

	if cmd.NeedsConfirmation {
		return b.preview(ctx, backend, epoch, threadID, cmd, document, instructions, submitted)
	}

	reply, err := b.await(ctx, backend, OpSend, threadID, utterance, instructions)
	if err != nil {
		b.log.Error().Err(err).Str("action", string(cmd.Action)).Msg("send failed")
		return Result{Command: cmd}, err
	}

	text := prompt.CleanReply(reply.Text)
	answered := b.now()
	if !answered.After(submitted) {
		answered = submitted
	}
	res := Result{Command: cmd, Reply: text, MessageID: reply.MessageID}
	err = b.apply(epoch, func() {
		if cmd.UpdatesDocument() {
			b.session.SetDocument(text)
			b.persist(text)
		}
		b.session.Append(
			session.NewMessage(model.RoleUser, utterance, submitted, false),
			session.NewMessage(model.RoleAssistant, text, answered.Add(time.Millisecond), cmd.IsCommand),
		)
		res.Document = b.session.Document()
	})
	if err != nil {
		b.log.Warn().Str("message_id", reply.MessageID).Msg("reply dropped after session reset")
		return Result{Command: cmd}, err
	}

	b.log.Info().Str("action", string(cmd.Action)).Str("message_id", reply.MessageID).Msg("reply received")
	return res, nil
}

// preview generates the edited text for a general edit and parks it for confirmation.
// The edited text goes through CleanReply like a direct reply, and Confirm stores exactly
// the text the preview shows. The raw model output is not kept.
func (b *Brain) preview(ctx context.Context, backend model.Backend, epoch uint64, threadID string, cmd prompt.Command, document, instructions string, submitted time.Time) (Result, error) {
	if err := b.workflow.Begin(cmd); err != nil {
		return Result{}, fmt.Errorf("starting preview: %w", err)
	}

	reply, err := b.await(ctx, backend, OpPreview, threadID, cmd.Content, instructions)
	if err != nil {
		b.workflow.Fail()
		b.log.Error().Err(err).Msg("preview failed")
		return Result{Command: cmd}, err
	}

	edited := prompt.CleanReply(reply.Text)
	var readyErr error
	err = b.apply(epoch, func() {
		if readyErr = b.workflow.Ready(document, edited); readyErr == nil {
			b.session.Append(session.NewMessage(model.RoleUser, cmd.Content, submitted, false))
		}
	})
	if err != nil {
		b.log.Warn().Str("message_id", reply.MessageID).Msg("preview dropped after session reset")
		return Result{Command: cmd}, err
	}
	if readyErr != nil {
		return Result{Command: cmd}, readyErr
	}

	p, _ := b.workflow.Preview()
	return Result{
		Command:   cmd,
		MessageID: reply.MessageID,
		Document:  document,
		Preview:   &p,
	}, nil
}

// Pending returns the preview awaiting confirmation, if any.
func (b *Brain) Pending() (confirm.Preview, bool) {
	return b.workflow.Preview()
}

// Confirm applies the pending preview: the document becomes the edited text and one
// assistant message is recorded.
func (b *Brain) Confirm() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.workflow.Commit()
	if errors.Is(err, confirm.ErrNoPreview) {
		return "", ErrNoPendingEdit
	}
	if err != nil {
		return "", err
	}

	b.session.SetDocument(p.EditedText)
	b.persist(p.EditedText)
	b.session.Append(session.NewMessage(model.RoleAssistant, p.EditedText, b.now(), true))
	return p.EditedText, nil
}

// Cancel discards the pending preview. Nothing else changes.
func (b *Brain) Cancel() error {
	if err := b.workflow.Cancel(); err != nil {
		if errors.Is(err, confirm.ErrNoPreview) {
			return ErrNoPendingEdit
		}
		return err
	}
	return nil
}

// Refresh refetches the thread and returns the reconciled timeline. On failure the
// previous snapshot is kept. A snapshot fetched for a thread that is no longer current
// is dropped.
func (b *Brain) Refresh(ctx context.Context) ([]timeline.Entry, error) {
	backend, epoch := b.current()
	threadID := b.session.ThreadID()
	if threadID == "" || backend == nil {
		return b.Timeline(), nil
	}
	msgs, err := backend.ListThreadMessages(ctx, threadID)
	if err != nil {
		return b.Timeline(), &BackendError{Op: OpRefresh, Err: err}
	}
	_ = b.apply(epoch, func() {
		if b.session.ThreadID() == threadID {
			b.session.ReplaceThreadSnapshot(msgs)
		}
	})
	return b.Timeline(), nil
}

// Timeline reconciles the chat log with the current thread snapshot.
func (b *Brain) Timeline() []timeline.Entry {
	return timeline.Reconcile(b.session.Messages(), b.session.ThreadSnapshot())
}

func (b *Brain) Document() string {
	return b.session.Document()
}

// SetDocument replaces the reply by hand. It fails with ErrBusy while a send is in
// flight, since that send would overwrite the edit.
func (b *Brain) SetDocument(text string) error {
	if !b.gate.TryAcquire(1) {
		return ErrBusy
	}
	defer b.gate.Release(1)

	b.session.SetDocument(text)
	b.persist(text)
	return nil
}

func (b *Brain) ClearDocument() error {
	return b.SetDocument("")
}

func (b *Brain) Messages() []session.ChatMessage {
	return b.session.Messages()
}

// Busy reports whether a send is in flight.
func (b *Brain) Busy() bool {
	if b.gate.TryAcquire(1) {
		b.gate.Release(1)
		return false
	}
	return true
}

// QuoteDraft turns selected reply text into a prompt about it, or "" for a blank selection.
func QuoteDraft(selection string) string {
	s := strings.TrimSpace(selection)
	if s == "" {
		return ""
	}
	return "「" + s + "」について"
}

func (b *Brain) persist(text string) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveDocument(text); err != nil {
		b.log.Warn().Err(err).Msg("saving document")
	}
}
