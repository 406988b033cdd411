// Package confirm gates ambiguous edits behind a preview that the user accepts or rejects.
package confirm

import (
	"errors"
	"sync"

	"github.com/Chan-con/chat-assistant/internal/prompt"
)

// State is a workflow state.
type State int

const (
	Idle State = iota
	AwaitingPreview
	AwaitingConfirmation
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPreview:
		return "awaiting_preview"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	ErrNotIdle        = errors.New("an edit is already pending")
	ErrNotConfirmable = errors.New("command does not need confirmation")
	ErrNoPreview      = errors.New("no preview is pending")
)

// Preview is the edit shown to the user before it is applied.
type Preview struct {
	OriginalText string
	EditedText   string
	Instruction  prompt.Command
}

// Workflow is the per-session confirmation state machine.
// Committed and Cancelled are transient: the workflow passes through them back to Idle.
type Workflow struct {
	mu        sync.Mutex
	state     State
	pending   prompt.Command
	preview   *Preview
	observers []func(from, to State)
}

func New() *Workflow {
	return &Workflow{}
}

// Observe registers fn for every transition. Observers run with the workflow unlocked.
func (w *Workflow) Observe(fn func(from, to State)) {
	w.mu.Lock()
	w.observers = append(w.observers, fn)
	w.mu.Unlock()
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Preview returns the pending preview while awaiting confirmation.
func (w *Workflow) Preview() (Preview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != AwaitingConfirmation || w.preview == nil {
		return Preview{}, false
	}
	return *w.preview, true
}

// Begin starts a preview for cmd.
func (w *Workflow) Begin(cmd prompt.Command) error {
	w.mu.Lock()
	if w.state != Idle {
		w.mu.Unlock()
		return ErrNotIdle
	}
	if !cmd.NeedsConfirmation {
		w.mu.Unlock()
		return ErrNotConfirmable
	}
	w.pending = cmd
	steps := w.move(AwaitingPreview)
	w.mu.Unlock()
	w.notify(steps)
	return nil
}

// Ready records the generated preview.
func (w *Workflow) Ready(original, edited string) error {
	w.mu.Lock()
	if w.state != AwaitingPreview {
		w.mu.Unlock()
		return ErrNoPreview
	}
	w.preview = &Preview{OriginalText: original, EditedText: edited, Instruction: w.pending}
	steps := w.move(AwaitingConfirmation)
	w.mu.Unlock()
	w.notify(steps)
	return nil
}

// Fail abandons a preview that could not be generated.
func (w *Workflow) Fail() {
	w.mu.Lock()
	if w.state != AwaitingPreview {
		w.mu.Unlock()
		return
	}
	steps := w.reset()
	w.mu.Unlock()
	w.notify(steps)
}

// Commit accepts the preview and returns it for the caller to apply.
func (w *Workflow) Commit() (Preview, error) {
	return w.finish(Committed)
}

// Cancel rejects the preview.
func (w *Workflow) Cancel() error {
	_, err := w.finish(Cancelled)
	return err
}

// Abort drops whatever is pending, a preview still being generated included.
func (w *Workflow) Abort() {
	w.mu.Lock()
	if w.state == Idle {
		w.mu.Unlock()
		return
	}
	steps := w.reset()
	w.mu.Unlock()
	w.notify(steps)
}

func (w *Workflow) finish(end State) (Preview, error) {
	w.mu.Lock()
	if w.state != AwaitingConfirmation || w.preview == nil {
		w.mu.Unlock()
		return Preview{}, ErrNoPreview
	}
	p := *w.preview
	steps := w.move(end)
	steps = append(steps, w.reset()...)
	w.mu.Unlock()
	w.notify(steps)
	return p, nil
}

type transition struct{ from, to State }

// move and reset must be called with mu held.
func (w *Workflow) move(to State) []transition {
	t := transition{w.state, to}
	w.state = to
	return []transition{t}
}

func (w *Workflow) reset() []transition {
	w.pending = prompt.Command{}
	w.preview = nil
	return w.move(Idle)
}

func (w *Workflow) notify(steps []transition) {
	w.mu.Lock()
	obs := append([]func(from, to State){}, w.observers...)
	w.mu.Unlock()
	for _, t := range steps {
		for _, fn := range obs {
			fn(t.from, t.to)
		}
	}
}
