package brain

import (
	"context"
	"errors"

	"github.com/Chan-con/chat-assistant/internal/model"
)

type outcome struct {
	reply model.Reply
	err   error
}

// await races one generation against the configured timeout. The call runs in its own
// goroutine and reports on a buffered channel, so a result arriving after the deadline
// is dropped without blocking the sender.
func (b *Brain) await(ctx context.Context, backend model.Backend, op, threadID, content, instructions string) (model.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		r, err := backend.SendAndAwaitReply(ctx, threadID, content, instructions)
		done <- outcome{reply: r, err: err}
	}()

	select {
	case o := <-done:
		if o.err == nil {
			return o.reply, nil
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Reply{}, &BackendError{Op: op, Err: ErrGenerationTimeout}
		}
		return model.Reply{}, &BackendError{Op: op, Err: o.err}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.Reply{}, &BackendError{Op: op, Err: ErrGenerationTimeout}
		}
		return model.Reply{}, &BackendError{Op: op, Err: ctx.Err()}
	}
}
