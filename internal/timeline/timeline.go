// Package timeline merges the local chat log with the backend thread into one ordered view.
package timeline

import (
	"sort"

	"github.com/Chan-con/chat-assistant/internal/model"
	"github.com/Chan-con/chat-assistant/internal/session"
)

// DedupWindow is how close in time (ms) a thread message must be to an already
// included message with the same role and content to be treated as its echo.
const DedupWindow int64 = 15000

// Source tells where an entry came from.
type Source string

const (
	SourceChat   Source = "chat"
	SourceThread Source = "thread"
)

// Entry is one line of the merged timeline. TimestampMs is in milliseconds.
type Entry struct {
	Source      Source
	ID          string
	Role        model.Role
	Content     string
	TimestampMs int64
	IsCommand   bool
}

// FromChat maps a local chat message.
func FromChat(m session.ChatMessage) Entry {
	return Entry{
		Source:      SourceChat,
		ID:          m.ID,
		Role:        m.Role,
		Content:     m.Content,
		TimestampMs: m.Timestamp,
		IsCommand:   m.IsCommand,
	}
}

// FromThread maps a thread message; its seconds timestamp becomes milliseconds.
func FromThread(m model.ThreadMessage) Entry {
	return Entry{
		Source:      SourceThread,
		ID:          m.ID,
		Role:        m.Role,
		Content:     m.Content,
		TimestampMs: m.CreatedAt * 1000,
	}
}

// Reconcile returns every chat message plus the thread messages that are not echoes of an
// entry already included, sorted by time. Equal timestamps keep chat before thread.
func Reconcile(chat []session.ChatMessage, thread []model.ThreadMessage) []Entry {
	out := make([]Entry, 0, len(chat)+len(thread))
	for _, m := range chat {
		out = append(out, FromChat(m))
	}
	for _, m := range thread {
		e := FromThread(m)
		if duplicated(out, e) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}

func duplicated(included []Entry, e Entry) bool {
	for _, x := range included {
		if x.Role != e.Role || x.Content != e.Content {
			continue
		}
		d := x.TimestampMs - e.TimestampMs
		if d < 0 {
			d = -d
		}
		if d < DedupWindow {
			return true
		}
	}
	return false
}
