package timeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chan-con/chat-assistant/internal/model"
	"github.com/Chan-con/chat-assistant/internal/session"
)

func chatMsg(id string, role model.Role, content string, ms int64) session.ChatMessage {
	return session.ChatMessage{ID: id, Role: role, Content: content, Timestamp: ms}
}

func threadMsg(id string, role model.Role, content string, sec int64) model.ThreadMessage {
	return model.ThreadMessage{ID: id, Role: role, Content: content, CreatedAt: sec}
}

func TestReconcile_DropsThreadEchoes(t *testing.T) {
	chat := []session.ChatMessage{
		chatMsg("c1", model.RoleUser, "返信を作って", 1700000000500),
		chatMsg("c2", model.RoleAssistant, "承知しました", 1700000003000),
	}
	thread := []model.ThreadMessage{
		threadMsg("t1", model.RoleUser, "返信を作って", 1700000001),
		threadMsg("t2", model.RoleAssistant, "承知しました", 1700000004),
		threadMsg("t3", model.RoleUser, "昨日の件", 1699999000),
	}

	got := Reconcile(chat, thread)
	want := []Entry{
		{Source: SourceThread, ID: "t3", Role: model.RoleUser, Content: "昨日の件", TimestampMs: 1699999000000},
		{Source: SourceChat, ID: "c1", Role: model.RoleUser, Content: "返信を作って", TimestampMs: 1700000000500},
		{Source: SourceChat, ID: "c2", Role: model.RoleAssistant, Content: "承知しました", TimestampMs: 1700000003000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_AssistantEchoWithinWindow(t *testing.T) {
	chat := []session.ChatMessage{chatMsg("c1", model.RoleAssistant, "X", 1000)}

	for _, sec := range []int64{1, 11} {
		got := Reconcile(chat, []model.ThreadMessage{threadMsg("t1", model.RoleAssistant, "X", sec)})
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].ID)
	}
}

func TestReconcile_WindowIsExclusive(t *testing.T) {
	chat := []session.ChatMessage{chatMsg("c1", model.RoleUser, "x", 1000000)}

	inside := Reconcile(chat, []model.ThreadMessage{threadMsg("t1", model.RoleUser, "x", 1014)})
	assert.Len(t, inside, 1, "14s apart is an echo")

	edge := Reconcile(chat, []model.ThreadMessage{threadMsg("t1", model.RoleUser, "x", 1015)})
	assert.Len(t, edge, 2, "exactly 15s apart is not")
}

func TestReconcile_RoleAndContentMustMatch(t *testing.T) {
	chat := []session.ChatMessage{chatMsg("c1", model.RoleUser, "x", 1000000)}
	got := Reconcile(chat, []model.ThreadMessage{
		threadMsg("t1", model.RoleAssistant, "x", 1000),
		threadMsg("t2", model.RoleUser, "x ", 1000),
	})
	assert.Len(t, got, 3)
}

func TestReconcile_ChatNeverSuppressed(t *testing.T) {
	chat := []session.ChatMessage{
		chatMsg("c1", model.RoleUser, "同じ", 1000),
		chatMsg("c2", model.RoleUser, "同じ", 1000),
	}
	got := Reconcile(chat, nil)
	assert.Len(t, got, 2)
}

func TestReconcile_ThreadDuplicatesCollapse(t *testing.T) {
	got := Reconcile(nil, []model.ThreadMessage{
		threadMsg("t1", model.RoleAssistant, "同じ", 100),
		threadMsg("t2", model.RoleAssistant, "同じ", 105),
		threadMsg("t3", model.RoleAssistant, "同じ", 200),
	})
	ids := []string{}
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"t1", "t3"}, ids)
}

func TestReconcile_TiesKeepChatFirst(t *testing.T) {
	chat := []session.ChatMessage{chatMsg("c1", model.RoleUser, "a", 5000)}
	thread := []model.ThreadMessage{threadMsg("t1", model.RoleAssistant, "b", 5)}
	got := Reconcile(chat, thread)
	assert.Equal(t, SourceChat, got[0].Source)
	assert.Equal(t, SourceThread, got[1].Source)
}

func TestReconcile_Idempotent(t *testing.T) {
	chat := []session.ChatMessage{chatMsg("c1", model.RoleUser, "a", 5000), chatMsg("c2", model.RoleAssistant, "b", 4000)}
	thread := []model.ThreadMessage{threadMsg("t1", model.RoleAssistant, "b", 4), threadMsg("t2", model.RoleUser, "z", 1)}

	first := Reconcile(chat, thread)
	second := Reconcile(chat, thread)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Reconcile not deterministic (-first +second):\n%s", diff)
	}
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].TimestampMs, first[i].TimestampMs)
	}
}

func TestFromThread_ConvertsSeconds(t *testing.T) {
	e := FromThread(threadMsg("t", model.RoleUser, "x", 1700000000))
	assert.Equal(t, int64(1700000000000), e.TimestampMs)
	assert.Equal(t, SourceThread, e.Source)
	assert.False(t, e.IsCommand)
}
