package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderBackend_Conversation(t *testing.T) {
	mock := &MockProvider{Response: "了解しました"}
	b := NewProviderBackend(mock)
	b.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	id, err := b.CreateThread(ctx)
	require.NoError(t, err)
	assert.Contains(t, id, "thread_local_")

	reply, err := b.SendAndAwaitReply(ctx, id, "こんにちは", "instr")
	require.NoError(t, err)
	assert.Equal(t, "了解しました", reply.Text)
	assert.NotEmpty(t, reply.MessageID)
	assert.Equal(t, "instr", mock.LastInstructions)
	assert.Equal(t, []Turn{{Role: RoleUser, Content: "こんにちは"}}, mock.LastTurns)

	_, err = b.SendAndAwaitReply(ctx, id, "次", "instr")
	require.NoError(t, err)
	assert.Len(t, mock.LastTurns, 3)

	msgs, err := b.ListThreadMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, reply.MessageID, msgs[1].ID)
	assert.Equal(t, int64(1700000000), msgs[1].CreatedAt)
}

func TestProviderBackend_FailureKeepsUserMessage(t *testing.T) {
	b := NewProviderBackend(&MockProvider{Err: errors.New("boom")})
	ctx := context.Background()
	id, _ := b.CreateThread(ctx)

	_, err := b.SendAndAwaitReply(ctx, id, "こんにちは", "")
	require.Error(t, err)

	msgs, err := b.ListThreadMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
}

func TestProviderBackend_UnknownThread(t *testing.T) {
	b := NewProviderBackend(&MockProvider{})
	_, err := b.SendAndAwaitReply(context.Background(), "nope", "x", "")
	assert.ErrorIs(t, err, ErrUnknownThread)
	_, err = b.ListThreadMessages(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownThread)
}
