package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	oai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistantsAPI serves the subset of the Assistants API the backend uses.
type fakeAssistantsAPI struct {
	mu             sync.Mutex
	assistants     int
	polls          int
	pendingPolls   int
	finalStatus    string
	runBodies      []map[string]any
	messages       []map[string]any
	betaHeaderSeen bool
}

func (f *fakeAssistantsAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /assistants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.assistants++
		f.betaHeaderSeen = r.Header.Get("OpenAI-Beta") == "assistants=v2"
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "asst_1"})
	})
	mux.HandleFunc("POST /threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "thread_1"})
	})
	mux.HandleFunc("POST /threads/{tid}/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.messages = append(f.messages, map[string]any{
			"id": "msg_u", "role": "user", "created_at": 1700000000,
			"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": body["content"]}}},
		})
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "msg_u"})
	})
	mux.HandleFunc("POST /threads/{tid}/runs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.runBodies = append(f.runBodies, body)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "run_1", "status": "queued"})
	})
	mux.HandleFunc("GET /threads/{tid}/runs/{rid}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.polls++
		status := "in_progress"
		if f.polls > f.pendingPolls {
			status = f.finalStatus
			if status == "completed" && len(f.messages) > 0 && f.messages[len(f.messages)-1]["role"] == "user" {
				f.messages = append(f.messages, map[string]any{
					"id": "msg_a", "role": "assistant", "created_at": 1700000002,
					"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": "返信です"}}},
				})
			}
		}
		writeJSON(w, map[string]any{"id": r.PathValue("rid"), "status": status})
	})
	mux.HandleFunc("GET /threads/{tid}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		data := append([]map[string]any(nil), f.messages...)
		if r.URL.Query().Get("order") == "desc" {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
			data = data[:1]
		}
		writeJSON(w, map[string]any{"data": data})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestAssistants(t *testing.T, api *fakeAssistantsAPI) *AssistantsBackend {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return NewAssistantsBackend("sk-test",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithPollInterval(time.Millisecond),
	)
}

func TestAssistantsBackend_SendAndAwaitReply(t *testing.T) {
	api := &fakeAssistantsAPI{pendingPolls: 2, finalStatus: "completed"}
	b := newTestAssistants(t, api)
	ctx := context.Background()

	threadID, err := b.CreateThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thread_1", threadID)
	assert.Equal(t, "asst_1", b.AssistantID())

	reply, err := b.SendAndAwaitReply(ctx, threadID, "返信を作って", "INSTRUCTIONS")
	require.NoError(t, err)
	assert.Equal(t, "返信です", reply.Text)
	assert.Equal(t, "msg_a", reply.MessageID)

	api.mu.Lock()
	assert.Equal(t, 1, api.assistants, "assistant is created once")
	assert.True(t, api.betaHeaderSeen)
	assert.Equal(t, 3, api.polls)
	require.Len(t, api.runBodies, 1)
	assert.Equal(t, "asst_1", api.runBodies[0]["assistant_id"])
	assert.Equal(t, "INSTRUCTIONS", api.runBodies[0]["instructions"])
	api.mu.Unlock()

	msgs, err := b.ListThreadMessages(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ThreadMessage{ID: "msg_u", Role: RoleUser, Content: "返信を作って", CreatedAt: 1700000000}, msgs[0])
	assert.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestAssistantsBackend_RunFailed(t *testing.T) {
	api := &fakeAssistantsAPI{finalStatus: "failed"}
	b := newTestAssistants(t, api)
	ctx := context.Background()

	threadID, err := b.CreateThread(ctx)
	require.NoError(t, err)

	_, err = b.SendAndAwaitReply(ctx, threadID, "x", "y")
	assert.ErrorIs(t, err, ErrRunFailed)
}

func TestAssistantsBackend_ContextBoundsPolling(t *testing.T) {
	api := &fakeAssistantsAPI{pendingPolls: 1 << 30, finalStatus: "completed"}
	b := newTestAssistants(t, api)
	b.pollInterval = 10 * time.Millisecond

	threadID, err := b.CreateThread(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = b.SendAndAwaitReply(ctx, threadID, "x", "y")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssistantsBackend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]any{"error": map[string]any{"message": "Incorrect API key"}})
	}))
	defer srv.Close()

	b := NewAssistantsBackend("bad", WithBaseURL(srv.URL))
	_, err := b.CreateThread(context.Background())
	require.Error(t, err)

	var apiErr *oai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
	assert.Equal(t, "Incorrect API key", apiErr.Message)
	assert.Equal(t, "", b.AssistantID())
}

func TestAssistantsBackend_ReusesAssistantID(t *testing.T) {
	api := &fakeAssistantsAPI{finalStatus: "completed"}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	b := NewAssistantsBackend("sk-test", WithBaseURL(srv.URL), WithAssistantID("asst_saved"))
	_, err := b.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asst_saved", b.AssistantID())
	assert.Equal(t, 0, api.assistants)
}
