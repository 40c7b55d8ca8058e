package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	pkgHTTP "github.com/futig/docchat/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnector(t *testing.T, apiKey string, tokens pkgHTTP.TokenSource, handler http.HandlerFunc) *Connector {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.AgentConfig{
		Endpoint:   srv.URL + "/api/projects/demo",
		AgentID:    "asst_123",
		APIKey:     apiKey,
		APIVersion: "v1",
	}

	return NewConnector(cfg, tokens, zap.NewNop())
}

func writeEvents(w http.ResponseWriter, events ...[2]string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, ev := range events {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev[0], ev[1])
	}
}

func TestConnector_CreateThreadAndPost(t *testing.T) {
	var posted map[string]any

	c := newTestConnector(t, "", pkgHTTP.StaticToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "v1", r.URL.Query().Get("api-version"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/projects/demo/threads":
			io.WriteString(w, `{"id":"thread_1","object":"thread","created_at":1,"metadata":{}}`)
		case "/api/projects/demo/threads/thread_1/messages":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			io.WriteString(w, `{"id":"msg_1","object":"thread.message","thread_id":"thread_1","role":"user","content":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	threadID, err := c.CreateThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thread_1", threadID)

	require.NoError(t, c.PostMessage(ctx, threadID, "hello"))
	assert.Equal(t, "user", posted["role"])
	assert.Equal(t, "hello", posted["content"])
}

func TestConnector_APIKeyHeader(t *testing.T) {
	c := newTestConnector(t, "secret", nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Api-Key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"thread_9","object":"thread","created_at":1,"metadata":{}}`)
	})

	threadID, err := c.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread_9", threadID)
}

func TestConnector_StreamRunDeltas(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/demo/threads/thread_1/runs", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asst_123", body["assistant_id"])
		assert.Equal(t, true, body["stream"])

		writeEvents(w,
			[2]string{"thread.run.created", `{"id":"run_1","object":"thread.run","status":"queued"}`},
			[2]string{"thread.message.delta", `{"id":"msg_2","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"Hel"}}]}}`},
			[2]string{"thread.message.delta", `{"id":"msg_2","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"lo"}}]}}`},
			[2]string{"thread.run.completed", `{"id":"run_1","object":"thread.run","status":"completed"}`},
			[2]string{"done", `[DONE]`},
		)
	})

	var got []string
	err := c.StreamRun(context.Background(), "thread_1", func(text string) error {
		got = append(got, text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestConnector_StreamRunFailed(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w,
			[2]string{"thread.run.failed", `{"id":"run_1","object":"thread.run","status":"failed","last_error":{"code":"rate_limit_exceeded","message":"quota exhausted"}}`},
		)
	})

	err := c.StreamRun(context.Background(), "thread_1", func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrRunFailed))

	var runErr *entity.RunFailedError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "rate_limit_exceeded", runErr.Code)
	assert.Equal(t, "quota exhausted", runErr.Message)
}

func TestConnector_StreamErrorEvent(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w,
			[2]string{"error", `{"code":"server_error","message":"stream broke"}`},
		)
	})

	err := c.StreamRun(context.Background(), "thread_1", func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrUpstream))
	assert.Contains(t, err.Error(), "stream broke")
}

func TestConnector_StreamDeltaCallbackError(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w,
			[2]string{"thread.message.delta", `{"id":"msg_2","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"x"}}]}}`},
		)
	})

	stop := errors.New("stop")
	err := c.StreamRun(context.Background(), "thread_1", func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestConnector_LastAssistantMessage(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("order"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","data":[
			{"id":"m3","object":"thread.message","role":"user","content":[{"type":"text","text":{"value":"again","annotations":[]}}]},
			{"id":"m2","object":"thread.message","role":"assistant","content":[{"type":"text","text":{"value":"final answer","annotations":[]}}]},
			{"id":"m1","object":"thread.message","role":"assistant","content":[{"type":"text","text":{"value":"older","annotations":[]}}]}
		],"first_id":"m3","last_id":"m1","has_more":false}`)
	})

	text, ok, err := c.LastAssistantMessage(context.Background(), "thread_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "final answer", text)
}

func TestConnector_LastAssistantMessageNone(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","data":[],"has_more":false}`)
	})

	_, ok, err := c.LastAssistantMessage(context.Background(), "thread_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnector_NoThread(t *testing.T) {
	c := newTestConnector(t, "k", nil, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	ctx := context.Background()
	assert.ErrorIs(t, c.PostMessage(ctx, "", "hi"), entity.ErrNoThread)
	assert.ErrorIs(t, c.StreamRun(ctx, "", func(string) error { return nil }), entity.ErrNoThread)
}

func TestMockConnector_EchoStream(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ctx := context.Background()

	threadID, err := m.CreateThread(ctx)
	require.NoError(t, err)
	require.NoError(t, m.PostMessage(ctx, threadID, "ping pong"))

	var sb strings.Builder
	require.NoError(t, m.StreamRun(ctx, threadID, func(text string) error {
		sb.WriteString(text)
		return nil
	}))

	final, ok, err := m.LastAssistantMessage(ctx, threadID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Agent received: ping pong", final)
	assert.Equal(t, final, sb.String())
}
