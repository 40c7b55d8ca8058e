package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/futig/docchat/internal/builder"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/integration/agent"
	"github.com/futig/docchat/internal/integration/llm"
	"github.com/futig/docchat/internal/retrieval"
	"github.com/futig/docchat/internal/session"
	"github.com/futig/docchat/internal/transcript"
	agentuc "github.com/futig/docchat/internal/usecase/agent"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
	"github.com/futig/docchat/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const towerQuestion = "how tall is the eiffel tower"

func ragApp(t *testing.T) *builder.CLI {
	t.Helper()

	dir := t.TempDir()
	mock := llm.NewMockConnector(zap.NewNop())

	vec, err := mock.Embed(context.Background(), towerQuestion)
	require.NoError(t, err)

	shard, err := json.Marshal([]entity.VectorRecord{{
		ContentID: "eiffel",
		ChunkID:   "eiffel-1",
		Topic:     "Landmarks",
		Content:   "The Eiffel Tower is 300 meters tall.",
		Vector:    vec,
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "landmarks.json"), shard, 0o644))

	sessions := session.NewManager(session.NewMemoryStorage(time.Hour, time.Minute))
	retriever := retrieval.NewRetriever(mock, vectorstore.NewShardLoader(dir), 0.5)
	transcripts := transcript.NewFileWriter(filepath.Join(t.TempDir(), "chat_response.json"))

	return &builder.CLI{
		Chat:     chatuc.NewUsecase(sessions, mock, retriever, transcripts, 10, zap.NewNop()),
		Starters: []entity.Starter{{Label: "Get more done", Message: "How can I improve my productivity?"}},
		Logger:   zap.NewNop(),
		Close:    func() {},
	}
}

func TestRunChat_RAG(t *testing.T) {
	app := ragApp(t)
	in := strings.NewReader(towerQuestion + "\nwhat is the weather\n/starters\n/exit\n")
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), app, in, &out))

	text := out.String()
	assert.Contains(t, text, "mock answer")
	assert.Contains(t, text, entity.RefusalMessage)
	assert.Contains(t, text, "How can I improve my productivity?")
}

func TestRunChat_Agent(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStorage(time.Hour, time.Minute))
	app := &builder.CLI{
		Agent:  agentuc.NewUsecase(sessions, agent.NewMockConnector(zap.NewNop()), zap.NewNop()),
		Logger: zap.NewNop(),
		Close:  func() {},
	}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), app, strings.NewReader("hello\n"), &out))

	assert.Contains(t, out.String(), "received:")
	assert.Contains(t, out.String(), "hello")
}

// silentAgent finishes runs without text deltas.
type silentAgent struct{}

func (silentAgent) CreateThread(context.Context) (string, error)      { return "thread-1", nil }
func (silentAgent) PostMessage(context.Context, string, string) error { return nil }
func (silentAgent) StreamRun(context.Context, string, func(string) error) error {
	return nil
}
func (silentAgent) LastAssistantMessage(context.Context, string) (string, bool, error) {
	return "The tower is 300 meters tall.", true, nil
}

func TestRunChat_AgentFinalMessageWithoutDeltas(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStorage(time.Hour, time.Minute))
	app := &builder.CLI{
		Agent:  agentuc.NewUsecase(sessions, silentAgent{}, zap.NewNop()),
		Logger: zap.NewNop(),
		Close:  func() {},
	}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), app, strings.NewReader("how tall?\n"), &out))

	assert.Contains(t, out.String(), entity.ThinkingMessage)
	assert.Contains(t, out.String(), "The tower is 300 meters tall.")
}

func TestRunChat_NoUsecase(t *testing.T) {
	err := runChat(context.Background(), &builder.CLI{Close: func() {}}, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, errNotRAG)
}

func executeWith(t *testing.T, app *builder.CLI, args ...string) (string, error) {
	t.Helper()

	prev := appBuilder
	appBuilder = func() (*builder.CLI, error) { return app, nil }
	t.Cleanup(func() { appBuilder = prev })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestAskAndTranscript(t *testing.T) {
	app := ragApp(t)

	out, err := executeWith(t, app, "ask", towerQuestion, "--docs")
	require.NoError(t, err)
	assert.Contains(t, out, "mock answer")
	assert.Contains(t, out, "eiffel")

	out, err = executeWith(t, app, "transcript")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Chat transcript"))
	assert.Contains(t, out, "The Eiffel Tower is 300 meters tall.")
}

func TestSearch(t *testing.T) {
	out, err := executeWith(t, ragApp(t), "search", towerQuestion)
	require.NoError(t, err)
	assert.Contains(t, out, "1.0000")
	assert.Contains(t, out, "eiffel")
}

func TestAsk_RequiresRAGMode(t *testing.T) {
	_, err := executeWith(t, &builder.CLI{Close: func() {}}, "ask", "anything")
	assert.ErrorIs(t, err, errNotRAG)
}
