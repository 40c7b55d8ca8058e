package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConnector struct {
	threads  int
	posted   []string
	deltas   []string
	runErr   error
	final    string
	hasFinal bool
}

func (f *fakeConnector) CreateThread(context.Context) (string, error) {
	f.threads++
	return fmt.Sprintf("thread_%d", f.threads), nil
}

func (f *fakeConnector) PostMessage(_ context.Context, threadID, text string) error {
	f.posted = append(f.posted, threadID+":"+text)
	return nil
}

func (f *fakeConnector) StreamRun(_ context.Context, _ string, onDelta func(string) error) error {
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return f.runErr
}

func (f *fakeConnector) LastAssistantMessage(context.Context, string) (string, bool, error) {
	return f.final, f.hasFinal, nil
}

func newUsecase(t *testing.T, c *fakeConnector) *Usecase {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStorage(time.Hour, time.Minute))
	return NewUsecase(sessions, c, zap.NewNop())
}

func TestUsecase_StartChatCreatesOneThread(t *testing.T) {
	c := &fakeConnector{}
	uc := newUsecase(t, c)
	ctx := context.Background()

	s, err := uc.StartChat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "thread_1", s.ThreadID)

	s, err = uc.StartChat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "thread_1", s.ThreadID)
	assert.Equal(t, 1, c.threads)
}

func TestUsecase_HandleMessageStreams(t *testing.T) {
	c := &fakeConnector{
		deltas:   []string{"Hel", "lo"},
		final:    "Hello",
		hasFinal: true,
	}
	uc := newUsecase(t, c)
	ctx := context.Background()

	_, err := uc.StartChat(ctx, "s1")
	require.NoError(t, err)

	var visible strings.Builder
	reply, err := uc.HandleMessage(ctx, "s1", "hi", func(d string) error {
		visible.WriteString(d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", visible.String())
	assert.Equal(t, "Hello", reply.Text)
	assert.Equal(t, "thread_1", reply.ThreadID)
	assert.Equal(t, []string{"thread_1:hi"}, c.posted)
}

func TestUsecase_RunFailedKeepsThread(t *testing.T) {
	c := &fakeConnector{
		runErr: &entity.RunFailedError{Code: "server_error", Message: "agent crashed"},
	}
	uc := newUsecase(t, c)
	ctx := context.Background()

	_, err := uc.StartChat(ctx, "s1")
	require.NoError(t, err)

	_, err = uc.HandleMessage(ctx, "s1", "hi", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrRunFailed)
	assert.Equal(t, "Error: server_error: agent crashed", "Error: "+err.Error())

	c.runErr = nil
	c.final, c.hasFinal = "recovered", true

	reply, err := uc.HandleMessage(ctx, "s1", "again", nil)
	require.NoError(t, err)
	assert.Equal(t, "thread_1", reply.ThreadID)
	assert.Equal(t, 1, c.threads)
}

func TestUsecase_NoResponse(t *testing.T) {
	c := &fakeConnector{}
	uc := newUsecase(t, c)
	ctx := context.Background()

	_, err := uc.StartChat(ctx, "s1")
	require.NoError(t, err)

	_, err = uc.HandleMessage(ctx, "s1", "hi", nil)
	assert.ErrorIs(t, err, entity.ErrNoResponse)
	assert.Equal(t, "No response from the model.", err.Error())
}

func TestUsecase_LazyThread(t *testing.T) {
	c := &fakeConnector{final: "ok", hasFinal: true}
	sessions := session.NewManager(session.NewMemoryStorage(time.Hour, time.Minute))
	uc := NewUsecase(sessions, c, zap.NewNop())
	ctx := context.Background()

	_, err := sessions.Create(ctx, "s1", entity.ChatModeAgent)
	require.NoError(t, err)

	reply, err := uc.HandleMessage(ctx, "s1", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "thread_1", reply.ThreadID)
}

func TestUsecase_UnknownSession(t *testing.T) {
	uc := newUsecase(t, &fakeConnector{})

	_, err := uc.HandleMessage(context.Background(), "nope", "hi", nil)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}
