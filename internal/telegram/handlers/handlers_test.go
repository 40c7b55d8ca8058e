package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/futig/docchat/internal/telegram/keyboard"
	"github.com/futig/docchat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	failures int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures > 0 {
		b.failures--
		return tgbotapi.Message{}, errors.New("Too Many Requests")
	}

	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	for _, c := range b.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, "send:"+m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, fmt.Sprintf("edit[%d]:%s", m.MessageID, m.Text))
		case tgbotapi.DocumentConfig:
			out = append(out, "document")
		}
	}
	return out
}

func (b *fakeBot) deleted() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.requests {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

func testSender(bot BotAPI) *MessageSender {
	return NewMessageSender(bot, pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
}

type fakeChat struct {
	started    []string
	reply      *entity.Reply
	err        error
	transcript *entity.Transcript
	missing    bool
}

func (f *fakeChat) StartChat(_ context.Context, id string) (*entity.Session, error) {
	f.started = append(f.started, id)
	f.missing = false
	return &entity.Session{ID: id}, nil
}

func (f *fakeChat) HandleMessage(context.Context, string, string) (*entity.Reply, error) {
	if f.missing {
		return nil, entity.ErrSessionNotFound
	}
	return f.reply, f.err
}

func (f *fakeChat) Transcript(context.Context, string) (*entity.Transcript, error) {
	if f.transcript == nil {
		return nil, entity.ErrNoTranscript
	}
	return f.transcript, nil
}

type fakeAgent struct {
	deltas []string
	reply  *entity.AgentReply
	err    error
}

func (f *fakeAgent) StartChat(_ context.Context, id string) (*entity.Session, error) {
	return &entity.Session{ID: id, ThreadID: "thread_1"}, nil
}

func (f *fakeAgent) HandleMessage(_ context.Context, _, _ string, onDelta func(string) error) (*entity.AgentReply, error) {
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return nil, err
		}
	}
	return f.reply, f.err
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "tg:-100123", SessionKey(-100123))
}

func TestMessageSender_RetriesTransientFailures(t *testing.T) {
	bot := &fakeBot{failures: 2}

	id, err := testSender(bot).Send(context.Background(), 1, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, []string{"send:hello"}, bot.texts())
}

func TestMessageSender_GivesUp(t *testing.T) {
	bot := &fakeBot{failures: 10}

	_, err := testSender(bot).Send(context.Background(), 1, "hello", nil)
	assert.Error(t, err)
	assert.Empty(t, bot.texts())
}

func TestChatHandler_Start(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChat{}
	h := NewChatHandler(bot, testSender(bot), uc, keyboard.NewBuilder(), []entity.Starter{{Label: "A", Message: "a"}})

	require.NoError(t, h.Start(context.Background(), &Message{ChatID: 7}))
	assert.Equal(t, []string{"tg:7"}, uc.started)

	require.Len(t, bot.sent, 1)
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, render.MsgWelcome, msg.Text)
	assert.NotNil(t, msg.ReplyMarkup)
}

func TestChatHandler_AnswerReplacesPlaceholder(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChat{reply: &entity.Reply{Kind: entity.ReplyAnswer, Text: "The tower is 300 meters tall."}}
	h := NewChatHandler(bot, testSender(bot), uc, keyboard.NewBuilder(), nil)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "How tall?"}))
	assert.Equal(t, []string{
		"send:thinking...",
		"edit[1]:The tower is 300 meters tall.",
	}, bot.texts())
}

func TestHandlers_EmptyReplyShowsError(t *testing.T) {
	bot := &fakeBot{}
	h := NewChatHandler(bot, testSender(bot), &fakeChat{reply: &entity.Reply{Kind: entity.ReplyAnswer, Text: "  "}}, keyboard.NewBuilder(), nil)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{"send:thinking...", "edit[1]:" + render.MsgEmptyReply}, bot.texts())

	bot = &fakeBot{}
	ah := NewAgentHandler(bot, testSender(bot), &fakeAgent{reply: &entity.AgentReply{ThreadID: "thread_1"}}, 0)

	require.NoError(t, ah.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{"send:thinking...", "edit[1]:" + render.MsgEmptyReply}, bot.texts())
}

func TestChatHandler_ErrorMessage(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChat{err: fmt.Errorf("%w: model unavailable", entity.ErrUpstream)}
	h := NewChatHandler(bot, testSender(bot), uc, keyboard.NewBuilder(), nil)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{
		"send:thinking...",
		"send:Error: upstream error: model unavailable",
	}, bot.texts())
	assert.Equal(t, 1, bot.deleted())
}

func TestChatHandler_ImplicitStart(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChat{missing: true, reply: &entity.Reply{Text: "ok"}}
	h := NewChatHandler(bot, testSender(bot), uc, keyboard.NewBuilder(), nil)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{"tg:7"}, uc.started)
	assert.Contains(t, bot.texts(), "edit[1]:ok")
}

func TestChatHandler_SendTranscript(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChat{}
	h := NewChatHandler(bot, testSender(bot), uc, keyboard.NewBuilder(), nil)
	ctx := context.Background()

	require.NoError(t, h.SendTranscript(ctx, &Message{ChatID: 7}))
	assert.Equal(t, []string{"send:" + render.MsgNoTranscript}, bot.texts())

	uc.transcript = &entity.Transcript{Query: "q", Response: "a"}
	require.NoError(t, h.SendTranscript(ctx, &Message{ChatID: 7}))
	assert.Equal(t, "document", bot.texts()[1])

	doc := bot.sent[1].(tgbotapi.DocumentConfig)
	file := doc.File.(tgbotapi.FileBytes)
	assert.Equal(t, "transcript.md", file.Name)
	assert.True(t, strings.HasPrefix(string(file.Bytes), "# Chat transcript"))
}

func TestAgentHandler_StreamsIntoPlaceholder(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeAgent{
		deltas: []string{"Hel", "lo"},
		reply:  &entity.AgentReply{ThreadID: "thread_1", Text: "Hello"},
	}
	h := NewAgentHandler(bot, testSender(bot), uc, 0)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{
		"send:thinking...",
		"edit[1]:Hel",
		"edit[1]:Hello",
		"edit[1]:Hello",
	}, bot.texts())
}

func TestAgentHandler_ThrottlesEdits(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeAgent{
		deltas: []string{"a", "b", "c", "d"},
		reply:  &entity.AgentReply{Text: "abcd"},
	}
	h := NewAgentHandler(bot, testSender(bot), uc, time.Hour)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{
		"send:thinking...",
		"edit[1]:a",
		"edit[1]:abcd",
	}, bot.texts())
}

func TestAgentHandler_RunFailed(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeAgent{
		deltas: []string{"partial"},
		err:    &entity.RunFailedError{Code: "server_error", Message: "agent crashed"},
	}
	h := NewAgentHandler(bot, testSender(bot), uc, time.Hour)

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 7, Text: "hi"}))
	assert.Equal(t, []string{
		"send:thinking...",
		"edit[1]:partial",
		"send:Error: server_error: agent crashed",
	}, bot.texts())
	assert.Zero(t, bot.deleted())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, render.ErrNoSession, ClassifyError(entity.ErrSessionNotFound).UserMessage)
	assert.Equal(t, SeverityError, ClassifyError(errors.New("boom")).Severity)
	assert.Equal(t, render.ErrGeneric, ClassifyError(nil).UserMessage)
}
