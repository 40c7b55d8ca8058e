package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AgentHandler proxies messages to the hosted agent and streams the answer
// into one message
type AgentHandler struct {
	bot         BotAPI
	sender      *MessageSender
	usecase     AgentUsecase
	updateEvery time.Duration
}

func NewAgentHandler(bot BotAPI, sender *MessageSender, usecase AgentUsecase, updateEvery time.Duration) *AgentHandler {
	return &AgentHandler{
		bot:         bot,
		sender:      sender,
		usecase:     usecase,
		updateEvery: updateEvery,
	}
}

// Start attaches a remote thread to the chat unless it already has one
func (h *AgentHandler) Start(ctx context.Context, msg *Message) error {
	sessionID := SessionKey(msg.ChatID)
	ctx = logger.WithSession(ctx, sessionID, "tg_start_agent")

	if _, err := h.usecase.StartChat(ctx, sessionID); err != nil {
		return err
	}

	_, err := h.sender.Send(ctx, msg.ChatID, render.MsgAgentWelcome, nil)
	return err
}

func (h *AgentHandler) Handle(ctx context.Context, msg *Message) error {
	sessionID := SessionKey(msg.ChatID)
	ctx = logger.WithSession(ctx, sessionID, "tg_agent_message")

	placeholderID, err := h.sender.Send(ctx, msg.ChatID, entity.ThinkingMessage, nil)
	if err != nil {
		return err
	}

	stream := newStreamEditor(h.sender, msg.ChatID, placeholderID, h.updateEvery)

	typing := StartTyping(ctx, h.bot, msg.ChatID)
	reply, err := h.handleMessage(ctx, sessionID, msg.Text, stream.Append)
	typing.Stop()

	if err != nil {
		ctxzap.Warn(ctx, "agent turn failed", zap.Error(err))
		if stream.Empty() {
			h.sender.Delete(ctx, msg.ChatID, placeholderID)
		} else {
			stream.Flush(ctx)
		}
		_, sendErr := h.sender.Send(ctx, msg.ChatID, render.TurnError(err), nil)
		return sendErr
	}

	return h.sender.Edit(ctx, msg.ChatID, placeholderID, render.ReplyText(reply.Text))
}

func (h *AgentHandler) handleMessage(
	ctx context.Context,
	sessionID, text string,
	onDelta func(ctx context.Context, delta string),
) (*entity.AgentReply, error) {
	deltas := func(d string) error {
		onDelta(ctx, d)
		return nil
	}

	reply, err := h.usecase.HandleMessage(ctx, sessionID, text, deltas)
	if !errors.Is(err, entity.ErrSessionNotFound) {
		return reply, err
	}

	if _, err := h.usecase.StartChat(ctx, sessionID); err != nil {
		return nil, err
	}
	return h.usecase.HandleMessage(ctx, sessionID, text, deltas)
}

// streamEditor accumulates deltas and edits the placeholder at most once per
// interval. Edit failures do not stop the run.
type streamEditor struct {
	sender    *MessageSender
	chatID    int64
	messageID int
	every     time.Duration

	buf      strings.Builder
	lastEdit time.Time
	shown    string
}

func newStreamEditor(sender *MessageSender, chatID int64, messageID int, every time.Duration) *streamEditor {
	return &streamEditor{
		sender:    sender,
		chatID:    chatID,
		messageID: messageID,
		every:     every,
	}
}

func (e *streamEditor) Append(ctx context.Context, delta string) {
	e.buf.WriteString(delta)
	if time.Since(e.lastEdit) < e.every {
		return
	}
	e.Flush(ctx)
}

func (e *streamEditor) Flush(ctx context.Context) {
	text := e.buf.String()
	if strings.TrimSpace(text) == "" || text == e.shown {
		return
	}

	if err := e.sender.TryEdit(e.chatID, e.messageID, text); err != nil {
		ctxzap.Debug(ctx, "stream update skipped", zap.Error(err))
		return
	}
	e.shown = text
	e.lastEdit = time.Now()
}

func (e *streamEditor) Empty() bool {
	return strings.TrimSpace(e.buf.String()) == ""
}
