package handlers

import (
	"context"
	"errors"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/formatter"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/telegram/keyboard"
	"github.com/futig/docchat/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChatHandler serves RAG chat turns
type ChatHandler struct {
	bot      BotAPI
	sender   *MessageSender
	usecase  ChatUsecase
	keyboard *keyboard.Builder
	starters []entity.Starter
}

func NewChatHandler(
	bot BotAPI,
	sender *MessageSender,
	usecase ChatUsecase,
	kb *keyboard.Builder,
	starters []entity.Starter,
) *ChatHandler {
	return &ChatHandler{
		bot:      bot,
		sender:   sender,
		usecase:  usecase,
		keyboard: kb,
		starters: starters,
	}
}

// Start resets the history and offers the starter prompts
func (h *ChatHandler) Start(ctx context.Context, msg *Message) error {
	sessionID := SessionKey(msg.ChatID)
	ctx = logger.WithSession(ctx, sessionID, "tg_start_chat")

	if _, err := h.usecase.StartChat(ctx, sessionID); err != nil {
		return err
	}

	var markup any
	if kb := h.keyboard.StartersKeyboard(h.starters); kb != nil {
		markup = kb
	}

	_, err := h.sender.Send(ctx, msg.ChatID, render.MsgWelcome, markup)
	return err
}

// Handle runs one turn behind a "thinking..." placeholder that is replaced
// by the answer. A failed turn is reported as "Error: ..." and the
// placeholder removed.
func (h *ChatHandler) Handle(ctx context.Context, msg *Message) error {
	sessionID := SessionKey(msg.ChatID)
	ctx = logger.WithSession(ctx, sessionID, "tg_chat_message")

	placeholderID, err := h.sender.Send(ctx, msg.ChatID, entity.ThinkingMessage, nil)
	if err != nil {
		return err
	}

	typing := StartTyping(ctx, h.bot, msg.ChatID)
	reply, err := h.handleMessage(ctx, sessionID, msg.Text)
	typing.Stop()

	if err != nil {
		ctxzap.Warn(ctx, "chat turn failed", zap.Error(err))
		h.sender.Delete(ctx, msg.ChatID, placeholderID)
		_, sendErr := h.sender.Send(ctx, msg.ChatID, render.TurnError(err), nil)
		return sendErr
	}

	return h.sender.Edit(ctx, msg.ChatID, placeholderID, render.ReplyText(reply.Text))
}

// handleMessage starts the chat implicitly when the session has expired or
// the user never pressed /start
func (h *ChatHandler) handleMessage(ctx context.Context, sessionID, text string) (*entity.Reply, error) {
	reply, err := h.usecase.HandleMessage(ctx, sessionID, text)
	if !errors.Is(err, entity.ErrSessionNotFound) {
		return reply, err
	}

	if _, err := h.usecase.StartChat(ctx, sessionID); err != nil {
		return nil, err
	}
	return h.usecase.HandleMessage(ctx, sessionID, text)
}

// SendTranscript uploads the last answer of the chat as a Markdown document
func (h *ChatHandler) SendTranscript(ctx context.Context, msg *Message) error {
	sessionID := SessionKey(msg.ChatID)
	ctx = logger.WithSession(ctx, sessionID, "tg_transcript")

	transcript, err := h.usecase.Transcript(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrNoTranscript) || errors.Is(err, entity.ErrSessionNotFound) {
			_, sendErr := h.sender.Send(ctx, msg.ChatID, render.MsgNoTranscript, nil)
			return sendErr
		}
		return err
	}

	md := formatter.NewMarkdownFormatter()
	data, err := md.Format(transcript)
	if err != nil {
		return err
	}

	return h.sender.SendDocument(ctx, msg.ChatID, "transcript"+md.FileExtension(), data)
}
