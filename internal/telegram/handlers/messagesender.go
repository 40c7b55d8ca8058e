package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/avast/retry-go/v4"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/futig/docchat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const errNotModified = "message is not modified"

// MessageSender delivers bot messages, retrying transient Telegram failures
type MessageSender struct {
	bot   BotAPI
	retry pkgRetry.RetryConfig
}

// NewMessageSender creates a new MessageSender. Zero attempts falls back to
// the default policy, retry-go would otherwise retry forever.
func NewMessageSender(bot BotAPI, retryCfg pkgRetry.RetryConfig) *MessageSender {
	if retryCfg.Attempts == 0 {
		retryCfg = *pkgRetry.DefaultRetryConfig()
	}

	return &MessageSender{
		bot:   bot,
		retry: retryCfg,
	}
}

// Send sends a text message and returns its id
func (s *MessageSender) Send(ctx context.Context, chatID int64, text string, markup any) (int, error) {
	msg := tgbotapi.NewMessage(chatID, render.Truncate(text))
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	var sent tgbotapi.Message
	err := s.do(ctx, "send message", chatID, func() error {
		var err error
		sent, err = s.bot.Send(msg)
		return err
	})
	if err != nil {
		return 0, err
	}

	return sent.MessageID, nil
}

// Edit replaces the text of a previously sent message
func (s *MessageSender) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, render.Truncate(text))

	return s.do(ctx, "edit message", chatID, func() error {
		_, err := s.bot.Send(edit)
		if err != nil && strings.Contains(err.Error(), errNotModified) {
			return nil
		}
		return err
	})
}

// TryEdit is Edit without retries, for frequent intermediate updates
func (s *MessageSender) TryEdit(chatID int64, messageID int, text string) error {
	_, err := s.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, render.Truncate(text)))
	if err != nil && !strings.Contains(err.Error(), errNotModified) {
		return err
	}
	return nil
}

// Delete removes a message; failures are logged only
func (s *MessageSender) Delete(ctx context.Context, chatID int64, messageID int) {
	if _, err := s.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		ctxzap.Warn(ctx, "failed to delete message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
		)
	}
}

// SendDocument uploads data as a file
func (s *MessageSender) SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	})

	return s.do(ctx, "send document", chatID, func() error {
		_, err := s.bot.Send(doc)
		return err
	})
}

func (s *MessageSender) do(ctx context.Context, op string, chatID int64, fn func() error) error {
	opts := append(s.retry.ToRetryOptions(ctx),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "telegram request failed, retrying",
				zap.String("op", op),
				zap.Uint("attempt", n+1),
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}),
	)

	if err := retry.Do(fn, opts...); err != nil {
		ctxzap.Error(ctx, "telegram request failed",
			zap.String("op", op),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
