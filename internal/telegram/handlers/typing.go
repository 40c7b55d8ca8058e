package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Telegram shows a chat action for five seconds
const typingInterval = 4 * time.Second

// TypingNotifier keeps the "typing" indicator on while a turn is processed
type TypingNotifier struct {
	bot    BotAPI
	chatID int64
	done   chan struct{}
	once   sync.Once
}

// StartTyping sends a typing action now and then every few seconds until Stop
// is called or ctx ends
func StartTyping(ctx context.Context, bot BotAPI, chatID int64) *TypingNotifier {
	t := &TypingNotifier{
		bot:    bot,
		chatID: chatID,
		done:   make(chan struct{}),
	}

	t.send(ctx)

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send(ctx)
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return t
}

func (t *TypingNotifier) send(ctx context.Context) {
	action := tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		ctxzap.Debug(ctx, "failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}

// Stop is safe to call more than once
func (t *TypingNotifier) Stop() {
	t.once.Do(func() { close(t.done) })
}
