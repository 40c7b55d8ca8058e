package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/telegram/handlers"
	"github.com/futig/docchat/internal/telegram/keyboard"
	"github.com/futig/docchat/internal/telegram/middleware"
	"github.com/futig/docchat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// API is the subset of *tgbotapi.BotAPI the bot needs
type API interface {
	handlers.BotAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// transcriptSender is implemented by handlers that can export transcripts
type transcriptSender interface {
	SendTranscript(ctx context.Context, msg *handlers.Message) error
}

// Bot represents the Telegram bot
type Bot struct {
	api         API
	cfg         *config.TelegramConfig
	mode        entity.ChatMode
	handler     handlers.Handler
	sender      *handlers.MessageSender
	starters    []entity.Starter
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a bot that routes every conversation to handler
func New(
	api API,
	cfg *config.TelegramConfig,
	mode entity.ChatMode,
	handler handlers.Handler,
	sender *handlers.MessageSender,
	starters []entity.Starter,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:         api,
		cfg:         cfg,
		mode:        mode,
		handler:     handler,
		sender:      sender,
		starters:    starters,
		logger:      logger,
		loggingMW:   middleware.NewLoggingMiddleware(logger),
		recoveryMW:  middleware.NewRecoveryMiddleware(logger, api),
		rateLimitMW: middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, api),
		stopChan:    make(chan struct{}),
	}
}

// Start registers the command menu and starts polling for updates
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot", zap.String("mode", string(b.mode)))

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(b.commands()...)); err != nil {
		b.logger.Warn("failed to register bot commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
		b.rateLimitMW.Close()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) commands() []tgbotapi.BotCommand {
	cmds := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start a new chat"},
		{Command: "help", Description: "Show help"},
	}
	if _, ok := b.handler.(transcriptSender); ok {
		cmds = append(cmds, tgbotapi.BotCommand{Command: "transcript", Description: "Download the last answer"})
	}
	return cmds
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs rate limiting, logging and recovery around the handler
func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// Handlers outlive the polling loop during shutdown
	ctx = logger.Detach(ctx)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if message.Text == "" {
		return
	}

	b.dispatch(ctx, message.Chat.ID, b.handler.Handle, newMessage(message, message.Text))
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("chat_id", message.Chat.ID),
	)

	msg := newMessage(message, message.CommandArguments())

	switch command {
	case "start":
		b.dispatch(ctx, message.Chat.ID, b.handler.Start, msg)
	case "help":
		b.reply(ctx, message.Chat.ID, render.MsgHelp)
	case "transcript":
		ts, ok := b.handler.(transcriptSender)
		if !ok {
			b.reply(ctx, message.Chat.ID, render.MsgNoTranscriptAgent)
			return
		}
		b.dispatch(ctx, message.Chat.ID, ts.SendTranscript, msg)
	default:
		b.reply(ctx, message.Chat.ID, render.ErrUnknownCommand)
	}
}

// handleCallbackQuery treats a starter button press as if the user typed
// the starter message
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		b.answerCallback(ctx, query.ID, "")
		return
	}
	chatID := query.Message.Chat.ID

	cb, err := keyboard.ParseCallback(query.Data)
	var starter entity.Starter
	if err == nil {
		starter, err = keyboard.StarterFromCallback(cb, b.starters)
	}
	if err != nil {
		ctxzap.Warn(ctx, "invalid callback data",
			zap.Error(err),
			zap.String("data", query.Data),
		)
		b.answerCallback(ctx, query.ID, render.ErrBadCallback)
		return
	}

	// Answer right away so Telegram stops the button spinner
	b.answerCallback(ctx, query.ID, "")

	if _, err := b.sender.Send(ctx, chatID, starter.Message, nil); err != nil {
		ctxzap.Warn(ctx, "failed to echo starter message", zap.Error(err))
	}

	b.dispatch(ctx, chatID, b.handler.Handle, &handlers.Message{
		ChatID:    chatID,
		UserID:    query.From.ID,
		MessageID: query.Message.MessageID,
		Text:      starter.Message,
	})
}

func (b *Bot) dispatch(
	ctx context.Context,
	chatID int64,
	fn func(context.Context, *handlers.Message) error,
	msg *handlers.Message,
) {
	err := fn(ctx, msg)
	if err == nil {
		return
	}

	herr := handlers.ClassifyError(err)
	if herr.Severity == handlers.SeverityError {
		ctxzap.Error(ctx, "handler error", zap.Error(err), zap.Int64("chat_id", chatID))
	} else {
		ctxzap.Warn(ctx, "handler error", zap.Error(err), zap.Int64("chat_id", chatID))
	}

	if errors.Is(err, context.Canceled) {
		return
	}
	b.reply(ctx, chatID, herr.UserMessage)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.sender.Send(ctx, chatID, text, nil); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

func (b *Bot) answerCallback(ctx context.Context, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		ctxzap.Warn(ctx, "failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}

func newMessage(m *tgbotapi.Message, text string) *handlers.Message {
	msg := &handlers.Message{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      text,
	}
	if m.From != nil {
		msg.UserID = m.From.ID
	}
	return msg
}
