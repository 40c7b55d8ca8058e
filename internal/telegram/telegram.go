package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/telegram/bot"
	"github.com/futig/docchat/internal/telegram/handlers"
	"github.com/futig/docchat/internal/telegram/keyboard"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// Deps are the use cases behind the bot. Only the one matching the mode is required.
type Deps struct {
	Chat     handlers.ChatUsecase
	Agent    handlers.AgentUsecase
	Starters []entity.Starter
}

// NewBot authorizes against the Bot API and wires the handler for mode
func NewBot(
	cfg *config.TelegramConfig,
	mode entity.ChatMode,
	deps Deps,
	updateEvery time.Duration,
	logger *zap.Logger,
) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return newBot(api, cfg, mode, deps, updateEvery, logger)
}

func newBot(
	api bot.API,
	cfg *config.TelegramConfig,
	mode entity.ChatMode,
	deps Deps,
	updateEvery time.Duration,
	logger *zap.Logger,
) (*bot.Bot, error) {
	sender := handlers.NewMessageSender(api, cfg.SendRetry)

	var handler handlers.Handler
	switch mode {
	case entity.ChatModeRAG:
		if deps.Chat == nil {
			return nil, fmt.Errorf("chat usecase is required in %s mode", mode)
		}
		handler = handlers.NewChatHandler(api, sender, deps.Chat, keyboard.NewBuilder(), deps.Starters)
	case entity.ChatModeAgent:
		if deps.Agent == nil {
			return nil, fmt.Errorf("agent usecase is required in %s mode", mode)
		}
		handler = handlers.NewAgentHandler(api, sender, deps.Agent, updateEvery)
	default:
		return nil, fmt.Errorf("%w: chat mode %q", entity.ErrInvalidParameter, mode)
	}

	logger.Info("telegram bot initialized", zap.String("mode", string(mode)))

	return bot.New(api, cfg, mode, handler, sender, deps.Starters, logger), nil
}
