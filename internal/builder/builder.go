package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docchat/internal/api"
	agentapi "github.com/futig/docchat/internal/api/agent"
	chatapi "github.com/futig/docchat/internal/api/chat"
	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/futig/docchat/internal/telegram"
	agentuc "github.com/futig/docchat/internal/usecase/agent"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("mode", cfg.ChatMode),
	)

	c, err := buildComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	v := validator.New(cfg.MaxMessageLen)

	var chatHandler *chatapi.Handler
	var agentHandler *agentapi.Handler
	if c.chat != nil {
		chatHandler = chatapi.NewHandler(c.chat, v, cfg.Starters)
	}
	if c.agent != nil {
		agentHandler = agentapi.NewHandler(c.agent, v)
	}
	logger.Info("API handlers initialized")

	router := api.SetupRouter(chatHandler, agentHandler, cfg.RequestTimeout, logger)
	logger.Info("HTTP router configured")

	// No write timeout: agent replies are streamed, the router bounds each request instead
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:     server,
		components: c,
		logger:     logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot. The returned
// cleanup releases the session store.
func BuildTelegramBot() (telegram.Bot, *zap.Logger, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.ValidateTelegram(); err != nil {
		return nil, nil, nil, err
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
		zap.String("mode", cfg.ChatMode),
	)

	c, err := buildComponents(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	deps := telegram.Deps{Starters: cfg.Starters}
	if c.chat != nil {
		deps.Chat = c.chat
	}
	if c.agent != nil {
		deps.Agent = c.agent
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, cfg.Mode(), deps, cfg.AgentCfg.StreamEvery, logger)
	if err != nil {
		c.close()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, c.close, nil
}

// CLI holds what the command line client needs
type CLI struct {
	Chat     *chatuc.Usecase
	Agent    *agentuc.Usecase
	Starters []entity.Starter
	Logger   *zap.Logger
	Close    func()
}

// BuildCLI wires the use cases for the command line client. Sessions always
// live in memory there.
func BuildCLI(environment, logLevel string) (*CLI, error) {
	cfg, err := config.Load(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.SessionCfg.Store = config.SessionStoreMemory

	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger, err := setupLogger(logLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	c, err := buildComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &CLI{
		Chat:     c.chat,
		Agent:    c.agent,
		Starters: cfg.Starters,
		Logger:   logger,
		Close: func() {
			c.close()
			_ = logger.Sync()
		},
	}, nil
}
