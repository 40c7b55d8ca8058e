package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR" envDefault:":8080"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"5m"`
	MaxMessageLen  int           `env:"MAX_MESSAGE_LENGTH" envDefault:"8000"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Which pipeline answers chat messages: rag or agent
	ChatMode string `env:"CHAT_MODE" envDefault:"rag"`

	// External service configurations
	OpenAICfg OpenAIConfig `envPrefix:"AOAI_"`
	AgentCfg  AgentConfig

	RAGCfg     RAGConfig     `envPrefix:"RAG_"`
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// Database configuration (postgres session store only)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Starter prompts (loaded from JSON file)
	Starters []entity.Starter

	// Environment (set from flag, not from env var)
	Environment string
}

// OpenAIConfig configures the Azure OpenAI deployment used for embeddings and completions.
type OpenAIConfig struct {
	HTTPClientConfig
	Endpoint       string `env:"ENDPOINT"`
	APIKey         string `env:"API_KEY"`
	APIVersion     string `env:"API_VERSION" envDefault:"2025-01-01-preview"`
	ChatModel      string `env:"CHAT_MODEL" envDefault:"gpt-4.1-mini"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

// AgentConfig configures the hosted agent project.
// Without an API key the agent client authenticates with the default Azure credential chain.
type AgentConfig struct {
	HTTP        HTTPClientConfig `envPrefix:"AGENT_"`
	Endpoint    string           `env:"PROJECT_ENDPOINT"`
	AgentID     string           `env:"AGENT_ID"`
	APIKey      string           `env:"AGENT_API_KEY"`
	APIVersion  string           `env:"AGENT_API_VERSION" envDefault:"v1"`
	TokenScope  string           `env:"AGENT_TOKEN_SCOPE" envDefault:"https://ai.azure.com/.default"`
	StreamEvery time.Duration    `env:"AGENT_STREAM_UPDATE_INTERVAL" envDefault:"1s"`
}

type RAGConfig struct {
	VectorDir           string  `env:"VECTOR_DIR" envDefault:"notebooks/3-output"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.5"`
	HistoryLimit        int     `env:"HISTORY_LIMIT" envDefault:"10"`
	TranscriptPath      string  `env:"TRANSCRIPT_PATH" envDefault:"chat_response.json"`
}

type SessionConfig struct {
	Store           string        `env:"STORE" envDefault:"memory"`
	TTL             time.Duration `env:"TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string               `env:"BOT_TOKEN"`
	UpdateTimeout      int                  `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int                  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int                  `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int                  `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	SendRetry          pkgRetry.RetryConfig `envPrefix:"SEND_RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"300s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"120s"`
}

// starters represents the structure of starters.json
type starters struct {
	Starters []entity.Starter `json:"starters"`
}

// LoadConfig reads the -env flag and loads the matching configuration.
func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load loads configuration for the named environment.
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Load starter prompts from JSON file
	if err := loadStarters(cfg, filepath.Join("internal", "config", "starters.json")); err != nil {
		return nil, fmt.Errorf("load starters: %w", err)
	}

	return cfg, nil
}

// Mode returns the configured chat mode.
func (c *Config) Mode() entity.ChatMode {
	return entity.ChatMode(c.ChatMode)
}

func validateConfig(cfg *Config) error {
	var errs []string

	switch cfg.Mode() {
	case entity.ChatModeRAG:
		if !cfg.EnableMocks && (cfg.OpenAICfg.Endpoint == "" || cfg.OpenAICfg.APIKey == "") {
			errs = append(errs, "AOAI_ENDPOINT and AOAI_API_KEY are required in rag mode")
		}
	case entity.ChatModeAgent:
		if !cfg.EnableMocks && (cfg.AgentCfg.Endpoint == "" || cfg.AgentCfg.AgentID == "") {
			errs = append(errs, "PROJECT_ENDPOINT and AGENT_ID are required in agent mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("CHAT_MODE must be rag or agent, got %q", cfg.ChatMode))
	}

	if cfg.RAGCfg.SimilarityThreshold < -1 || cfg.RAGCfg.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("RAG_SIMILARITY_THRESHOLD must be between -1 and 1, got %v", cfg.RAGCfg.SimilarityThreshold))
	}

	if cfg.RAGCfg.HistoryLimit < 1 || cfg.RAGCfg.HistoryLimit > 100 {
		errs = append(errs, fmt.Sprintf("RAG_HISTORY_LIMIT must be between 1 and 100, got %d", cfg.RAGCfg.HistoryLimit))
	}

	switch cfg.SessionCfg.Store {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres session store")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	default:
		errs = append(errs, fmt.Sprintf("SESSION_STORE must be memory or postgres, got %q", cfg.SessionCfg.Store))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ValidateTelegram checks the settings only the Telegram bot needs.
func (c *Config) ValidateTelegram() error {
	var errs []string

	if c.TelegramCfg.BotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.TelegramCfg.RateLimitPerMinute < 1 || c.TelegramCfg.RateLimitPerMinute > 60 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", c.TelegramCfg.RateLimitPerMinute))
	}

	if c.TelegramCfg.RateLimitBurst < 1 || c.TelegramCfg.RateLimitBurst > 20 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", c.TelegramCfg.RateLimitBurst))
	}

	if c.TelegramCfg.ShutdownTimeout < 1 || c.TelegramCfg.ShutdownTimeout > 300 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", c.TelegramCfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("telegram configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

var defaultStarters = []entity.Starter{
	{
		Label:   "Morning routine ideation",
		Message: "Can you help me create a personalized morning routine that would help increase my productivity throughout the day? Start by asking me about my current habits and what activities energize me in the morning.",
	},
	{
		Label:   "Spot the errors",
		Message: "How can I avoid common mistakes when proofreading my work?",
	},
	{
		Label:   "Get more done",
		Message: "How can I improve my productivity during remote work?",
	},
	{
		Label:   "Boost your knowledge",
		Message: "Help me learn about [topic]",
	},
}

func loadStarters(cfg *Config, path string) error {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.Starters = defaultStarters
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read starters file: %w", err)
	}

	if len(data) == 0 {
		return fmt.Errorf("starters file is empty: %s", path)
	}

	var startersData starters
	if err := json.Unmarshal(data, &startersData); err != nil {
		return fmt.Errorf("parse starters JSON: %w", err)
	}

	if len(startersData.Starters) == 0 {
		return fmt.Errorf("starters file contains no starters: %s", path)
	}

	for i, s := range startersData.Starters {
		if s.Label == "" || s.Message == "" {
			return fmt.Errorf("starter %d: label and message are required", i)
		}
	}

	cfg.Starters = startersData.Starters

	fmt.Printf("Loaded %d starters from %s\n", len(cfg.Starters), path)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
