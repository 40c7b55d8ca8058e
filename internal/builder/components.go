package builder

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/integration/agent"
	"github.com/futig/docchat/internal/integration/llm"
	"github.com/futig/docchat/internal/retrieval"
	"github.com/futig/docchat/internal/session"
	"github.com/futig/docchat/internal/transcript"
	agentuc "github.com/futig/docchat/internal/usecase/agent"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
	"github.com/futig/docchat/internal/vectorstore"
	pkgHTTP "github.com/futig/docchat/pkg/http"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// components are the use cases shared by every entry point. Only the one
// matching the chat mode is set.
type components struct {
	chat  *chatuc.Usecase
	agent *agentuc.Usecase
	db    *pgxpool.Pool
	stop  context.CancelFunc
}

func (c *components) close() {
	c.stop()
	if c.db != nil {
		c.db.Close()
	}
}

// Embedder and completer are served by the same connector
type llmConnector interface {
	retrieval.Embedder
	chatuc.Completer
}

func buildComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	ctx, stop := context.WithCancel(context.Background())

	storage, db, err := setupSessionStorage(ctx, cfg, logger)
	if err != nil {
		stop()
		return nil, err
	}

	c := &components{db: db, stop: stop}
	sessions := session.NewManager(storage)

	switch cfg.Mode() {
	case entity.ChatModeRAG:
		var connector llmConnector
		if cfg.EnableMocks {
			logger.Info("Using mock connector for Azure OpenAI")
			connector = llm.NewMockConnector(logger)
		} else {
			connector = llm.NewConnector(cfg.OpenAICfg, logger)
		}

		retriever := retrieval.NewRetriever(
			connector,
			vectorstore.NewShardLoader(cfg.RAGCfg.VectorDir),
			cfg.RAGCfg.SimilarityThreshold,
		)
		c.chat = chatuc.NewUsecase(
			sessions,
			connector,
			retriever,
			transcript.NewFileWriter(cfg.RAGCfg.TranscriptPath),
			cfg.RAGCfg.HistoryLimit,
			logger,
		)

	case entity.ChatModeAgent:
		connector, err := newAgentConnector(cfg, logger)
		if err != nil {
			c.close()
			return nil, err
		}
		c.agent = agentuc.NewUsecase(sessions, connector, logger)
	}

	logger.Info("Use cases initialized", zap.String("mode", cfg.ChatMode))
	return c, nil
}

func newAgentConnector(cfg *config.Config, logger *zap.Logger) (agentuc.Connector, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock connector for the hosted agent")
		return agent.NewMockConnector(logger), nil
	}

	var tokens pkgHTTP.TokenSource
	if cfg.AgentCfg.APIKey == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create azure credential: %w", err)
		}
		tokens = agent.NewCredentialTokenSource(cred, cfg.AgentCfg.TokenScope)
		logger.Info("Agent requests authorized with the default Azure credential")
	}

	return agent.NewConnector(cfg.AgentCfg, tokens, logger), nil
}
