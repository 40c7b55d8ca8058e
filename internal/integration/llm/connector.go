package llm

import (
	"context"
	"fmt"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/integration/common"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// Connector talks to an Azure OpenAI resource for embeddings and chat completions.
type Connector struct {
	client openai.Client
	config config.OpenAIConfig
	logger *zap.Logger
}

func NewConnector(
	cfg config.OpenAIConfig,
	logger *zap.Logger,
	opts ...option.RequestOption,
) *Connector {
	base := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(common.NewHTTPClient(cfg.HTTPClientConfig)),
		// failed calls surface to the user, nothing is retried
		option.WithMaxRetries(0),
	}

	return &Connector{
		client: openai.NewClient(append(base, opts...)...),
		config: cfg,
		logger: logger,
	}
}

// Embed returns the embedding of text.
func (c *Connector) Embed(ctx context.Context, text string) ([]float64, error) {
	ctxzap.Debug(ctx, "creating embedding", zap.String("model", c.config.EmbeddingModel))

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create embedding: %v", entity.ErrUpstream, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: create embedding: empty response", entity.ErrUpstream)
	}

	ctxzap.Debug(ctx, "embedding created", zap.Int("dimensions", len(resp.Data[0].Embedding)))

	return resp.Data[0].Embedding, nil
}

// Complete runs one chat completion and returns the text of the first choice.
func (c *Connector) Complete(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.config.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
	}
	if req.TextResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfText: &shared.ResponseFormatTextParam{},
		}
	}

	ctxzap.Debug(ctx, "requesting chat completion", zap.String("model", c.config.ChatModel))

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", entity.ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion: no choices returned", entity.ErrUpstream)
	}

	ctxzap.Debug(ctx, "chat completion received",
		zap.String("finish_reason", resp.Choices[0].FinishReason),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
