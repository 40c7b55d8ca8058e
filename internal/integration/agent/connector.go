// Package agent connects to a hosted agent service exposing the Assistants
// threads/messages/runs API (Azure AI Foundry agents, OpenAI assistants).
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/integration/common"
	pkgHTTP "github.com/futig/docchat/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	eventMessageDelta = "thread.message.delta"
	eventRunFailed    = "thread.run.failed"
	eventError        = "error"

	lastMessageLookup = 20
)

type Connector struct {
	client openai.Client
	config config.AgentConfig
	logger *zap.Logger
}

// NewConnector builds an agent client. With an API key configured requests carry an
// api-key header; otherwise every request is authorised with a bearer token from tokens.
func NewConnector(
	cfg config.AgentConfig,
	tokens pkgHTTP.TokenSource,
	logger *zap.Logger,
	opts ...option.RequestOption,
) *Connector {
	var httpOpts []pkgHTTP.HttpOpts
	if cfg.APIKey == "" && tokens != nil {
		httpOpts = append(httpOpts, pkgHTTP.WithBearerToken(tokens))
	}

	base := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/") + "/"),
		option.WithQueryAdd("api-version", cfg.APIVersion),
		option.WithHTTPClient(common.NewHTTPClient(cfg.HTTP, httpOpts...)),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		base = append(base, option.WithHeader("api-key", cfg.APIKey))
	}

	return &Connector{
		client: openai.NewClient(append(base, opts...)...),
		config: cfg,
		logger: logger,
	}
}

// CreateThread opens a new remote conversation thread.
func (c *Connector) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("%w: create thread: %v", entity.ErrUpstream, err)
	}

	ctxzap.Info(ctx, "agent thread created", zap.String("thread_id", thread.ID))

	return thread.ID, nil
}

// PostMessage appends a user message to the thread.
func (c *Connector) PostMessage(ctx context.Context, threadID, text string) error {
	if threadID == "" {
		return entity.ErrNoThread
	}

	_, err := c.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: post message: %v", entity.ErrUpstream, err)
	}

	return nil
}

// StreamRun starts a run of the configured agent on the thread and calls onDelta
// with every text fragment. A failed run yields *entity.RunFailedError, an error
// event yields *entity.StreamError.
func (c *Connector) StreamRun(ctx context.Context, threadID string, onDelta func(text string) error) error {
	if threadID == "" {
		return entity.ErrNoThread
	}

	stream := c.client.Beta.Threads.Runs.NewStreaming(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: c.config.AgentID,
	})
	defer stream.Close()

	for stream.Next() {
		ev := stream.Current()

		switch ev.Event {
		case eventMessageDelta:
			for _, part := range ev.AsThreadMessageDelta().Data.Delta.Content {
				if part.Type != "text" || part.Text.Value == "" {
					continue
				}
				if err := onDelta(part.Text.Value); err != nil {
					return err
				}
			}

		case eventRunFailed:
			run := ev.AsThreadRunFailed().Data
			ctxzap.Error(ctx, "agent run failed",
				zap.String("run_id", run.ID),
				zap.String("code", run.LastError.Code),
				zap.String("message", run.LastError.Message),
			)
			return &entity.RunFailedError{
				Code:    run.LastError.Code,
				Message: run.LastError.Message,
			}

		case eventError:
			data := ev.AsErrorEvent().Data
			return &entity.StreamError{Code: data.Code, Message: data.Message}

		case "":
			// error frames are decoded without their event name
			return decodeStreamError(ev.RawJSON())
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("%w: stream run: %v", entity.ErrUpstream, err)
	}

	return nil
}

// LastAssistantMessage returns the text of the most recent agent-authored message.
func (c *Connector) LastAssistantMessage(ctx context.Context, threadID string) (string, bool, error) {
	if threadID == "" {
		return "", false, entity.ErrNoThread
	}

	page, err := c.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(lastMessageLookup),
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: list messages: %v", entity.ErrUpstream, err)
	}

	for _, msg := range page.Data {
		if msg.Role != openai.MessageRoleAssistant {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" {
				return part.Text.Value, true, nil
			}
		}
	}

	return "", false, nil
}

func decodeStreamError(raw string) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Message == "" {
		return &entity.StreamError{Message: raw}
	}
	return &entity.StreamError{Code: payload.Code, Message: payload.Message}
}

// CredentialTokenSource adapts an Azure credential to a bearer TokenSource.
type CredentialTokenSource struct {
	credential azcore.TokenCredential
	scope      string
}

func NewCredentialTokenSource(credential azcore.TokenCredential, scope string) *CredentialTokenSource {
	return &CredentialTokenSource{
		credential: credential,
		scope:      scope,
	}
}

func (s *CredentialTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := s.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{s.scope}})
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}
