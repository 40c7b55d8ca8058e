package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Rewriter turns the chat history into one standalone query.
type Rewriter struct {
	completer Completer
}

func NewRewriter(completer Completer) *Rewriter {
	return &Rewriter{completer: completer}
}

// Rewrite joins history oldest first and asks the model for the last query with full
// context. The model output is returned verbatim.
func (r *Rewriter) Rewrite(ctx context.Context, history []string) (string, error) {
	userPrompt := strings.ReplaceAll(userRewrite, historyPlaceholder, strings.Join(history, "\n\n"))

	query, err := r.completer.Complete(ctx, &entity.CompletionRequest{
		SystemPrompt: systemRewrite,
		UserPrompt:   userPrompt,
		Temperature:  1,
		TopP:         1,
	})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	ctxzap.Debug(ctx, "query rewritten", zap.Int("history_len", len(history)), zap.String("query", query))

	return query, nil
}
