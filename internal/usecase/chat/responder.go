package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Responder answers a query grounded in the retrieved documents.
type Responder struct {
	completer   Completer
	transcripts TranscriptStore
}

func NewResponder(completer Completer, transcripts TranscriptStore) *Responder {
	return &Responder{
		completer:   completer,
		transcripts: transcripts,
	}
}

// Respond never returns a nil reply. Failures come back as a ReplyError with Err set.
func (r *Responder) Respond(ctx context.Context, query string, docs entity.RetrievalResult) *entity.Reply {
	if docs == nil {
		docs = entity.RetrievalResult{}
	}

	reply := &entity.Reply{
		Query:     query,
		Documents: docs,
	}

	serialized, err := serializeDocuments(docs)
	if err != nil {
		reply.Kind = entity.ReplyError
		reply.Err = fmt.Errorf("%w: serialize documents: %v", entity.ErrData, err)
		return reply
	}

	text, err := r.completer.Complete(ctx, &entity.CompletionRequest{
		SystemPrompt: strings.ReplaceAll(systemRetrieval, documentPlaceholder, serialized),
		UserPrompt:   query,
		Temperature:  1,
		TopP:         1,
		TextResponse: true,
	})
	if err != nil {
		ctxzap.Error(ctx, "grounded response failed", zap.Error(err))
		reply.Kind = entity.ReplyError
		reply.Err = fmt.Errorf("generate response: %w", err)
		return reply
	}

	reply.Text = text
	reply.Kind = classify(text)

	if err := r.transcripts.Write(ctx, reply.Transcript()); err != nil {
		ctxzap.Warn(ctx, "failed to persist transcript", zap.Error(err))
	}

	ctxzap.Info(ctx, "grounded response generated",
		zap.String("kind", string(reply.Kind)),
		zap.Int("documents", len(docs)),
	)

	return reply
}

func classify(text string) entity.ReplyKind {
	if strings.Trim(text, " \t\n\"“”") == entity.RefusalMessage {
		return entity.ReplyRefusal
	}
	return entity.ReplyAnswer
}

func serializeDocuments(docs entity.RetrievalResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(docs); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
