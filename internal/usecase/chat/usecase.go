package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase drives RAG chat turns: rewrite, retrieve, respond.
type Usecase struct {
	sessions     SessionManager
	rewriter     *Rewriter
	retriever    Retriever
	responder    *Responder
	transcripts  TranscriptStore
	historyLimit int
	logger       *zap.Logger
}

func NewUsecase(
	sessions SessionManager,
	completer Completer,
	retriever Retriever,
	transcripts TranscriptStore,
	historyLimit int,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		sessions:     sessions,
		rewriter:     NewRewriter(completer),
		retriever:    retriever,
		responder:    NewResponder(completer, transcripts),
		transcripts:  transcripts,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// StartChat resets the history of the session, creating it if needed.
func (uc *Usecase) StartChat(ctx context.Context, sessionID string) (*entity.Session, error) {
	ctx = logger.WithSession(ctx, sessionID, "start_chat")

	unlock := uc.sessions.Lock(sessionID)
	defer unlock()

	s, err := uc.sessions.Reset(ctx, sessionID, entity.ChatModeRAG)
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}

	ctxzap.Info(ctx, "chat started")

	return s, nil
}

// HandleMessage runs one turn. The message is kept in history even when the turn
// fails; history is trimmed to the limit only after a successful reply.
func (uc *Usecase) HandleMessage(ctx context.Context, sessionID, text string) (*entity.Reply, error) {
	ctx = logger.WithSession(ctx, sessionID, "handle_message")

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is empty", entity.ErrValidation)
	}

	unlock := uc.sessions.Lock(sessionID)
	defer unlock()

	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.History = append(s.History, text)
	if err := uc.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	reply, err := uc.Answer(ctx, s.History)
	if err != nil {
		ctxzap.Error(ctx, "chat turn failed", zap.Error(err), zap.Int("history_len", len(s.History)))
		return reply, err
	}

	if len(s.History) > uc.historyLimit {
		s.History = s.History[len(s.History)-uc.historyLimit:]
	}
	s.Transcript = reply.Transcript()

	if err := uc.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	return reply, nil
}

// Answer runs the pipeline over history without touching session state.
func (uc *Usecase) Answer(ctx context.Context, history []string) (*entity.Reply, error) {
	query, err := uc.rewriter.Rewrite(ctx, history)
	if err != nil {
		return nil, err
	}

	docs, err := uc.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve documents: %w", err)
	}

	reply := uc.responder.Respond(ctx, query, docs)
	if reply.Kind == entity.ReplyError {
		return reply, reply.Err
	}

	return reply, nil
}

// Search returns the documents and scores retrieval finds for query, without a model answer.
func (uc *Usecase) Search(ctx context.Context, query string) (entity.RetrievalResult, []entity.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, fmt.Errorf("%w: query is empty", entity.ErrValidation)
	}

	ctx = logger.WithAction(ctx, "search")

	docs, matches, err := uc.retriever.Search(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("search documents: %w", err)
	}
	return docs, matches, nil
}

func (uc *Usecase) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	return uc.sessions.Get(ctx, sessionID)
}

// Transcript returns the last grounded response of the session.
func (uc *Usecase) Transcript(ctx context.Context, sessionID string) (*entity.Transcript, error) {
	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Transcript == nil {
		return nil, entity.ErrNoTranscript
	}
	return s.Transcript, nil
}

// LatestTranscript reads the shared transcript file written by the most recent turn.
func (uc *Usecase) LatestTranscript(ctx context.Context) (*entity.Transcript, error) {
	return uc.transcripts.Read(ctx)
}
