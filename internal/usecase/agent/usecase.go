package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase proxies chat turns to a hosted agent, one remote thread per session.
type Usecase struct {
	sessions  SessionManager
	connector Connector
	logger    *zap.Logger
}

func NewUsecase(sessions SessionManager, connector Connector, logger *zap.Logger) *Usecase {
	return &Usecase{
		sessions:  sessions,
		connector: connector,
		logger:    logger,
	}
}

// StartChat makes sure the session exists and owns a remote thread.
// An existing thread is reused.
func (uc *Usecase) StartChat(ctx context.Context, sessionID string) (*entity.Session, error) {
	ctx = logger.WithSession(ctx, sessionID, "start_agent_chat")

	unlock := uc.sessions.Lock(sessionID)
	defer unlock()

	s, err := uc.sessions.GetOrCreate(ctx, sessionID, entity.ChatModeAgent)
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}

	if err := uc.ensureThread(ctx, s); err != nil {
		return nil, err
	}

	return s, nil
}

// HandleMessage posts text to the session thread, streams the run through onDelta
// and returns the last agent message. The thread is kept whatever the outcome.
func (uc *Usecase) HandleMessage(
	ctx context.Context,
	sessionID, text string,
	onDelta func(delta string) error,
) (*entity.AgentReply, error) {
	ctx = logger.WithSession(ctx, sessionID, "handle_agent_message")

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is empty", entity.ErrValidation)
	}
	if onDelta == nil {
		onDelta = func(string) error { return nil }
	}

	unlock := uc.sessions.Lock(sessionID)
	defer unlock()

	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := uc.ensureThread(ctx, s); err != nil {
		return nil, err
	}

	ctx = logger.AddFields(ctx, zap.String("thread_id", s.ThreadID))

	if err := uc.connector.PostMessage(ctx, s.ThreadID, text); err != nil {
		return nil, err
	}

	if err := uc.connector.StreamRun(ctx, s.ThreadID, onDelta); err != nil {
		ctxzap.Error(ctx, "agent run stream failed", zap.Error(err))
		return nil, err
	}

	final, ok, err := uc.connector.LastAssistantMessage(ctx, s.ThreadID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrNoResponse
	}

	if err := uc.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	return &entity.AgentReply{
		ThreadID: s.ThreadID,
		Text:     final,
	}, nil
}

func (uc *Usecase) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	return uc.sessions.Get(ctx, sessionID)
}

func (uc *Usecase) ensureThread(ctx context.Context, s *entity.Session) error {
	if s.ThreadID != "" {
		return nil
	}

	threadID, err := uc.connector.CreateThread(ctx)
	if err != nil {
		return fmt.Errorf("create agent thread: %w", err)
	}

	s.ThreadID = threadID
	if err := uc.sessions.Save(ctx, s); err != nil {
		return err
	}

	ctxzap.Info(ctx, "agent thread attached", zap.String("thread_id", threadID))

	return nil
}
