package agent

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

type AgentUsecase interface {
	StartChat(ctx context.Context, sessionID string) (*entity.Session, error)
	HandleMessage(ctx context.Context, sessionID, text string, onDelta func(delta string) error) (*entity.AgentReply, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
}
