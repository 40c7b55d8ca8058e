package agent

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

type Connector interface {
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, text string) error
	StreamRun(ctx context.Context, threadID string, onDelta func(text string) error) error
	LastAssistantMessage(ctx context.Context, threadID string) (string, bool, error)
}

type SessionManager interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	GetOrCreate(ctx context.Context, id string, mode entity.ChatMode) (*entity.Session, error)
	Save(ctx context.Context, s *entity.Session) error
	Lock(id string) (unlock func())
}
