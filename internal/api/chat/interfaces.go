package chat

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

type ChatUsecase interface {
	StartChat(ctx context.Context, sessionID string) (*entity.Session, error)
	HandleMessage(ctx context.Context, sessionID, text string) (*entity.Reply, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
	Transcript(ctx context.Context, sessionID string) (*entity.Transcript, error)
	Search(ctx context.Context, query string) (entity.RetrievalResult, []entity.Match, error)
}
