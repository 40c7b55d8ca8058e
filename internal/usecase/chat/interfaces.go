package chat

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

type Completer interface {
	Complete(ctx context.Context, req *entity.CompletionRequest) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string) (entity.RetrievalResult, error)
	Search(ctx context.Context, query string) (entity.RetrievalResult, []entity.Match, error)
}

type TranscriptStore interface {
	Write(ctx context.Context, t *entity.Transcript) error
	Read(ctx context.Context) (*entity.Transcript, error)
}

type SessionManager interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, s *entity.Session) error
	Reset(ctx context.Context, id string, mode entity.ChatMode) (*entity.Session, error)
	Lock(id string) (unlock func())
}
