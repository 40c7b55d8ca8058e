// Package session keeps per-conversation chat state.
package session

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

// Storage persists sessions by id. Get returns entity.ErrSessionNotFound for unknown ids.
type Storage interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	Set(ctx context.Context, s *entity.Session) error
	Delete(ctx context.Context, id string) error
}
