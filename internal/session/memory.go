package session

import (
	"context"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/patrickmn/go-cache"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps sessions in process memory and expires idle ones after ttl.
type MemoryStorage struct {
	cache *cache.Cache
}

func NewMemoryStorage(ttl, cleanupInterval time.Duration) *MemoryStorage {
	return &MemoryStorage{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (m *MemoryStorage) Get(_ context.Context, id string) (*entity.Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	s := v.(entity.Session)
	return clone(&s), nil
}

// Set stores a copy of s, refreshing its expiration.
func (m *MemoryStorage) Set(_ context.Context, s *entity.Session) error {
	m.cache.SetDefault(s.ID, *clone(s))
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func clone(s *entity.Session) *entity.Session {
	c := *s
	c.History = append([]string(nil), s.History...)
	if s.Transcript != nil {
		t := *s.Transcript
		if s.Transcript.Documents != nil {
			t.Documents = make(entity.RetrievalResult, len(s.Transcript.Documents))
			for k, v := range s.Transcript.Documents {
				t.Documents[k] = v
			}
		}
		c.Transcript = &t
	}
	return &c
}
