package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Manager loads and saves sessions and serialises turns within one session.
type Manager struct {
	storage Storage
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		now:     time.Now,
		locks:   make(map[string]*sessionLock),
	}
}

// Create stores a fresh session. An empty id gets a generated one.
func (m *Manager) Create(ctx context.Context, id string, mode entity.ChatMode) (*entity.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	now := m.now()
	s := &entity.Session{
		ID:        id,
		Mode:      mode,
		History:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.storage.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ctxzap.Debug(ctx, "session created", zap.String("session_id", id), zap.String("mode", string(mode)))

	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*entity.Session, error) {
	s, err := m.storage.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, nil
}

// GetOrCreate returns the stored session or creates it in the given mode.
func (m *Manager) GetOrCreate(ctx context.Context, id string, mode entity.ChatMode) (*entity.Session, error) {
	s, err := m.storage.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, entity.ErrSessionNotFound) {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return m.Create(ctx, id, mode)
}

func (m *Manager) Save(ctx context.Context, s *entity.Session) error {
	s.UpdatedAt = m.now()
	if err := m.storage.Set(ctx, s); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Reset clears history and transcript, keeping the agent thread.
func (m *Manager) Reset(ctx context.Context, id string, mode entity.ChatMode) (*entity.Session, error) {
	s, err := m.GetOrCreate(ctx, id, mode)
	if err != nil {
		return nil, err
	}

	s.Mode = mode
	s.History = []string{}
	s.Transcript = nil

	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Lock blocks until the caller holds the turn lock of session id.
func (m *Manager) Lock(id string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
