package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/futig/docchat/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type mockMessage struct {
	role string
	text string
}

// MockConnector keeps threads in memory and streams back an echo of the last
// user message word by word.
type MockConnector struct {
	mu      sync.Mutex
	threads map[string][]mockMessage
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		threads: make(map[string][]mockMessage),
		logger:  logger,
	}
}

func (m *MockConnector) CreateThread(ctx context.Context) (string, error) {
	id := "thread_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	m.mu.Lock()
	m.threads[id] = nil
	m.mu.Unlock()

	ctxzap.Info(ctx, "[MOCK] agent thread created", zap.String("thread_id", id))
	return id, nil
}

func (m *MockConnector) PostMessage(ctx context.Context, threadID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("%w: thread %s not found", entity.ErrUpstream, threadID)
	}
	m.threads[threadID] = append(msgs, mockMessage{role: "user", text: text})
	return nil
}

func (m *MockConnector) StreamRun(ctx context.Context, threadID string, onDelta func(text string) error) error {
	ctxzap.Info(ctx, "[MOCK] streaming agent run", zap.String("thread_id", threadID))

	m.mu.Lock()
	msgs, ok := m.threads[threadID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: thread %s not found", entity.ErrUpstream, threadID)
	}

	var last string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].role == "user" {
			last = msgs[i].text
			break
		}
	}

	reply := "Agent received: " + last
	words := strings.SplitAfter(reply, " ")
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(w); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.threads[threadID] = append(m.threads[threadID], mockMessage{role: "assistant", text: reply})
	m.mu.Unlock()

	return nil
}

func (m *MockConnector) LastAssistantMessage(ctx context.Context, threadID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.threads[threadID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].role == "assistant" {
			return msgs[i].text, true, nil
		}
	}
	return "", false, nil
}
