package builder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mockConfig(t *testing.T, mode entity.ChatMode) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		ChatMode:    string(mode),
		EnableMocks: true,
		RAGCfg: config.RAGConfig{
			VectorDir:           dir,
			SimilarityThreshold: 0.5,
			HistoryLimit:        10,
			TranscriptPath:      filepath.Join(t.TempDir(), "chat_response.json"),
		},
		SessionCfg: config.SessionConfig{
			Store:           config.SessionStoreMemory,
			TTL:             time.Hour,
			CleanupInterval: time.Minute,
		},
	}
}

func TestBuildComponents_RAGMode(t *testing.T) {
	c, err := buildComponents(mockConfig(t, entity.ChatModeRAG), zap.NewNop())
	require.NoError(t, err)
	defer c.close()

	assert.NotNil(t, c.chat)
	assert.Nil(t, c.agent)
	assert.Nil(t, c.db)
}

func TestBuildComponents_AgentModeWithMocks(t *testing.T) {
	c, err := buildComponents(mockConfig(t, entity.ChatModeAgent), zap.NewNop())
	require.NoError(t, err)
	defer c.close()

	require.NotNil(t, c.agent)
	assert.Nil(t, c.chat)

	ctx := context.Background()
	s, err := c.agent.StartChat(ctx, "cli:test")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ThreadID)

	var streamed string
	reply, err := c.agent.HandleMessage(ctx, "cli:test", "hello there", func(d string) error {
		streamed += d
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Agent received: hello there", reply.Text)
	assert.Equal(t, reply.Text, streamed)
	assert.Equal(t, s.ThreadID, reply.ThreadID)
}
