package llm

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultMockDimensions = 1536

// MockConnector is a deterministic stand-in for the model service.
type MockConnector struct {
	dimensions int
	logger     *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		dimensions: defaultMockDimensions,
		logger:     logger,
	}
}

// Embed hashes the words of text into a bag-of-words vector.
func (m *MockConnector) Embed(ctx context.Context, text string) ([]float64, error) {
	ctxzap.Info(ctx, "[MOCK] creating embedding")

	vec := make([]float64, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		vec[m.bucket(word)]++
	}

	// keep the vector non-zero for empty input
	if strings.TrimSpace(text) == "" {
		vec[0] = 1
	}

	return vec, nil
}

func (m *MockConnector) bucket(word string) int {
	h := fnv.New32a()
	h.Write([]byte(word))
	return int(h.Sum32() % uint32(m.dimensions))
}

// Complete echoes the last query for rewrite prompts and answers grounded
// prompts from the first document, refusing when there are none.
func (m *MockConnector) Complete(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] requesting chat completion")

	if history, ok := strings.CutPrefix(strings.TrimSpace(req.UserPrompt), "# Chat History:"); ok {
		history = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(history), "# Last Query:"))
		turns := strings.Split(history, "\n\n")
		return strings.TrimSpace(turns[len(turns)-1]), nil
	}

	if strings.Contains(req.SystemPrompt, "<DOCUMENT_CHUNK>\n{}\n</DOCUMENT_CHUNK>") {
		return entity.RefusalMessage, nil
	}

	return "According to the document: this is a mock answer to \"" + req.UserPrompt + "\".", nil
}
