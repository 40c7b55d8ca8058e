package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float64
	err    error
	calls  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls = append(f.calls, text)
	return f.vector, f.err
}

func writeShard(t *testing.T, dir, name string, records ...entity.VectorRecord) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestRetriever_ThresholdIsStrict(t *testing.T) {
	dir := t.TempDir()
	y := math.Sqrt(1 - 0.50001*0.50001)
	writeShard(t, dir, "shard.json",
		// cos = 1 / (2 * 1) = 0.5 exactly
		entity.VectorRecord{ContentID: "exact", Topic: "t", Content: "at threshold", Vector: []float64{1, 1, 1, 1}},
		entity.VectorRecord{ContentID: "above", Topic: "t", Content: "just above", Vector: []float64{0.50001, y, 0, 0}},
		entity.VectorRecord{ContentID: "below", Topic: "t", Content: "orthogonal", Vector: []float64{0, 1, 0, 0}},
	)

	embedder := &fakeEmbedder{vector: []float64{1, 0, 0, 0}}
	r := NewRetriever(embedder, vectorstore.NewShardLoader(dir), DefaultThreshold)

	result, matches, err := r.Search(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, entity.RetrievalResult{"above": "t\njust above"}, result)
	require.Len(t, matches, 1)
	assert.Greater(t, matches[0].Similarity, 0.5)
	assert.Equal(t, []string{"query"}, embedder.calls)
}

func TestRetriever_LastShardWins(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, dir, "a.json", entity.VectorRecord{ContentID: "dup", Topic: "First", Content: "from a", Vector: []float64{1, 0}})
	writeShard(t, dir, "b.json", entity.VectorRecord{ContentID: "dup", Topic: "Second", Content: "from b", Vector: []float64{1, 0}})

	r := NewRetriever(&fakeEmbedder{vector: []float64{1, 0}}, vectorstore.NewShardLoader(dir), DefaultThreshold)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, entity.RetrievalResult{"dup": "Second\nfrom b"}, result)
}

func TestRetriever_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, dir, "a.json", entity.VectorRecord{ContentID: "x", Vector: []float64{-1, 0}})

	r := NewRetriever(&fakeEmbedder{vector: []float64{1, 0}}, vectorstore.NewShardLoader(dir), DefaultThreshold)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRetriever_EmbeddingFailure(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("boom")}, vectorstore.NewShardLoader(t.TempDir()), DefaultThreshold)

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, entity.ErrUpstream)
}

func TestRetriever_MalformedShard(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	r := NewRetriever(&fakeEmbedder{vector: []float64{1}}, vectorstore.NewShardLoader(dir), DefaultThreshold)

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, entity.ErrData)
}

func TestRetriever_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, dir, "a.json", entity.VectorRecord{ContentID: "x", Vector: []float64{1, 0, 0}})

	r := NewRetriever(&fakeEmbedder{vector: []float64{1, 0}}, vectorstore.NewShardLoader(dir), DefaultThreshold)

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, entity.ErrValidation)
}
