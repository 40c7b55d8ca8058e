package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/similarity"
	"github.com/futig/docchat/internal/vectorstore"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DefaultThreshold is the similarity a record must strictly exceed to be kept.
const DefaultThreshold = 0.5

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Retriever embeds a query and scans every shard for similar records.
type Retriever struct {
	embedder  Embedder
	loader    *vectorstore.ShardLoader
	threshold float64
}

func NewRetriever(embedder Embedder, loader *vectorstore.ShardLoader, threshold float64) *Retriever {
	return &Retriever{
		embedder:  embedder,
		loader:    loader,
		threshold: threshold,
	}
}

// Retrieve returns the snippets of all records above the threshold keyed by contentId.
// A contentId seen in several shards keeps the snippet of the last shard scanned.
func (r *Retriever) Retrieve(ctx context.Context, query string) (entity.RetrievalResult, error) {
	result, _, err := r.Search(ctx, query)
	return result, err
}

// Search is Retrieve that also reports every match with its score, in scan order.
func (r *Retriever) Search(ctx context.Context, query string) (entity.RetrievalResult, []entity.Match, error) {
	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if !errors.Is(err, entity.ErrUpstream) {
			err = fmt.Errorf("%w: %v", entity.ErrUpstream, err)
		}
		return nil, nil, fmt.Errorf("embed query: %w", err)
	}

	result := make(entity.RetrievalResult)
	var matches []entity.Match

	err = r.loader.Scan(ctx, func(shard string, rec *entity.VectorRecord) error {
		sim, err := similarity.Cosine(rec.Vector, queryVector)
		if err != nil {
			return fmt.Errorf("score %s/%s: %w", rec.ContentID, rec.ChunkID, err)
		}

		if sim > r.threshold {
			result[rec.ContentID] = rec.Snippet()
			matches = append(matches, entity.Match{
				ContentID:  rec.ContentID,
				ChunkID:    rec.ChunkID,
				Topic:      rec.Topic,
				Similarity: sim,
				Shard:      shard,
			})
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctxzap.Info(ctx, "retrieval completed",
		zap.Int("documents", len(result)),
		zap.Int("matches", len(matches)),
	)

	return result, matches, nil
}
