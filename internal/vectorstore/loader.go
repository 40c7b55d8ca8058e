// Package vectorstore reads embedded content records from JSON shard files.
//
// Shards are read from disk on every call; nothing is cached between queries.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const shardExtension = ".json"

// ShardLoader lists and parses the shard files of one directory.
type ShardLoader struct {
	dir string
}

func NewShardLoader(dir string) *ShardLoader {
	return &ShardLoader{dir: dir}
}

// Dir returns the shard directory.
func (l *ShardLoader) Dir() string {
	return l.dir
}

// Shards returns the shard file paths in lexical order.
func (l *ShardLoader) Shards(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read shard directory %s: %v", entity.ErrData, l.dir, err)
	}

	shards := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), shardExtension) {
			continue
		}
		shards = append(shards, filepath.Join(l.dir, e.Name()))
	}

	ctxzap.Debug(ctx, "shards listed",
		zap.String("dir", l.dir),
		zap.Int("count", len(shards)),
	)

	return shards, nil
}

// Load parses one shard file.
func (l *ShardLoader) Load(ctx context.Context, path string) ([]entity.VectorRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read shard %s: %v", entity.ErrData, path, err)
	}

	var records []entity.VectorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse shard %s: %v", entity.ErrData, path, err)
	}

	ctxzap.Debug(ctx, "shard loaded",
		zap.String("shard", path),
		zap.Int("records", len(records)),
	)

	return records, nil
}

// Scan calls fn for every record of every shard, shard by shard.
// It stops at the first error returned by fn or by the loader.
func (l *ShardLoader) Scan(ctx context.Context, fn func(shard string, rec *entity.VectorRecord) error) error {
	shards, err := l.Shards(ctx)
	if err != nil {
		return err
	}

	for _, shard := range shards {
		if err := ctx.Err(); err != nil {
			return err
		}

		records, err := l.Load(ctx, shard)
		if err != nil {
			return err
		}

		for i := range records {
			if err := fn(shard, &records[i]); err != nil {
				return err
			}
		}
	}

	return nil
}
