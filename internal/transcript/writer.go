// Package transcript persists the last grounded response to a fixed-path JSON file.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// FileWriter overwrites one file with every transcript it is given.
// Writes from concurrent sessions are serialised; the last writer wins.
type FileWriter struct {
	path string
	mu   sync.Mutex
}

func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Path returns the transcript file path.
func (w *FileWriter) Path() string {
	return w.path
}

// Write replaces the file content with t, indented by four spaces.
func (w *FileWriter) Write(ctx context.Context, t *entity.Transcript) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.WriteFile(w.path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644); err != nil {
		return fmt.Errorf("write transcript %s: %w", w.path, err)
	}

	ctxzap.Debug(ctx, "transcript saved", zap.String("path", w.path))
	return nil
}

// Read returns the transcript currently on disk.
func (w *FileWriter) Read(ctx context.Context) (*entity.Transcript, error) {
	w.mu.Lock()
	data, err := os.ReadFile(w.path)
	w.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entity.ErrNoTranscript
		}
		return nil, fmt.Errorf("read transcript %s: %w", w.path, err)
	}

	var t entity.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: parse transcript %s: %v", entity.ErrData, w.path, err)
	}

	return &t, nil
}
