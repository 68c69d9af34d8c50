package adjacencyjson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// Writer outputs adjacency rows as JSON lines.
type Writer struct {
	mu      sync.Mutex
	closer  io.Closer
	encoder *json.Encoder
	count   int
}

// NewWriter creates a JSONL writer that truncates path. Exports are
// snapshots of the current graph, so earlier contents are replaced.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	logger.Infof("Adjacency JSON writer initialized: %s", path)
	return &Writer{closer: f, encoder: json.NewEncoder(f)}, nil
}

// NewStreamWriter writes rows to w. Close does not close w.
func NewStreamWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

// WriteRows writes a batch of adjacency rows.
func (w *Writer) WriteRows(rows []*models.AdjacencyRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, row := range rows {
		if row == nil {
			continue
		}
		if err := w.encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to encode adjacency row: %w", err)
		}
		w.count++
	}
	return nil
}

// Count returns the number of rows written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the output file, if any.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}
