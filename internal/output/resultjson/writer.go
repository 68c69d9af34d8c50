package resultjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// Writer outputs refresh outcomes to a JSON lines file.
type Writer struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates a JSONL writer for refresh outcomes. Existing files are
// appended to.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	logger.Infof("Refresh result JSON writer initialized: %s", path)
	return &Writer{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// WriteOutcomes writes a batch of outcomes.
func (w *Writer) WriteOutcomes(outcomes []models.RefreshOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, o := range outcomes {
		if err := w.encoder.Encode(o); err != nil {
			return fmt.Errorf("failed to encode refresh outcome: %w", err)
		}
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
