package analyzer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// LoadRowsJSONL reads adjacency rows from a JSONL file.
func LoadRowsJSONL(path string) ([]*models.AdjacencyRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return ReadRowsJSONL(f)
}

// ReadRowsJSONL reads adjacency rows from r. Blank lines are skipped and
// malformed lines are logged and dropped.
func ReadRowsJSONL(r io.Reader) ([]*models.AdjacencyRow, error) {
	rows := make([]*models.AdjacencyRow, 0, 256)
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 8*1024*1024)

	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var row models.AdjacencyRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			logger.Warnf("Skipping malformed adjacency row on line %d: %v", lineNo, err)
			continue
		}
		rows = append(rows, &row)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return rows, nil
}
