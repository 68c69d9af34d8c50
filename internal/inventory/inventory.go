// Package inventory reads the connector inventory CSV.
package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"opsdash/internal/logger"
)

// Defaults for optional columns.
const (
	DefaultType  = "ingestion"
	DefaultOwner = "twks"
)

// Connector is one inventory entry.
type Connector struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Technology string `json:"technology"`
	Owner      string `json:"owner"`
}

// Samples is served when no inventory can be read.
func Samples() []Connector {
	return []Connector{
		{Name: "sample_pipeline1", Type: "ingestion", Technology: "Snowflake Airflow", Owner: "twks"},
		{Name: "sample_pipeline2", Type: "ingestion", Technology: "Snowflake Fivetran", Owner: "ind"},
		{Name: "sample_pipeline3", Type: "transformation", Technology: "Snowflake ADF", Owner: "zach"},
	}
}

// Load reads the inventory at path. A missing, unreadable or empty file
// falls back to Samples; the fallback is logged, not returned as an error.
func Load(path string) []Connector {
	if strings.TrimSpace(path) == "" {
		return Samples()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Inventory file not found at %s, serving samples", path)
		} else {
			logger.Errorf("Error opening inventory %s: %v", path, err)
		}
		return Samples()
	}
	defer f.Close()

	out, err := Parse(f)
	if err != nil {
		logger.Errorf("Error reading inventory %s: %v", path, err)
		return Samples()
	}
	if len(out) == 0 {
		logger.Warnf("Inventory %s is empty, serving samples", path)
		return Samples()
	}
	logger.Debugf("Loaded %d inventory connectors from %s", len(out), path)
	return out
}

// Parse reads inventory CSV from r. The header must contain name and
// technology; type and owner are optional.
func Parse(r io.Reader) ([]Connector, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "technology"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Connector
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		c := Connector{
			Name:       field(rec, "name"),
			Type:       field(rec, "type"),
			Technology: field(rec, "technology"),
			Owner:      field(rec, "owner"),
		}
		if c.Name == "" {
			continue
		}
		if c.Type == "" {
			c.Type = DefaultType
		}
		if c.Owner == "" {
			c.Owner = DefaultOwner
		}
		out = append(out, c)
	}
	return out, nil
}
