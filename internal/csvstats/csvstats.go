// Package csvstats parses uploaded CSV files into typed records and
// per-column statistics.
package csvstats

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultPreviewRows caps the records returned by Upload.
	DefaultPreviewRows = 100
	// DefaultMaxBytes caps the accepted file size.
	DefaultMaxBytes = 32 << 20
)

var (
	// ErrNotCSV is returned for files without a .csv extension.
	ErrNotCSV = errors.New("file must be a CSV")
	// ErrMalformed wraps parse failures.
	ErrMalformed = errors.New("malformed CSV")
	// ErrTooLarge is returned when the file exceeds Config.MaxBytes.
	ErrTooLarge = errors.New("CSV file too large")
)

// Column dtypes, named as the dashboard expects them.
const (
	DTypeInt    = "int64"
	DTypeFloat  = "float64"
	DTypeBool   = "bool"
	DTypeObject = "object"
)

// nullTokens are cell values read as missing.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Config controls a Processor.
type Config struct {
	PreviewRows int
	MaxBytes    int64
	Now         func() time.Time
}

// Options controls how one file is parsed.
type Options struct {
	SkipRows  int
	Delimiter string
}

// Processor parses and profiles CSV uploads.
type Processor struct {
	cfg Config
}

// New creates a processor, filling unset limits with defaults.
func New(cfg Config) *Processor {
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Processor{cfg: cfg}
}

// Table is a parsed file with inferred column types.
type Table struct {
	Columns []string
	DTypes  []string
	// Cells holds raw cell text per row; short rows are padded with "".
	Cells [][]string
	Size  int
}

// Value returns the typed cell at row, col: int64, float64, bool, string,
// or nil for a missing value.
func (t *Table) Value(row, col int) any {
	cell := t.Cells[row][col]
	if isNull(cell) {
		return nil
	}
	switch t.DTypes[col] {
	case DTypeInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case DTypeFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	case DTypeBool:
		v, _ := parseBool(cell)
		return v
	default:
		return cell
	}
}

// Record returns row as a column-name keyed map.
func (t *Table) Record(row int) map[string]any {
	rec := make(map[string]any, len(t.Columns))
	for c, name := range t.Columns {
		rec[name] = t.Value(row, c)
	}
	return rec
}

// Read parses a CSV file. The first SkipRows lines are dropped and the
// next line is the header.
func (p *Processor) Read(filename string, r io.Reader, opts Options) (*Table, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%w: %s", ErrNotCSV, filename)
	}
	comma, err := delimiter(opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if opts.SkipRows < 0 {
		return nil, fmt.Errorf("%w: skip_rows must not be negative", ErrMalformed)
	}

	data, err := io.ReadAll(io.LimitReader(r, p.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > p.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, p.cfg.MaxBytes)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: file is not valid UTF-8", ErrMalformed)
	}

	body := skipLines(data, opts.SkipRows)
	cr := csv.NewReader(bytes.NewReader(body))
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no columns to parse", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	t := &Table{Columns: columnNames(header), Size: len(data)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrMalformed, line+opts.SkipRows, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Cells = append(t.Cells, rec)
	}

	t.DTypes = make([]string, len(header))
	for c := range header {
		t.DTypes[c] = inferDType(t.Cells, c)
	}
	return t, nil
}

// columnNames names blank headers "Unnamed: i" and suffixes repeats with
// ".n" so every record key is unique.
func columnNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := seen[base]; seen[name] > 0; n++ {
			name = base + "." + strconv.Itoa(n)
			seen[base] = n + 1
		}
		seen[name] = 1
		out[i] = name
	}
	return out
}

func delimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: invalid delimiter %q", ErrMalformed, s)
	}
	return r, nil
}

func skipLines(data []byte, n int) []byte {
	for i := 0; i < n && len(data) > 0; i++ {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return nil
		}
		data = data[idx+1:]
	}
	return data
}

func isNull(cell string) bool {
	_, ok := nullTokens[cell]
	return ok
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

// inferDType follows the usual dataframe rules: integer columns with
// missing values widen to float64, and an all-missing column is float64.
func inferDType(rows [][]string, col int) string {
	if len(rows) == 0 {
		return DTypeObject
	}
	ints, floats, bools, nulls := true, true, true, false
	for _, row := range rows {
		cell := row[col]
		if isNull(cell) {
			nulls = true
			continue
		}
		if ints {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				ints = false
			}
		}
		if floats {
			if v, err := strconv.ParseFloat(cell, 64); err != nil || math.IsInf(v, 0) {
				floats = false
			}
		}
		if bools {
			if _, ok := parseBool(cell); !ok {
				bools = false
			}
		}
	}
	switch {
	case ints && !nulls:
		return DTypeInt
	case ints || floats:
		return DTypeFloat
	case bools && !nulls:
		return DTypeBool
	default:
		return DTypeObject
	}
}
