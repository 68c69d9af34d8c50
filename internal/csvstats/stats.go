package csvstats

import (
	"io"
	"math"
	"sort"
	"strconv"
	"time"
)

// UploadStats summarizes a parsed upload.
type UploadStats struct {
	TotalRows   int      `json:"total_rows"`
	Columns     []string `json:"columns"`
	ProcessedAt string   `json:"processed_at"`
}

// UploadResult is the preview of an uploaded file.
type UploadResult struct {
	Success     bool             `json:"success"`
	Filename    string           `json:"filename"`
	Stats       UploadStats      `json:"stats"`
	Data        []map[string]any `json:"data"`
	HasMoreData bool             `json:"has_more_data"`
}

// NumericStats is present only for int64 and float64 columns. Fields are
// null when the column has too few values.
type NumericStats struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
}

// ColumnStats profiles one column.
type ColumnStats struct {
	DType          string  `json:"dtype"`
	Count          int     `json:"count"`
	NullCount      int     `json:"null_count"`
	NullPercentage float64 `json:"null_percentage"`
	UniqueValues   int     `json:"unique_values"`
	*NumericStats
}

// FileStats summarizes the analyzed file.
type FileStats struct {
	TotalRows    int    `json:"total_rows"`
	TotalColumns int    `json:"total_columns"`
	MemoryUsage  int64  `json:"memory_usage"`
	FileSize     int    `json:"file_size"`
	AnalyzedAt   string `json:"analyzed_at"`
}

// AnalysisResult is the per-column profile of a file.
type AnalysisResult struct {
	Success     bool                   `json:"success"`
	Filename    string                 `json:"filename"`
	FileStats   FileStats              `json:"file_stats"`
	ColumnStats map[string]ColumnStats `json:"column_stats"`
}

// Upload parses a file and returns its first PreviewRows records.
func (p *Processor) Upload(filename string, r io.Reader, opts Options) (*UploadResult, error) {
	t, err := p.Read(filename, r, opts)
	if err != nil {
		return nil, err
	}
	n := len(t.Cells)
	preview := min(n, p.cfg.PreviewRows)
	data := make([]map[string]any, 0, preview)
	for i := 0; i < preview; i++ {
		data = append(data, t.Record(i))
	}
	return &UploadResult{
		Success:  true,
		Filename: filename,
		Stats: UploadStats{
			TotalRows:   n,
			Columns:     t.Columns,
			ProcessedAt: p.cfg.Now().Format(time.RFC3339),
		},
		Data:        data,
		HasMoreData: n > p.cfg.PreviewRows,
	}, nil
}

// Analyze parses a file and profiles every column.
func (p *Processor) Analyze(filename string, r io.Reader, opts Options) (*AnalysisResult, error) {
	t, err := p.Read(filename, r, opts)
	if err != nil {
		return nil, err
	}
	cols := make(map[string]ColumnStats, len(t.Columns))
	for c, name := range t.Columns {
		cols[name] = t.columnStats(c)
	}
	return &AnalysisResult{
		Success:  true,
		Filename: filename,
		FileStats: FileStats{
			TotalRows:    len(t.Cells),
			TotalColumns: len(t.Columns),
			MemoryUsage:  t.memoryUsage(),
			FileSize:     t.Size,
			AnalyzedAt:   p.cfg.Now().Format(time.RFC3339),
		},
		ColumnStats: cols,
	}, nil
}

func (t *Table) columnStats(c int) ColumnStats {
	st := ColumnStats{DType: t.DTypes[c]}
	numeric := st.DType == DTypeInt || st.DType == DTypeFloat
	unique := make(map[string]struct{})
	var values []float64
	for row := range t.Cells {
		v := t.Value(row, c)
		if v == nil {
			st.NullCount++
			continue
		}
		st.Count++
		switch x := v.(type) {
		case int64:
			values = append(values, float64(x))
			unique[strconv.FormatFloat(float64(x), 'g', -1, 64)] = struct{}{}
		case float64:
			values = append(values, x)
			unique[strconv.FormatFloat(x, 'g', -1, 64)] = struct{}{}
		case bool:
			unique[strconv.FormatBool(x)] = struct{}{}
		case string:
			unique[x] = struct{}{}
		}
	}
	st.UniqueValues = len(unique)
	if total := len(t.Cells); total > 0 {
		st.NullPercentage = float64(st.NullCount) / float64(total) * 100
	}
	if numeric {
		st.NumericStats = describe(values)
	}
	return st
}

// describe computes min, max, mean, median and the sample standard
// deviation (n-1). Std needs at least two values.
func describe(values []float64) *NumericStats {
	out := &NumericStats{}
	if len(values) == 0 {
		return out
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	mean := sum / float64(n)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	out.Min = ptr(sorted[0])
	out.Max = ptr(sorted[n-1])
	out.Mean = ptr(mean)
	out.Median = ptr(median)
	if n > 1 {
		ss := 0.0
		for _, v := range sorted {
			ss += (v - mean) * (v - mean)
		}
		out.Std = ptr(math.Sqrt(ss / float64(n-1)))
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// memoryUsage estimates the in-memory size of the table: 8 bytes per
// numeric or bool cell, string cells at their length plus object overhead.
func (t *Table) memoryUsage() int64 {
	const (
		indexBytes  = 128
		cellBytes   = 8
		objOverhead = 49
	)
	total := int64(indexBytes)
	for c, dtype := range t.DTypes {
		for row := range t.Cells {
			if dtype != DTypeObject {
				total += cellBytes
				continue
			}
			total += cellBytes
			if v, ok := t.Value(row, c).(string); ok {
				total += int64(objOverhead + len(v))
			}
		}
	}
	return total
}
