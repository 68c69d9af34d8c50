package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	OpsDash OpsDashConfig `yaml:"opsdash"`
}

// OpsDashConfig is the project configuration.
type OpsDashConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Latency   LatencyConfig   `yaml:"latency"`
	Fixtures  FixturesConfig  `yaml:"fixtures"`
	SOP       SOPConfig       `yaml:"sop"`
	Store     StoreConfig     `yaml:"store"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Graph     GraphConfig     `yaml:"graph"`
	Inventory InventoryConfig `yaml:"inventory"`
	CSV       CSVConfig       `yaml:"csv"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	CORSCredentials *bool         `yaml:"cors_credentials"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LatencyConfig controls simulated response delays.
// A zero entry keeps the built-in delay for that operation.
type LatencyConfig struct {
	Disabled   bool                     `yaml:"disabled"`
	Operations map[string]time.Duration `yaml:"operations"`
}

// FixturesConfig controls fixture generation.
type FixturesConfig struct {
	Seed uint64 `yaml:"seed"`
}

// SOPConfig controls document generation. In local mode the API builds
// documents itself; in remote mode it forwards to APIURL.
type SOPConfig struct {
	Mode          string            `yaml:"mode"` // local|remote
	APIURL        string            `yaml:"api_url"`
	Timeout       time.Duration     `yaml:"timeout"`
	Headers       map[string]string `yaml:"headers"`
	GenerateDelay time.Duration     `yaml:"generate_delay"`
}

// StoreConfig selects the ops metrics/alerts backend.
type StoreConfig struct {
	Mode     string         `yaml:"mode"` // memory|redis|postgres
	Seed     bool           `yaml:"seed"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig controls the SQL ops store.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// PipelineConfig controls the refresh pipeline.
type PipelineConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Workers       int           `yaml:"workers"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Queue         QueueConfig   `yaml:"queue"`
	Output        OutputConfig  `yaml:"output"`
}

// QueueConfig selects the refresh job queue.
type QueueConfig struct {
	Mode         string        `yaml:"mode"` // memory|redis
	Capacity     int           `yaml:"capacity"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
	Redis        RedisConfig   `yaml:"redis"`
}

// RedisConfig controls a Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// OutputConfig controls where refresh outcomes go.
type OutputConfig struct {
	Mode string           `yaml:"mode"` // file|nats
	File FileOutputConfig `yaml:"file"`
	NATS NATSOutputConfig `yaml:"nats"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// NATSOutputConfig config for publishing outcomes.
type NATSOutputConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// AlertsConfig controls connector health scoring.
type AlertsConfig struct {
	Enabled            bool          `yaml:"enabled"`
	FreshnessThreshold int           `yaml:"freshness_threshold"`
	QualityThreshold   int           `yaml:"quality_threshold"`
	Cooldown           time.Duration `yaml:"cooldown"`
}

// GraphConfig controls adjacency graph emission.
type GraphConfig struct {
	WriteVertexRows bool `yaml:"write_vertex_rows"`
	MaxDepth        int  `yaml:"max_depth"`
}

// InventoryConfig points at the connector inventory CSV.
type InventoryConfig struct {
	Path string `yaml:"path"`
}

// CSVConfig limits CSV uploads.
type CSVConfig struct {
	MaxBytes    int64 `yaml:"max_bytes"`
	PreviewRows int   `yaml:"preview_rows"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Exporter    string `yaml:"exporter"` // stdout|none
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
