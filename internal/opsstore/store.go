// Package opsstore persists operational metrics and alerts.
package opsstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsdash/pkg/models"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("not found")

const (
	DefaultLimit = 100
	MaxLimit     = 1000
	summarySize  = 5
)

// MetricQuery pages through metrics, optionally by exact name.
type MetricQuery struct {
	Skip  int
	Limit int
	Name  string
}

// AlertQuery pages through alerts.
type AlertQuery struct {
	Skip       int
	Limit      int
	ActiveOnly bool
}

// Counts are record totals.
type Counts struct {
	Metrics      int
	Alerts       int
	ActiveAlerts int
}

// Store is an ops metrics/alerts backend. Listings are in creation order.
type Store interface {
	ListMetrics(ctx context.Context, q MetricQuery) ([]models.OpsMetric, error)
	GetMetric(ctx context.Context, id string) (models.OpsMetric, error)
	CreateMetric(ctx context.Context, m models.OpsMetric) (models.OpsMetric, error)
	ListAlerts(ctx context.Context, q AlertQuery) ([]models.OpsAlert, error)
	GetAlert(ctx context.Context, id string) (models.OpsAlert, error)
	CreateAlert(ctx context.Context, a models.OpsAlert) (models.OpsAlert, error)
	UpdateAlert(ctx context.Context, id string, upd models.OpsAlertUpdate) (models.OpsAlert, error)
	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Mode        string // memory|redis|postgres
	Redis       RedisConfig
	PostgresDSN string
	Now         func() time.Time
}

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "memory":
		return NewMemoryStore(cfg.Now), nil
	case "redis":
		cfg.Redis.Now = cfg.Now
		return NewRedisStore(cfg.Redis)
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Now)
	default:
		return nil, fmt.Errorf("unsupported ops store mode: %s", cfg.Mode)
	}
}

// Normalize clamps paging arguments.
func Normalize(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}

// ValidateMetric checks a metric before creation.
func ValidateMetric(m models.OpsMetric) error {
	return models.Validate(m)
}

// ValidateAlert checks an alert before creation.
func ValidateAlert(a models.OpsAlert) error {
	return models.Validate(a)
}

// applyUpdate sets the given fields; deactivating without a resolution
// time stamps one.
func applyUpdate(a *models.OpsAlert, upd models.OpsAlertUpdate, now time.Time) {
	if upd.IsActive != nil {
		a.IsActive = *upd.IsActive
	}
	if upd.ResolvedAt != nil {
		ts := upd.ResolvedAt.UTC()
		a.ResolvedAt = &ts
	}
	if upd.IsActive != nil && !*upd.IsActive && a.ResolvedAt == nil {
		ts := now.UTC()
		a.ResolvedAt = &ts
	}
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-skip)
	copy(out, items[skip:end])
	return out
}

// Summarize builds the dashboard summary: totals plus the first few
// metrics and active alerts.
func Summarize(ctx context.Context, s Store) (models.OpsSummary, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return models.OpsSummary{}, fmt.Errorf("count ops records: %w", err)
	}
	metrics, err := s.ListMetrics(ctx, MetricQuery{Limit: summarySize})
	if err != nil {
		return models.OpsSummary{}, fmt.Errorf("list recent metrics: %w", err)
	}
	alerts, err := s.ListAlerts(ctx, AlertQuery{Limit: summarySize, ActiveOnly: true})
	if err != nil {
		return models.OpsSummary{}, fmt.Errorf("list active alerts: %w", err)
	}
	return models.OpsSummary{
		MetricsCount:      counts.Metrics,
		AlertsCount:       counts.Alerts,
		ActiveAlertsCount: counts.ActiveAlerts,
		RecentMetrics:     metrics,
		ActiveAlerts:      alerts,
	}, nil
}

// SeedSamples loads the sample metrics and alerts shown on a fresh dashboard.
func SeedSamples(ctx context.Context, s Store) error {
	metrics := []models.OpsMetric{
		{Name: "cpu_usage", Value: 45.2, Unit: "%"},
		{Name: "memory_usage", Value: 3.7, Unit: "GB"},
		{Name: "disk_space", Value: 256.8, Unit: "GB"},
		{Name: "network_in", Value: 1.2, Unit: "MB/s"},
		{Name: "network_out", Value: 0.8, Unit: "MB/s"},
	}
	for _, m := range metrics {
		if _, err := s.CreateMetric(ctx, m); err != nil {
			return fmt.Errorf("seed metric %s: %w", m.Name, err)
		}
	}
	alerts := []models.OpsAlert{
		{Title: "High CPU Usage", Message: "CPU usage has exceeded 80% for the last 5 minutes", Severity: models.OpsWarning},
		{Title: "Memory Leak Detected", Message: "Possible memory leak in application server", Severity: models.OpsCritical},
		{Title: "New Update Available", Message: "System update v2.1.0 is available for installation", Severity: models.OpsInfo},
	}
	for _, a := range alerts {
		if _, err := s.CreateAlert(ctx, a); err != nil {
			return fmt.Errorf("seed alert %s: %w", a.Title, err)
		}
	}
	return nil
}
