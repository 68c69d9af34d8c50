package models

import "time"

// Ops alert severities.
const (
	OpsCritical = "critical"
	OpsWarning  = "warning"
	OpsInfo     = "info"
)

// OpsMetric is a point-in-time operational measurement.
type OpsMetric struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// OpsAlert is an operational alert that can be resolved.
type OpsAlert struct {
	ID         string     `json:"id"`
	Title      string     `json:"title" validate:"required"`
	Message    string     `json:"message"`
	Severity   string     `json:"severity" validate:"oneof=critical warning info"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// OpsAlertUpdate is a partial alert update. Nil fields are left unchanged.
type OpsAlertUpdate struct {
	IsActive   *bool      `json:"is_active,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// OpsSummary is the dashboard summary over the ops store.
type OpsSummary struct {
	MetricsCount      int         `json:"metrics_count"`
	AlertsCount       int         `json:"alerts_count"`
	ActiveAlertsCount int         `json:"active_alerts_count"`
	RecentMetrics     []OpsMetric `json:"recent_metrics"`
	ActiveAlerts      []OpsAlert  `json:"active_alerts"`
}
