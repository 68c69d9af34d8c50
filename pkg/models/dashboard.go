package models

import "time"

// Quality alert severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
	SeverityInfo     = "INFO"
)

// ActiveConnectors counts running connectors.
type ActiveConnectors struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// FreshnessScore is the platform-wide freshness KPI.
type FreshnessScore struct {
	Value      int `json:"value"`
	Percentage int `json:"percentage"`
}

// QualityChecks counts passing quality checks.
type QualityChecks struct {
	Passed     int `json:"passed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// PipelineRuntime is the average pipeline duration.
type PipelineRuntime struct {
	Value      int    `json:"value"`
	Unit       string `json:"unit"`
	Percentage int    `json:"percentage"`
}

// DashboardMetrics are the KPI cards at the top of the dashboard.
type DashboardMetrics struct {
	ActiveConnectors ActiveConnectors `json:"activeConnectors"`
	FreshnessScore   FreshnessScore   `json:"freshnessScore"`
	QualityChecks    QualityChecks    `json:"qualityChecks"`
	PipelineRuntime  PipelineRuntime  `json:"pipelineRuntime"`
}

// QualityAlert is a data-quality notification shown on the dashboard.
type QualityAlert struct {
	ID          int       `json:"id" validate:"gt=0"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Severity    string    `json:"severity" validate:"oneof=CRITICAL WARNING INFO"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewQualityAlert validates a quality alert value.
func NewQualityAlert(a QualityAlert) (QualityAlert, error) {
	if err := Validate(a); err != nil {
		return QualityAlert{}, err
	}
	return a, nil
}
