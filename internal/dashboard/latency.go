package dashboard

import (
	"context"
	"time"
)

// Operation names, used for latency overrides, metrics and span names.
const (
	OpTechStack        = "tech_stack"
	OpNodeMetrics      = "node_metrics"
	OpDashboardMetrics = "dashboard_metrics"
	OpQualityAlerts    = "quality_alerts"
	OpConnectors       = "connectors"
	OpConnectorDetails = "connector_details"
	OpRefreshConnector = "refresh_connector"
	OpTrendData        = "trend_data"
	OpConnectorLineage = "connector_lineage"
)

var defaultDelays = map[string]time.Duration{
	OpTechStack:        500 * time.Millisecond,
	OpNodeMetrics:      300 * time.Millisecond,
	OpDashboardMetrics: 500 * time.Millisecond,
	OpQualityAlerts:    700 * time.Millisecond,
	OpConnectors:       800 * time.Millisecond,
	OpConnectorDetails: 600 * time.Millisecond,
	OpRefreshConnector: 1500 * time.Millisecond,
	OpTrendData:        1000 * time.Millisecond,
	OpConnectorLineage: 1200 * time.Millisecond,
}

// Latency holds the simulated delay per operation.
type Latency struct {
	Disabled bool
	Delays   map[string]time.Duration
}

// DefaultLatency returns the built-in delays.
func DefaultLatency() Latency {
	delays := make(map[string]time.Duration, len(defaultDelays))
	for op, d := range defaultDelays {
		delays[op] = d
	}
	return Latency{Delays: delays}
}

// NoLatency disables every delay.
func NoLatency() Latency {
	return Latency{Disabled: true}
}

// WithOverrides returns a copy with positive overrides applied.
// Unknown operation names are ignored.
func (l Latency) WithOverrides(overrides map[string]time.Duration) Latency {
	out := Latency{Disabled: l.Disabled, Delays: make(map[string]time.Duration, len(l.Delays))}
	for op, d := range l.Delays {
		out.Delays[op] = d
	}
	for op, d := range overrides {
		if _, known := defaultDelays[op]; !known || d <= 0 {
			continue
		}
		out.Delays[op] = d
	}
	return out
}

// For returns the delay for an operation.
func (l Latency) For(op string) time.Duration {
	if l.Disabled {
		return 0
	}
	return l.Delays[op]
}

// Sleeper waits d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real-clock Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
