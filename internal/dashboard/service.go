// Package dashboard is the access layer over the fixture store. Every call
// waits its simulated latency, then returns a copy of the fixture or an error.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"opsdash/internal/fixtures"
	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// DefaultTimeRange is used when TrendData gets an empty range.
const DefaultTimeRange = models.Range7d

// Enqueuer accepts refresh jobs for background processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.RefreshJob) error
}

// Config controls the access layer.
type Config struct {
	Latency Latency
	// Sleep defaults to SleepContext.
	Sleep Sleeper
	// Queue receives refresh jobs. Optional.
	Queue Enqueuer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service serves dashboard data.
type Service struct {
	store   *fixtures.Store
	latency Latency
	sleep   Sleeper
	queue   Enqueuer
	now     func() time.Time
	tracer  trace.Tracer
}

// NewService creates an access layer over store.
func NewService(store *fixtures.Store, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("fixture store required")
	}
	if cfg.Latency.Delays == nil && !cfg.Latency.Disabled {
		cfg.Latency = DefaultLatency()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:   store,
		latency: cfg.Latency,
		sleep:   cfg.Sleep,
		queue:   cfg.Queue,
		now:     cfg.Now,
		tracer:  otel.Tracer("opsdash/dashboard"),
	}, nil
}

// call wraps one access-layer operation with its span, delay and metrics.
func call[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "dashboard."+op)
	defer span.End()

	var zero T
	if err := s.sleep(ctx, s.latency.For(op)); err != nil {
		return zero, s.fail(span, op, start, fmt.Errorf("%s: %w", op, err))
	}

	out, err := fn(ctx)
	if err != nil {
		return zero, s.fail(span, op, start, err)
	}
	callsTotal.WithLabelValues(op, "ok").Inc()
	callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return out, nil
}

func (s *Service) fail(span trace.Span, op string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	callsTotal.WithLabelValues(op, outcome(err)).Inc()
	callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTimeRange):
		return "invalid"
	default:
		return "error"
	}
}

// TechStack returns the topology nodes and links.
func (s *Service) TechStack(ctx context.Context) (models.TechStack, error) {
	return call(ctx, s, OpTechStack, func(context.Context) (models.TechStack, error) {
		return s.store.TechStack(), nil
	})
}

// NodeMetrics returns the metrics for a topology node. An unknown node
// yields the zero record, not an error.
func (s *Service) NodeMetrics(ctx context.Context, nodeID string) (models.NodeMetrics, error) {
	return call(ctx, s, OpNodeMetrics, func(ctx context.Context) (models.NodeMetrics, error) {
		m, ok := s.store.NodeMetrics(nodeID)
		if !ok {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("node.known", false))
			logger.Debugf("No metrics for node %q", nodeID)
		}
		return m, nil
	})
}

// DashboardMetrics returns the KPI cards.
func (s *Service) DashboardMetrics(ctx context.Context) (models.DashboardMetrics, error) {
	return call(ctx, s, OpDashboardMetrics, func(context.Context) (models.DashboardMetrics, error) {
		return s.store.DashboardMetrics(), nil
	})
}

// QualityAlerts returns the data quality alerts.
func (s *Service) QualityAlerts(ctx context.Context) ([]models.QualityAlert, error) {
	return call(ctx, s, OpQualityAlerts, func(context.Context) ([]models.QualityAlert, error) {
		return s.store.QualityAlerts(), nil
	})
}

// Connectors returns every connector. The filter is accepted but not applied.
func (s *Service) Connectors(ctx context.Context, filter models.ConnectorFilter) ([]models.Connector, error) {
	return call(ctx, s, OpConnectors, func(ctx context.Context) ([]models.Connector, error) {
		if filter != (models.ConnectorFilter{}) {
			trace.SpanFromContext(ctx).SetAttributes(
				attribute.String("filter.type", filter.Type),
				attribute.String("filter.status", filter.Status),
				attribute.String("filter.owner", filter.Owner),
			)
		}
		return s.store.Connectors(), nil
	})
}

// ConnectorDetails returns one connector or ErrNotFound.
func (s *Service) ConnectorDetails(ctx context.Context, id int) (models.Connector, error) {
	return call(ctx, s, OpConnectorDetails, func(context.Context) (models.Connector, error) {
		c, ok := s.store.Connector(id)
		if !ok {
			return models.Connector{}, fmt.Errorf("connector with ID %d: %w", id, ErrNotFound)
		}
		return c, nil
	})
}

// RefreshConnector acknowledges a refresh and, when a queue is configured,
// enqueues a job for the refresh pipeline. The id is not checked here.
func (s *Service) RefreshConnector(ctx context.Context, id int) (models.RefreshResult, error) {
	return call(ctx, s, OpRefreshConnector, func(ctx context.Context) (models.RefreshResult, error) {
		job := models.RefreshJob{
			JobID:       "job-" + uuid.NewString(),
			ConnectorID: id,
			RequestedAt: s.now().UTC(),
		}
		if s.queue != nil {
			if err := s.queue.Enqueue(ctx, job); err != nil {
				logger.Errorf("Failed to enqueue refresh for connector %d: %v", id, err)
				return models.RefreshResult{}, fmt.Errorf("enqueue refresh for connector %d: %w", id, err)
			}
		}
		return models.RefreshResult{
			Success: true,
			Message: fmt.Sprintf("Connector %d refresh triggered successfully", id),
			JobID:   job.JobID,
		}, nil
	})
}

// TrendData returns the series for a time range, 7d when empty. The
// connector id is accepted but not applied.
func (s *Service) TrendData(ctx context.Context, timeRange string, connectorID int) (models.TrendData, error) {
	if timeRange == "" {
		timeRange = DefaultTimeRange
	}
	return call(ctx, s, OpTrendData, func(ctx context.Context) (models.TrendData, error) {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("trend.range", timeRange),
			attribute.Int("trend.connector_id", connectorID),
		)
		td, ok := s.store.Trend(timeRange)
		if !ok {
			return models.TrendData{}, fmt.Errorf("%w: %s", ErrInvalidTimeRange, timeRange)
		}
		return td, nil
	})
}

// ConnectorLineage returns the lineage nodes.
func (s *Service) ConnectorLineage(ctx context.Context) ([]models.LineageNode, error) {
	return call(ctx, s, OpConnectorLineage, func(context.Context) ([]models.LineageNode, error) {
		return s.store.Lineage(), nil
	})
}
