package pipeline

import (
	"context"

	"opsdash/pkg/models"
)

// Source yields raw job payloads. Pop returns nil, nil when nothing arrived
// before its block timeout.
type Source interface {
	Pop(ctx context.Context) ([]byte, error)
	Close() error
}

// ResultWriter writes refresh outcomes.
type ResultWriter interface {
	WriteOutcomes(outcomes []models.RefreshOutcome) error
	Close() error
}

// AlertSink stores alerts raised by the health scorer.
type AlertSink interface {
	CreateAlert(ctx context.Context, a models.OpsAlert) (models.OpsAlert, error)
}

// Runner executes one refresh job.
type Runner interface {
	Run(ctx context.Context, job models.RefreshJob) models.RefreshOutcome
}
