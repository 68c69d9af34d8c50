package pipeline

import (
	"context"
	"fmt"
	"time"

	"opsdash/internal/fixtures"
	"opsdash/pkg/models"
)

// Refresher runs a simulated connector refresh against the fixtures.
type Refresher struct {
	store    *fixtures.Store
	duration time.Duration
	now      func() time.Time
}

// NewRefresher creates a refresher. duration is the simulated run time.
func NewRefresher(store *fixtures.Store, duration time.Duration) *Refresher {
	return &Refresher{store: store, duration: duration, now: time.Now}
}

// Run executes one job. A successful refresh is fully fresh; quality is
// whatever the connector last reported.
func (r *Refresher) Run(ctx context.Context, job models.RefreshJob) models.RefreshOutcome {
	out := models.RefreshOutcome{
		JobID:       job.JobID,
		ConnectorID: job.ConnectorID,
		StartedAt:   r.now().UTC(),
	}

	c, ok := r.store.Connector(job.ConnectorID)
	if !ok {
		out.Error = fmt.Sprintf("connector with ID %d not found", job.ConnectorID)
		out.FinishedAt = r.now().UTC()
		return out
	}
	out.ConnectorName = c.Name

	if r.duration > 0 {
		timer := time.NewTimer(r.duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			out.Error = ctx.Err().Error()
			out.FinishedAt = r.now().UTC()
			return out
		case <-timer.C:
		}
	}

	out.Success = true
	out.Freshness = models.Score{Value: 100, Status: models.StatusGreen}
	out.Quality = c.Quality
	out.FinishedAt = r.now().UTC()
	return out
}
