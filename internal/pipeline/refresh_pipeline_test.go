package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/alerts"
	"opsdash/internal/fixtures"
	"opsdash/pkg/models"
)

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]models.RefreshOutcome
	fail    int
	calls   int
	closed  bool
}

func (w *recordingWriter) WriteOutcomes(outcomes []models.RefreshOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fail > 0 {
		w.fail--
		return errors.New("sink unavailable")
	}
	w.batches = append(w.batches, append([]models.RefreshOutcome(nil), outcomes...))
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) snapshot() ([][]models.RefreshOutcome, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]models.RefreshOutcome(nil), w.batches...), w.calls
}

func (w *recordingWriter) total() int {
	batches, _ := w.snapshot()
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	return n
}

// signallingRunner wraps a Runner and reports each finished job.
type signallingRunner struct {
	inner Runner
	done  chan string
}

func (r signallingRunner) Run(ctx context.Context, job models.RefreshJob) models.RefreshOutcome {
	out := r.inner.Run(ctx, job)
	r.done <- job.JobID
	return out
}

type alertRecorder struct {
	mu     sync.Mutex
	alerts []models.OpsAlert
}

func (a *alertRecorder) CreateAlert(_ context.Context, alert models.OpsAlert) (models.OpsAlert, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return alert, nil
}

func (a *alertRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

func newRefresher(t *testing.T) *Refresher {
	t.Helper()
	store, err := fixtures.New(fixtures.Options{Seed: 3})
	require.NoError(t, err)
	return NewRefresher(store, 0)
}

func start(t *testing.T, p *RefreshPipeline) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	return cancel, errCh
}

func enqueue(t *testing.T, q *MemoryQueue, ids ...int) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), models.RefreshJob{
			JobID:       fmt.Sprintf("job-%d", id),
			ConnectorID: id,
		}))
	}
}

func TestPipelineFlushesOnBatchSize(t *testing.T) {
	q := NewMemoryQueue(16, 20*time.Millisecond)
	w := &recordingWriter{}
	p := NewRefreshPipeline(q, newRefresher(t), w, nil, nil, Options{Workers: 2, BatchSize: 2, FlushInterval: time.Hour})
	cancel, errCh := start(t, p)
	defer cancel()

	enqueue(t, q, 1, 2)
	require.Eventually(t, func() bool { return w.total() == 2 }, 2*time.Second, 10*time.Millisecond)

	batches, _ := w.snapshot()
	require.Len(t, batches, 1)
	for _, o := range batches[0] {
		assert.True(t, o.Success)
		assert.Equal(t, 100, o.Freshness.Value)
		assert.NotEmpty(t, o.ConnectorName)
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestPipelineFlushesOnShutdown(t *testing.T) {
	q := NewMemoryQueue(16, 20*time.Millisecond)
	w := &recordingWriter{}
	runner := signallingRunner{inner: newRefresher(t), done: make(chan string, 8)}
	p := NewRefreshPipeline(q, runner, w, nil, nil, Options{Workers: 1, BatchSize: 100, FlushInterval: time.Hour})
	cancel, errCh := start(t, p)

	enqueue(t, q, 1, 2, 3)
	for i := 0; i < 3; i++ {
		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Zero(t, w.total())

	cancel()
	<-errCh
	assert.Equal(t, 3, w.total())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPipelineFlushesOnInterval(t *testing.T) {
	q := NewMemoryQueue(16, 20*time.Millisecond)
	w := &recordingWriter{}
	p := NewRefreshPipeline(q, newRefresher(t), w, nil, nil, Options{Workers: 1, BatchSize: 100, FlushInterval: 30 * time.Millisecond})
	cancel, errCh := start(t, p)
	defer func() { cancel(); <-errCh }()

	enqueue(t, q, 4)
	require.Eventually(t, func() bool { return w.total() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineRetriesFailedWrites(t *testing.T) {
	q := NewMemoryQueue(16, 20*time.Millisecond)
	w := &recordingWriter{fail: 2}
	p := NewRefreshPipeline(q, newRefresher(t), w, nil, nil, Options{Workers: 1, BatchSize: 1, FlushInterval: time.Hour, RetryInterval: 10 * time.Millisecond})
	cancel, errCh := start(t, p)
	defer func() { cancel(); <-errCh }()

	enqueue(t, q, 1)
	require.Eventually(t, func() bool { return w.total() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, calls := w.snapshot()
	assert.Equal(t, 3, calls)
}

func TestPipelineRaisesAlertsForFailedRefresh(t *testing.T) {
	q := NewMemoryQueue(16, 20*time.Millisecond)
	w := &recordingWriter{}
	sink := &alertRecorder{}
	p := NewRefreshPipeline(q, newRefresher(t), w, alerts.NewScorer(alerts.Config{}), sink, Options{Workers: 1, BatchSize: 1, FlushInterval: time.Hour})
	cancel, errCh := start(t, p)
	defer func() { cancel(); <-errCh }()

	enqueue(t, q, 42)
	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	batches, _ := w.snapshot()
	require.Len(t, batches, 1)
	assert.False(t, batches[0][0].Success)
	assert.Contains(t, batches[0][0].Error, "42")
	assert.Equal(t, models.OpsCritical, sink.alerts[0].Severity)
}

func TestPipelineSkipsMalformedJobs(t *testing.T) {
	src := &sliceSource{payloads: [][]byte{[]byte("{nope"), []byte(`{"job_id":"job-x","connector_id":1}`)}}
	w := &recordingWriter{}
	p := NewRefreshPipeline(src, newRefresher(t), w, nil, nil, Options{Workers: 1, BatchSize: 1, FlushInterval: time.Hour})
	cancel, errCh := start(t, p)
	defer func() { cancel(); <-errCh }()

	require.Eventually(t, func() bool { return w.total() == 1 }, 2*time.Second, 10*time.Millisecond)
	batches, _ := w.snapshot()
	assert.Equal(t, "job-x", batches[0][0].JobID)
}

type sliceSource struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *sliceSource) Pop(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if len(s.payloads) > 0 {
		p := s.payloads[0]
		s.payloads = s.payloads[1:]
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (s *sliceSource) Close() error { return nil }

func TestRefresherUnknownConnector(t *testing.T) {
	out := newRefresher(t).Run(context.Background(), models.RefreshJob{JobID: "j", ConnectorID: 999})
	assert.False(t, out.Success)
	assert.Equal(t, "connector with ID 999 not found", out.Error)
	assert.False(t, out.FinishedAt.IsZero())
}

func TestRefresherKeepsQuality(t *testing.T) {
	store := fixtures.MustNew(fixtures.Options{})
	r := NewRefresher(store, 0)
	c, ok := store.Connector(4)
	require.True(t, ok)

	out := r.Run(context.Background(), models.RefreshJob{JobID: "j", ConnectorID: 4})
	assert.True(t, out.Success)
	assert.Equal(t, c.Quality, out.Quality)
	assert.Equal(t, models.StatusGreen, out.Freshness.Status)
}

func TestRefresherCancelled(t *testing.T) {
	r := NewRefresher(fixtures.MustNew(fixtures.Options{}), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := r.Run(ctx, models.RefreshJob{ConnectorID: 1})
	assert.False(t, out.Success)
	assert.Equal(t, context.Canceled.Error(), out.Error)
}

func TestMemoryQueuePopTimeout(t *testing.T) {
	q := NewMemoryQueue(1, 10*time.Millisecond)
	payload, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, payload)

	enqueue(t, q, 1)
	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = q.Enqueue(ctx, models.RefreshJob{JobID: "overflow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
