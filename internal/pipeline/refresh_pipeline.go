package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"opsdash/internal/alerts"
	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "pipeline",
		Name:      "jobs_total",
		Help:      "Refresh jobs processed by result.",
	}, []string{"result"})

	flushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "pipeline",
		Name:      "flushes_total",
		Help:      "Outcome batch flushes by result.",
	}, []string{"result"})

	alertsRaised = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "pipeline",
		Name:      "alerts_raised_total",
		Help:      "Ops alerts raised by the health scorer.",
	})
)

// Options configures a RefreshPipeline.
type Options struct {
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	RetryInterval time.Duration
}

// RefreshPipeline consumes refresh jobs, runs them and writes outcomes.
type RefreshPipeline struct {
	source        Source
	runner        Runner
	writer        ResultWriter
	scorer        *alerts.Scorer
	alertSink     AlertSink
	workers       int
	batchSize     int
	flushInterval time.Duration
	retryInterval time.Duration
}

// NewRefreshPipeline creates a pipeline. scorer and alertSink are optional.
func NewRefreshPipeline(source Source, runner Runner, writer ResultWriter, scorer *alerts.Scorer, alertSink AlertSink, opts Options) *RefreshPipeline {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	return &RefreshPipeline{
		source:        source,
		runner:        runner,
		writer:        writer,
		scorer:        scorer,
		alertSink:     alertSink,
		workers:       opts.Workers,
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		retryInterval: opts.RetryInterval,
	}
}

// Run starts the pipeline loop and blocks until ctx is done and the last
// batch has been flushed.
func (p *RefreshPipeline) Run(ctx context.Context) error {
	logger.Infof("Refresh pipeline started (workers=%d batch=%d flush=%s)", p.workers, p.batchSize, p.flushInterval)

	msgCh := make(chan []byte, p.workers*4)
	outCh := make(chan models.RefreshOutcome, p.workers*4)

	var readers, workers, writers sync.WaitGroup

	readers.Add(1)
	go func() {
		defer readers.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	for i := 0; i < p.workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.workerLoop(ctx, msgCh, outCh)
		}()
	}

	writers.Add(1)
	go func() {
		defer writers.Done()
		p.writeLoop(ctx, outCh)
	}()

	readers.Wait()
	workers.Wait()
	close(outCh)
	writers.Wait()
	logger.Infof("Refresh pipeline stopped")
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *RefreshPipeline) Close() error {
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close result writer: %v", err)
		}
	}
	if p.source != nil {
		return p.source.Close()
	}
	return nil
}

func (p *RefreshPipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		if ctx.Err() != nil {
			return
		}
		payload, err := p.source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop refresh job: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if payload == nil {
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			logger.Warnf("Dropping refresh job popped during shutdown")
			return
		}
	}
}

func (p *RefreshPipeline) workerLoop(ctx context.Context, in <-chan []byte, out chan<- models.RefreshOutcome) {
	for payload := range in {
		var job models.RefreshJob
		if err := json.Unmarshal(payload, &job); err != nil {
			logger.Warnf("Failed to parse refresh job: %v", err)
			jobsTotal.WithLabelValues("invalid").Inc()
			continue
		}
		if ctx.Err() != nil {
			logger.Warnf("Dropping refresh job %s during shutdown", job.JobID)
			continue
		}

		outcome := p.runner.Run(ctx, job)
		if outcome.Success {
			jobsTotal.WithLabelValues("success").Inc()
		} else {
			jobsTotal.WithLabelValues("failure").Inc()
			logger.Warnf("Refresh job %s for connector %d failed: %s", job.JobID, job.ConnectorID, outcome.Error)
		}
		out <- outcome
	}
}

func (p *RefreshPipeline) writeLoop(ctx context.Context, in <-chan models.RefreshOutcome) {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	var batch []models.RefreshOutcome

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for {
			err := p.writer.WriteOutcomes(batch)
			if err == nil {
				flushesTotal.WithLabelValues("ok").Inc()
				break
			}
			flushesTotal.WithLabelValues("error").Inc()
			logger.Errorf("Failed to write refresh outcomes: %v", err)
			select {
			case <-ctx.Done():
				logger.Warnf("Dropping %d refresh outcomes on shutdown", len(batch))
				batch = nil
				return
			case <-time.After(p.retryInterval):
			}
		}
		p.raiseAlerts(batch)
		batch = nil
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case o, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, o)
			if len(batch) >= p.batchSize {
				flush()
			}
		}
	}
}

func (p *RefreshPipeline) raiseAlerts(batch []models.RefreshOutcome) {
	if p.scorer == nil {
		return
	}
	raised := p.scorer.AddOutcomes(batch)
	if len(raised) == 0 || p.alertSink == nil {
		return
	}
	// Alerts are stored even during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, a := range raised {
		if _, err := p.alertSink.CreateAlert(ctx, a); err != nil {
			logger.Errorf("Failed to store alert %q: %v", a.Title, err)
			continue
		}
		alertsRaised.Inc()
		logger.Infof("Raised %s alert: %s", a.Severity, a.Title)
	}
}
