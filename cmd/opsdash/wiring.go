package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opsdash/config"
	"opsdash/internal/alerts"
	"opsdash/internal/dashboard"
	"opsdash/internal/fixtures"
	inputredis "opsdash/internal/input/redis"
	"opsdash/internal/logger"
	"opsdash/internal/opsstore"
	"opsdash/internal/output/natsbus"
	"opsdash/internal/output/resultjson"
	"opsdash/internal/pipeline"
	"opsdash/pkg/models"
)

// jobQueue is both ends of the refresh job queue.
type jobQueue interface {
	dashboard.Enqueuer
	pipeline.Source
	Len(ctx context.Context) (int64, error)
}

func buildFixtures(cfg *config.Config) (*fixtures.Store, error) {
	store, err := fixtures.New(fixtures.Options{Seed: cfg.OpsDash.Fixtures.Seed})
	if err != nil {
		return nil, fmt.Errorf("failed to build fixtures: %w", err)
	}
	return store, nil
}

func buildLatency(cfg *config.Config) dashboard.Latency {
	if cfg.OpsDash.Latency.Disabled {
		return dashboard.NoLatency()
	}
	return dashboard.DefaultLatency().WithOverrides(cfg.OpsDash.Latency.Operations)
}

func buildService(cfg *config.Config, store *fixtures.Store, queue dashboard.Enqueuer) (*dashboard.Service, error) {
	return dashboard.NewService(store, dashboard.Config{
		Latency: buildLatency(cfg),
		Queue:   queue,
	})
}

func buildQueue(cfg *config.Config) (jobQueue, error) {
	qc := cfg.OpsDash.Pipeline.Queue
	switch strings.ToLower(qc.Mode) {
	case "memory":
		logger.Infof("Refresh queue: memory (capacity %d)", qc.Capacity)
		return pipeline.NewMemoryQueue(qc.Capacity, qc.BlockTimeout), nil
	case "redis":
		q, err := inputredis.NewQueue(inputredis.Config{
			Addr:         qc.Redis.Addr,
			Password:     qc.Redis.Password,
			DB:           qc.Redis.DB,
			Key:          qc.Redis.Key,
			BlockTimeout: qc.BlockTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis queue: %w", err)
		}
		logger.Infof("Refresh queue: redis (%s)", qc.Redis.Addr)
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue mode: %s", qc.Mode)
	}
}

func buildOpsStore(ctx context.Context, cfg *config.Config) (opsstore.Store, error) {
	sc := cfg.OpsDash.Store
	store, err := opsstore.Open(ctx, opsstore.Config{
		Mode: sc.Mode,
		Redis: opsstore.RedisConfig{
			Addr:      sc.Redis.Addr,
			Password:  sc.Redis.Password,
			DB:        sc.Redis.DB,
			KeyPrefix: sc.Redis.Key,
		},
		PostgresDSN: sc.Postgres.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ops store: %w", err)
	}
	logger.Infof("Ops store: %s", sc.Mode)

	seed := sc.Seed || strings.EqualFold(sc.Mode, "memory")
	if seed {
		counts, err := store.Counts(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to count ops records: %w", err)
		}
		if counts.Metrics == 0 && counts.Alerts == 0 {
			if err := opsstore.SeedSamples(ctx, store); err != nil {
				store.Close()
				return nil, err
			}
			logger.Infof("Ops store seeded with sample metrics and alerts")
		}
	}
	return store, nil
}

func buildResultWriter(cfg *config.Config) (pipeline.ResultWriter, error) {
	oc := cfg.OpsDash.Pipeline.Output
	switch strings.ToLower(oc.Mode) {
	case "file":
		w, err := resultjson.NewWriter(oc.File.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create outcome file writer: %w", err)
		}
		logger.Infof("Outcome output mode: file (%s)", oc.File.Path)
		return w, nil
	case "nats":
		p, err := natsbus.NewPublisher(oc.NATS.URL, oc.NATS.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to create outcome publisher: %w", err)
		}
		logger.Infof("Outcome output mode: nats (%s %s)", oc.NATS.URL, p.Subject())
		return p, nil
	default:
		return nil, fmt.Errorf("unknown output mode: %s", oc.Mode)
	}
}

func buildScorer(cfg *config.Config) *alerts.Scorer {
	ac := cfg.OpsDash.Alerts
	if !ac.Enabled {
		return nil
	}
	return alerts.NewScorer(alerts.Config{
		FreshnessThreshold: ac.FreshnessThreshold,
		QualityThreshold:   ac.QualityThreshold,
		Cooldown:           ac.Cooldown,
	})
}

// buildPipeline assembles a refresh pipeline reading from source. Alerts
// raised by the scorer land in ops.
func buildPipeline(cfg *config.Config, source pipeline.Source, store *fixtures.Store, ops opsstore.Store) (*pipeline.RefreshPipeline, error) {
	writer, err := buildResultWriter(cfg)
	if err != nil {
		return nil, err
	}
	// A refresh costs what the access layer charges for triggering one.
	runner := pipeline.NewRefresher(store, buildLatency(cfg).For(dashboard.OpRefreshConnector))

	var sink pipeline.AlertSink
	if ops != nil {
		sink = ops
	}
	pc := cfg.OpsDash.Pipeline
	return pipeline.NewRefreshPipeline(source, runner, writer, buildScorer(cfg), sink, pipeline.Options{
		Workers:       pc.Workers,
		BatchSize:     pc.BatchSize,
		FlushInterval: pc.FlushInterval,
	}), nil
}

// enqueueAll is used by the worker's --enqueue flag to seed a run.
func enqueueAll(ctx context.Context, q dashboard.Enqueuer, ids []int) error {
	for _, id := range ids {
		job := models.RefreshJob{
			JobID:       fmt.Sprintf("seed-%d-%d", id, time.Now().UnixNano()),
			ConnectorID: id,
			RequestedAt: time.Now().UTC(),
		}
		if err := q.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("enqueue connector %d: %w", id, err)
		}
	}
	return nil
}

// logBacklog reports how many jobs are waiting before consumption starts.
func logBacklog(ctx context.Context, q jobQueue) (int64, error) {
	n, err := q.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	logger.Infof("Refresh queue backlog: %d job(s)", n)
	return n, nil
}
