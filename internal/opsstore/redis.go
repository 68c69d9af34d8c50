package opsstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"opsdash/pkg/models"
)

// RedisConfig configures Redis access for ops records.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Now       func() time.Time
}

// RedisStore keeps one hash per record and sorted-set indexes scored by a
// creation sequence.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore constructs a Redis-backed ops store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "opsdash:ops"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis ops store: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix), now: cfg.Now}, nil
}

func (s *RedisStore) ListMetrics(ctx context.Context, q MetricQuery) ([]models.OpsMetric, error) {
	skip, limit := Normalize(q.Skip, q.Limit)
	index := s.metricsKey()
	if q.Name != "" {
		index = s.metricNameKey(q.Name)
	}
	ids, err := s.client.ZRange(ctx, index, int64(skip), int64(skip+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read metric index: %w", err)
	}
	out := make([]models.OpsMetric, 0, len(ids))
	for _, id := range ids {
		m, err := s.GetMetric(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) GetMetric(ctx context.Context, id string) (models.OpsMetric, error) {
	hash, err := s.client.HGetAll(ctx, s.metricKey(id)).Result()
	if err != nil {
		return models.OpsMetric{}, fmt.Errorf("read metric %s: %w", id, err)
	}
	if len(hash) == 0 {
		return models.OpsMetric{}, fmt.Errorf("metric %s: %w", id, ErrNotFound)
	}
	value, _ := strconv.ParseFloat(hash["value"], 64)
	ts, _ := time.Parse(time.RFC3339Nano, hash["timestamp"])
	return models.OpsMetric{
		ID:        hash["id"],
		Name:      hash["name"],
		Value:     value,
		Unit:      hash["unit"],
		Timestamp: ts,
	}, nil
}

func (s *RedisStore) CreateMetric(ctx context.Context, m models.OpsMetric) (models.OpsMetric, error) {
	if err := ValidateMetric(m); err != nil {
		return models.OpsMetric{}, err
	}
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return models.OpsMetric{}, fmt.Errorf("allocate metric sequence: %w", err)
	}
	m.ID = uuid.NewString()
	m.Timestamp = s.now().UTC()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.metricKey(m.ID),
		"id", m.ID,
		"name", m.Name,
		"value", strconv.FormatFloat(m.Value, 'f', -1, 64),
		"unit", m.Unit,
		"timestamp", m.Timestamp.Format(time.RFC3339Nano),
	)
	z := redis.Z{Score: float64(seq), Member: m.ID}
	pipe.ZAdd(ctx, s.metricsKey(), z)
	pipe.ZAdd(ctx, s.metricNameKey(m.Name), z)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.OpsMetric{}, fmt.Errorf("write metric: %w", err)
	}
	return m, nil
}

func (s *RedisStore) ListAlerts(ctx context.Context, q AlertQuery) ([]models.OpsAlert, error) {
	skip, limit := Normalize(q.Skip, q.Limit)
	index := s.alertsKey()
	if q.ActiveOnly {
		index = s.activeAlertsKey()
	}
	ids, err := s.client.ZRange(ctx, index, int64(skip), int64(skip+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read alert index: %w", err)
	}
	out := make([]models.OpsAlert, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetAlert(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *RedisStore) GetAlert(ctx context.Context, id string) (models.OpsAlert, error) {
	hash, err := s.client.HGetAll(ctx, s.alertKey(id)).Result()
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("read alert %s: %w", id, err)
	}
	if len(hash) == 0 {
		return models.OpsAlert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	created, _ := time.Parse(time.RFC3339Nano, hash["created_at"])
	a := models.OpsAlert{
		ID:        hash["id"],
		Title:     hash["title"],
		Message:   hash["message"],
		Severity:  hash["severity"],
		IsActive:  hash["is_active"] == "1",
		CreatedAt: created,
	}
	if raw := hash["resolved_at"]; raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			a.ResolvedAt = &ts
		}
	}
	return a, nil
}

func (s *RedisStore) CreateAlert(ctx context.Context, a models.OpsAlert) (models.OpsAlert, error) {
	if err := ValidateAlert(a); err != nil {
		return models.OpsAlert{}, err
	}
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("allocate alert sequence: %w", err)
	}
	a.ID = uuid.NewString()
	a.IsActive = true
	a.CreatedAt = s.now().UTC()
	a.ResolvedAt = nil

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.alertKey(a.ID), alertFields(a)...)
	z := redis.Z{Score: float64(seq), Member: a.ID}
	pipe.ZAdd(ctx, s.alertsKey(), z)
	pipe.ZAdd(ctx, s.activeAlertsKey(), z)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.OpsAlert{}, fmt.Errorf("write alert: %w", err)
	}
	return a, nil
}

func (s *RedisStore) UpdateAlert(ctx context.Context, id string, upd models.OpsAlertUpdate) (models.OpsAlert, error) {
	a, err := s.GetAlert(ctx, id)
	if err != nil {
		return models.OpsAlert{}, err
	}
	applyUpdate(&a, upd, s.now())

	seq, err := s.client.ZScore(ctx, s.alertsKey(), id).Result()
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("read alert sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.alertKey(id), alertFields(a)...)
	if a.IsActive {
		pipe.ZAdd(ctx, s.activeAlertsKey(), redis.Z{Score: seq, Member: id})
	} else {
		pipe.ZRem(ctx, s.activeAlertsKey(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return models.OpsAlert{}, fmt.Errorf("update alert: %w", err)
	}
	return a, nil
}

func (s *RedisStore) Counts(ctx context.Context) (Counts, error) {
	pipe := s.client.Pipeline()
	metrics := pipe.ZCard(ctx, s.metricsKey())
	alerts := pipe.ZCard(ctx, s.alertsKey())
	active := pipe.ZCard(ctx, s.activeAlertsKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return Counts{}, fmt.Errorf("count ops records: %w", err)
	}
	return Counts{
		Metrics:      int(metrics.Val()),
		Alerts:       int(alerts.Val()),
		ActiveAlerts: int(active.Val()),
	}, nil
}

// Close closes Redis resources.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func alertFields(a models.OpsAlert) []interface{} {
	active := "0"
	if a.IsActive {
		active = "1"
	}
	resolved := ""
	if a.ResolvedAt != nil {
		resolved = a.ResolvedAt.UTC().Format(time.RFC3339Nano)
	}
	return []interface{}{
		"id", a.ID,
		"title", a.Title,
		"message", a.Message,
		"severity", a.Severity,
		"is_active", active,
		"created_at", a.CreatedAt.Format(time.RFC3339Nano),
		"resolved_at", resolved,
	}
}

func (s *RedisStore) seqKey() string { return s.prefix + ":seq" }
func (s *RedisStore) metricsKey() string { return s.prefix + ":metrics" }
func (s *RedisStore) metricNameKey(name string) string { return s.prefix + ":metrics:name:" + name }
func (s *RedisStore) metricKey(id string) string { return s.prefix + ":metric:" + id }
func (s *RedisStore) alertsKey() string { return s.prefix + ":alerts" }
func (s *RedisStore) activeAlertsKey() string { return s.prefix + ":alerts:active" }
func (s *RedisStore) alertKey(id string) string { return s.prefix + ":alert:" + id }
