package opsstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsdash/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS ops_metrics (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	ts TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ops_metrics_name_idx ON ops_metrics (name);
CREATE TABLE IF NOT EXISTS ops_alerts (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	resolved_at TIMESTAMPTZ
);`

// PostgresStore keeps ops records in Postgres.
type PostgresStore struct {
	Pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore connects, pings and ensures the schema.
func NewPostgresStore(ctx context.Context, dsn string, now func() time.Time) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	if now == nil {
		now = time.Now
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ops schema: %w", err)
	}
	return &PostgresStore{Pool: pool, now: now}, nil
}

func (s *PostgresStore) ListMetrics(ctx context.Context, q MetricQuery) ([]models.OpsMetric, error) {
	skip, limit := Normalize(q.Skip, q.Limit)
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, value, unit, ts FROM ops_metrics
		WHERE ($1 = '' OR name = $1)
		ORDER BY seq OFFSET $2 LIMIT $3`, q.Name, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()
	results := []models.OpsMetric{}
	for rows.Next() {
		var m models.OpsMetric
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Unit, &m.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func (s *PostgresStore) GetMetric(ctx context.Context, id string) (models.OpsMetric, error) {
	var m models.OpsMetric
	err := s.Pool.QueryRow(ctx, `SELECT id, name, value, unit, ts FROM ops_metrics WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Value, &m.Unit, &m.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OpsMetric{}, fmt.Errorf("metric %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.OpsMetric{}, fmt.Errorf("get metric %s: %w", id, err)
	}
	return m, nil
}

func (s *PostgresStore) CreateMetric(ctx context.Context, m models.OpsMetric) (models.OpsMetric, error) {
	if err := ValidateMetric(m); err != nil {
		return models.OpsMetric{}, err
	}
	m.ID = uuid.NewString()
	m.Timestamp = s.now().UTC()
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO ops_metrics (id, name, value, unit, ts) VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.Name, m.Value, m.Unit, m.Timestamp)
	if err != nil {
		return models.OpsMetric{}, fmt.Errorf("insert metric: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, q AlertQuery) ([]models.OpsAlert, error) {
	skip, limit := Normalize(q.Skip, q.Limit)
	rows, err := s.Pool.Query(ctx, `
		SELECT id, title, message, severity, is_active, created_at, resolved_at FROM ops_alerts
		WHERE (NOT $1 OR is_active)
		ORDER BY seq OFFSET $2 LIMIT $3`, q.ActiveOnly, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	results := []models.OpsAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (s *PostgresStore) GetAlert(ctx context.Context, id string) (models.OpsAlert, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, title, message, severity, is_active, created_at, resolved_at FROM ops_alerts WHERE id=$1`, id)
	a, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OpsAlert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("get alert %s: %w", id, err)
	}
	return a, nil
}

func (s *PostgresStore) CreateAlert(ctx context.Context, a models.OpsAlert) (models.OpsAlert, error) {
	if err := ValidateAlert(a); err != nil {
		return models.OpsAlert{}, err
	}
	a.ID = uuid.NewString()
	a.IsActive = true
	a.CreatedAt = s.now().UTC()
	a.ResolvedAt = nil
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO ops_alerts (id, title, message, severity, is_active, created_at) VALUES ($1,$2,$3,$4,TRUE,$5)`,
		a.ID, a.Title, a.Message, a.Severity, a.CreatedAt)
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) UpdateAlert(ctx context.Context, id string, upd models.OpsAlertUpdate) (models.OpsAlert, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("begin alert update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, title, message, severity, is_active, created_at, resolved_at FROM ops_alerts WHERE id=$1 FOR UPDATE`, id)
	a, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OpsAlert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.OpsAlert{}, fmt.Errorf("get alert %s: %w", id, err)
	}

	applyUpdate(&a, upd, s.now())
	if _, err := tx.Exec(ctx, `UPDATE ops_alerts SET is_active=$1, resolved_at=$2 WHERE id=$3`,
		a.IsActive, a.ResolvedAt, id); err != nil {
		return models.OpsAlert{}, fmt.Errorf("update alert %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.OpsAlert{}, fmt.Errorf("commit alert update: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.Pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM ops_metrics),
		       (SELECT count(*) FROM ops_alerts),
		       (SELECT count(*) FROM ops_alerts WHERE is_active)`).
		Scan(&c.Metrics, &c.Alerts, &c.ActiveAlerts)
	if err != nil {
		return Counts{}, fmt.Errorf("count ops records: %w", err)
	}
	return c, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func scanAlert(row pgx.Row) (models.OpsAlert, error) {
	var a models.OpsAlert
	err := row.Scan(&a.ID, &a.Title, &a.Message, &a.Severity, &a.IsActive, &a.CreatedAt, &a.ResolvedAt)
	return a, err
}
