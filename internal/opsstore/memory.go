package opsstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"opsdash/pkg/models"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	metrics []models.OpsMetric
	alerts  []models.OpsAlert
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now}
}

func (s *MemoryStore) ListMetrics(_ context.Context, q MetricQuery) ([]models.OpsMetric, error) {
	skip, limit := Normalize(q.Skip, q.Limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q.Name == "" {
		return page(s.metrics, skip, limit), nil
	}
	var matched []models.OpsMetric
	for _, m := range s.metrics {
		if m.Name == q.Name {
			matched = append(matched, m)
		}
	}
	return page(matched, skip, limit), nil
}

func (s *MemoryStore) GetMetric(_ context.Context, id string) (models.OpsMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.metrics {
		if m.ID == id {
			return m, nil
		}
	}
	return models.OpsMetric{}, fmt.Errorf("metric %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) CreateMetric(_ context.Context, m models.OpsMetric) (models.OpsMetric, error) {
	if err := ValidateMetric(m); err != nil {
		return models.OpsMetric{}, err
	}
	m.ID = uuid.NewString()
	m.Timestamp = s.now().UTC()
	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	s.mu.Unlock()
	return m, nil
}

func (s *MemoryStore) ListAlerts(_ context.Context, q AlertQuery) ([]models.OpsAlert, error) {
	skip, limit := Normalize(q.Skip, q.Limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !q.ActiveOnly {
		return copyAlerts(page(s.alerts, skip, limit)), nil
	}
	var active []models.OpsAlert
	for _, a := range s.alerts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return copyAlerts(page(active, skip, limit)), nil
}

func (s *MemoryStore) GetAlert(_ context.Context, id string) (models.OpsAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.alertIndex(id); i >= 0 {
		return cloneAlert(s.alerts[i]), nil
	}
	return models.OpsAlert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) CreateAlert(_ context.Context, a models.OpsAlert) (models.OpsAlert, error) {
	if err := ValidateAlert(a); err != nil {
		return models.OpsAlert{}, err
	}
	a.ID = uuid.NewString()
	a.IsActive = true
	a.CreatedAt = s.now().UTC()
	a.ResolvedAt = nil
	s.mu.Lock()
	s.alerts = append(s.alerts, a)
	s.mu.Unlock()
	return a, nil
}

func (s *MemoryStore) UpdateAlert(_ context.Context, id string, upd models.OpsAlertUpdate) (models.OpsAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.alertIndex(id)
	if i < 0 {
		return models.OpsAlert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	applyUpdate(&s.alerts[i], upd, s.now())
	return cloneAlert(s.alerts[i]), nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := Counts{Metrics: len(s.metrics), Alerts: len(s.alerts)}
	for _, a := range s.alerts {
		if a.IsActive {
			c.ActiveAlerts++
		}
	}
	return c, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) alertIndex(id string) int {
	for i, a := range s.alerts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func cloneAlert(a models.OpsAlert) models.OpsAlert {
	if a.ResolvedAt != nil {
		ts := *a.ResolvedAt
		a.ResolvedAt = &ts
	}
	return a
}

func copyAlerts(in []models.OpsAlert) []models.OpsAlert {
	for i := range in {
		in[i] = cloneAlert(in[i])
	}
	return in
}
