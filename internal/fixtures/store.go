// Package fixtures holds the static data the dashboard access layer serves.
// A Store is built once and never mutated; every accessor hands out a copy.
package fixtures

import (
	"fmt"
	"time"

	"opsdash/pkg/models"
)

// Options controls the parts of the fixtures that depend on build time.
type Options struct {
	// Now anchors alert timestamps and trend axes. Defaults to time.Now.
	Now func() time.Time
	// Seed drives the generated trend values.
	Seed uint64
}

// Store is the read-only fixture set.
type Store struct {
	techStack   models.TechStack
	nodeMetrics map[string]models.NodeMetrics
	metrics     models.DashboardMetrics
	alerts      []models.QualityAlert
	connectors  []models.Connector
	trends      map[string]models.TrendData
	lineage     []models.LineageNode
}

// New builds the fixture set. It fails only if a hardcoded record is invalid.
func New(opts Options) (*Store, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now().UTC()

	s := &Store{
		nodeMetrics: nodeMetrics(),
		metrics:     dashboardMetrics(),
		trends:      buildTrends(now, opts.Seed),
	}

	var err error
	if s.techStack, err = techStack(); err != nil {
		return nil, fmt.Errorf("build tech stack fixture: %w", err)
	}
	if s.alerts, err = qualityAlerts(now); err != nil {
		return nil, fmt.Errorf("build alert fixture: %w", err)
	}
	if s.connectors, err = connectors(); err != nil {
		return nil, fmt.Errorf("build connector fixture: %w", err)
	}
	if s.lineage, err = lineage(); err != nil {
		return nil, fmt.Errorf("build lineage fixture: %w", err)
	}
	return s, nil
}

// MustNew is New for static initialisation.
func MustNew(opts Options) *Store {
	s, err := New(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// TechStack returns the topology diagram.
func (s *Store) TechStack() models.TechStack {
	return s.techStack.Clone()
}

// NodeMetrics returns the metrics for a topology node.
func (s *Store) NodeMetrics(nodeID string) (models.NodeMetrics, bool) {
	m, ok := s.nodeMetrics[nodeID]
	return m, ok
}

// DashboardMetrics returns the KPI cards.
func (s *Store) DashboardMetrics() models.DashboardMetrics {
	return s.metrics
}

// QualityAlerts returns the quality alerts.
func (s *Store) QualityAlerts() []models.QualityAlert {
	out := make([]models.QualityAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Connectors returns every connector.
func (s *Store) Connectors() []models.Connector {
	out := make([]models.Connector, len(s.connectors))
	copy(out, s.connectors)
	return out
}

// Connector scans for a connector by id.
func (s *Store) Connector(id int) (models.Connector, bool) {
	for _, c := range s.connectors {
		if c.ID == id {
			return c, true
		}
	}
	return models.Connector{}, false
}

// Trend returns the series for a time range.
func (s *Store) Trend(timeRange string) (models.TrendData, bool) {
	t, ok := s.trends[timeRange]
	if !ok {
		return models.TrendData{}, false
	}
	return t.Clone(), true
}

// Lineage returns every lineage node.
func (s *Store) Lineage() []models.LineageNode {
	out := make([]models.LineageNode, len(s.lineage))
	for i, n := range s.lineage {
		out[i] = n.Clone()
	}
	return out
}
