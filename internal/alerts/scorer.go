package alerts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"opsdash/pkg/models"
)

// Config controls connector health scoring.
type Config struct {
	Window             time.Duration
	Threshold          int
	FreshnessThreshold int
	QualityThreshold   int
	MaxOutcomes        int
	Cooldown           time.Duration
}

// Scorer raises ops alerts for connectors whose refresh outcomes stay
// unhealthy within a window.
type Scorer struct {
	mu          sync.Mutex
	cfg         Config
	byConnector map[int]*connectorState
	now         func() time.Time
}

type connectorState struct {
	outcomes  []models.RefreshOutcome
	lastAlert time.Time
}

// NewScorer creates a new scorer.
func NewScorer(cfg Config) *Scorer {
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.FreshnessThreshold <= 0 {
		cfg.FreshnessThreshold = 80
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 85
	}
	if cfg.MaxOutcomes <= 0 {
		cfg.MaxOutcomes = 50
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}
	return &Scorer{
		cfg:         cfg,
		byConnector: make(map[int]*connectorState),
		now:         time.Now,
	}
}

// AddOutcomes ingests refresh outcomes and returns alerts if triggered.
func (s *Scorer) AddOutcomes(outcomes []models.RefreshOutcome) []models.OpsAlert {
	if len(outcomes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var alertsOut []models.OpsAlert
	for _, o := range outcomes {
		state := s.byConnector[o.ConnectorID]
		if state == nil {
			state = &connectorState{}
			s.byConnector[o.ConnectorID] = state
		}
		if o.FinishedAt.IsZero() {
			o.FinishedAt = s.now()
		}

		state.outcomes = append(state.outcomes, o)
		s.prune(state, o.FinishedAt)

		if s.weight(o) == 0 {
			continue
		}

		score, reasons := s.score(state.outcomes)
		if score < s.cfg.Threshold {
			continue
		}
		if !state.lastAlert.IsZero() && o.FinishedAt.Sub(state.lastAlert) < s.cfg.Cooldown {
			continue
		}

		severity := models.OpsWarning
		if !o.Success || score >= 2*s.cfg.Threshold {
			severity = models.OpsCritical
		}
		alertsOut = append(alertsOut, models.OpsAlert{
			Title:    fmt.Sprintf("Connector %s unhealthy", connectorLabel(o)),
			Message:  fmt.Sprintf("Health score %d over the last %s: %s", score, s.cfg.Window, strings.Join(reasons, "; ")),
			Severity: severity,
		})
		state.lastAlert = o.FinishedAt
	}

	return alertsOut
}

func (s *Scorer) prune(state *connectorState, now time.Time) {
	cutoff := now.Add(-s.cfg.Window)
	idx := 0
	for idx < len(state.outcomes) {
		if !state.outcomes[idx].FinishedAt.Before(cutoff) {
			break
		}
		idx++
	}
	if idx > 0 {
		state.outcomes = state.outcomes[idx:]
	}
	if len(state.outcomes) > s.cfg.MaxOutcomes {
		state.outcomes = state.outcomes[len(state.outcomes)-s.cfg.MaxOutcomes:]
	}
}

// weight is how much one outcome contributes to the window score.
func (s *Scorer) weight(o models.RefreshOutcome) int {
	if !o.Success {
		return 5
	}
	w := 0
	if o.Quality.Value < s.cfg.QualityThreshold {
		w += 3
	}
	if o.Freshness.Value < s.cfg.FreshnessThreshold {
		w += 2
	}
	return w
}

func (s *Scorer) score(outcomes []models.RefreshOutcome) (int, []string) {
	score := 0
	failures, lowQuality, stale := 0, 0, 0
	for _, o := range outcomes {
		score += s.weight(o)
		switch {
		case !o.Success:
			failures++
		default:
			if o.Quality.Value < s.cfg.QualityThreshold {
				lowQuality++
			}
			if o.Freshness.Value < s.cfg.FreshnessThreshold {
				stale++
			}
		}
	}

	var reasons []string
	if failures > 0 {
		reasons = append(reasons, fmt.Sprintf("%d failed refresh(es)", failures))
	}
	if lowQuality > 0 {
		reasons = append(reasons, fmt.Sprintf("quality below %d in %d refresh(es)", s.cfg.QualityThreshold, lowQuality))
	}
	if stale > 0 {
		reasons = append(reasons, fmt.Sprintf("freshness below %d in %d refresh(es)", s.cfg.FreshnessThreshold, stale))
	}
	return score, reasons
}

func connectorLabel(o models.RefreshOutcome) string {
	if o.ConnectorName != "" {
		return o.ConnectorName
	}
	return fmt.Sprintf("#%d", o.ConnectorID)
}
