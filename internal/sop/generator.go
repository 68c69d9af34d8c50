package sop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsdash/pkg/models"
)

// DocumentTitle is the title of every generated document.
const DocumentTitle = "Standard Operating Procedure: Data Pipeline Management"

var (
	// ErrNoDataPoints is returned when a request selects nothing.
	ErrNoDataPoints = errors.New("at least one data point must be provided")
	// ErrInvalidRequest wraps data point validation failures.
	ErrInvalidRequest = errors.New("invalid SOP request")
)

var audienceDescriptions = map[string]string{
	"technical": "This document is intended for data engineers and technical staff responsible for maintaining data pipelines.",
	"business":  "This document is intended for business users who rely on these data sources for analytics and reporting.",
	"executive": "This document provides a high-level overview for executive stakeholders on data pipeline operations.",
	"mixed":     "This document is intended for a diverse audience including both technical and business stakeholders.",
}

// GeneratorConfig controls local generation.
type GeneratorConfig struct {
	// Delay simulates processing time before a document is built.
	Delay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Generator builds SOP documents from selected data points.
type Generator struct {
	delay time.Duration
	now   func() time.Time
}

// NewGenerator creates a local generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Generator{delay: cfg.Delay, now: cfg.Now}
}

// Generate builds a document for req.
func (g *Generator) Generate(ctx context.Context, req models.SOPRequest) (*models.SOPDocument, error) {
	if len(req.DataPoints) == 0 {
		return nil, ErrNoDataPoints
	}
	if err := models.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	template := req.Template
	if template == "" {
		template = models.TemplateDefault
	}
	audience := req.Audience
	if audience == "" {
		audience = "technical"
	}

	b := builder{points: req.DataPoints, goals: req.Goals, now: g.now()}
	b.patterns = classifyRefresh(req.DataPoints)

	var sections []models.SOPSection
	switch template {
	case models.TemplateDetailed:
		sections = b.detailed()
	case models.TemplateQuickstart:
		sections = b.quickstart()
	default:
		sections = b.standard()
	}

	sources, counts := countSources(req.DataPoints)
	return &models.SOPDocument{
		Title: DocumentTitle,
		Summary: fmt.Sprintf("This SOP covers the management of %d data points across %s sources",
			len(req.DataPoints), strings.Join(sources, ", ")),
		Audience: AudienceDescription(audience),
		Sections: sections,
		DataPointsSummary: models.DataPointsSummary{
			TotalPoints: len(req.DataPoints),
			BySource:    counts,
		},
	}, nil
}

// Respond wraps Generate in the wire envelope. Failures are reported in the
// envelope rather than returned.
func (g *Generator) Respond(ctx context.Context, req models.SOPRequest) models.SOPResponse {
	doc, err := g.Generate(ctx, req)
	if err != nil {
		return models.SOPResponse{Success: false, Error: err.Error()}
	}
	return models.SOPResponse{
		Success:     true,
		SOPDocument: doc,
		GeneratedAt: g.now().Format(time.RFC3339Nano),
	}
}

// AudienceDescription describes who a document is for. Unknown audiences
// get the mixed description.
func AudienceDescription(audience string) string {
	if d, ok := audienceDescriptions[audience]; ok {
		return d
	}
	return audienceDescriptions["mixed"]
}

// countSources returns sources in first-seen order and per-source counts.
func countSources(points []models.DataPoint) ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string
	for _, p := range points {
		if _, seen := counts[p.Source]; !seen {
			order = append(order, p.Source)
		}
		counts[p.Source]++
	}
	return order, counts
}

type refreshPatterns struct {
	frequent, daily, weekly, other []models.DataPoint
}

func classifyRefresh(points []models.DataPoint) refreshPatterns {
	var p refreshPatterns
	for _, point := range points {
		rate := strings.ToLower(point.RefreshRate)
		switch {
		case strings.Contains(rate, "hour"), strings.Contains(rate, "minute"):
			p.frequent = append(p.frequent, point)
		case strings.Contains(rate, "daily"), strings.Contains(rate, "day"):
			p.daily = append(p.daily, point)
		case strings.Contains(rate, "week"):
			p.weekly = append(p.weekly, point)
		default:
			p.other = append(p.other, point)
		}
	}
	return p
}

// RefreshDescription renders how long ago a timestamp was.
func RefreshDescription(timestamp string, now time.Time) string {
	if timestamp == "" {
		return "Unknown"
	}
	ts, err := parseTimestamp(timestamp, now.Location())
	if err != nil {
		return "Unknown format"
	}
	diff := now.Sub(ts)
	days := int(diff / (24 * time.Hour))
	rest := diff - time.Duration(days)*24*time.Hour
	switch {
	case days > 7:
		return fmt.Sprintf("%d days ago", days)
	case days > 0:
		return fmt.Sprintf("%d day(s) ago", days)
	case rest > time.Hour:
		return fmt.Sprintf("%d hour(s) ago", int(rest/time.Hour))
	case rest > time.Minute:
		return fmt.Sprintf("%d minute(s) ago", int(rest/time.Minute))
	default:
		return "Just now"
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var ts time.Time
		if ts, err = time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
