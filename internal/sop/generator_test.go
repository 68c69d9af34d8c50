package sop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/pkg/models"
)

var genNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func points() []models.DataPoint {
	return []models.DataPoint{
		{ID: "1", Name: "Sales Transactions", Table: "SALES_FACT", RefreshRate: "Hourly", Source: "snowflake", LastRefreshed: "2026-05-10T09:30:00Z"},
		{ID: "2", Name: "Customer Profiles", Table: "DIM_CUSTOMER", RefreshRate: "Daily", Source: "snowflake"},
		{ID: "3", Name: "Web Traffic", Table: "web_traffic", RefreshRate: "Weekly", Source: "fabric"},
		{ID: "4", Name: "Ledger", Table: "gl", RefreshRate: "On demand", Source: "fabric"},
	}
}

func titles(sections []models.SOPSection) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Title
	}
	return out
}

func newGen() *Generator {
	return NewGenerator(GeneratorConfig{Now: func() time.Time { return genNow }})
}

func TestGenerateTemplates(t *testing.T) {
	g := newGen()
	ctx := context.Background()

	doc, err := g.Generate(ctx, models.SOPRequest{DataPoints: points()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Overview", "Data Sources", "Monitoring Procedures", "Troubleshooting Guide", "Refresh Schedule"}, titles(doc.Sections))

	doc, err = g.Generate(ctx, models.SOPRequest{DataPoints: points(), Template: models.TemplateDetailed})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Overview", "Data Sources", "Monitoring Procedures", "Troubleshooting Guide", "Refresh Schedule",
		"Data Lineage", "Quality Control Measures", "Escalation Procedures", "Compliance and Governance",
	}, titles(doc.Sections))

	doc, err = g.Generate(ctx, models.SOPRequest{DataPoints: points(), Template: models.TemplateQuickstart, Goals: "zero stale dashboards"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Quick Start", "Key Data Points", "Common Issues"}, titles(doc.Sections))
	assert.Contains(t, doc.Sections[0].Content, "Key objectives: zero stale dashboards")
	assert.Contains(t, doc.Sections[1].Content, "Last updated: 2 hour(s) ago")
	assert.Contains(t, doc.Sections[1].Content, "Last updated: Unknown")
}

func TestGenerateSummary(t *testing.T) {
	doc, err := newGen().Generate(context.Background(), models.SOPRequest{DataPoints: points(), Audience: "executive"})
	require.NoError(t, err)

	assert.Equal(t, DocumentTitle, doc.Title)
	assert.Equal(t, "This SOP covers the management of 4 data points across snowflake, fabric sources", doc.Summary)
	assert.Equal(t, audienceDescriptions["executive"], doc.Audience)
	assert.Equal(t, 4, doc.DataPointsSummary.TotalPoints)
	assert.Equal(t, map[string]int{"snowflake": 2, "fabric": 2}, doc.DataPointsSummary.BySource)
}

func TestGenerateRefreshScheduleGroups(t *testing.T) {
	doc, err := newGen().Generate(context.Background(), models.SOPRequest{DataPoints: points()})
	require.NoError(t, err)

	schedule := doc.Sections[4].Content
	assert.Contains(t, schedule, "### Hourly/Sub-hourly\n- **Sales Transactions** (snowflake): Hourly")
	assert.Contains(t, schedule, "### Daily\n- **Customer Profiles** (snowflake): Daily")
	assert.Contains(t, schedule, "### Weekly\n- **Web Traffic** (fabric): Weekly")
	assert.Contains(t, schedule, "### Other Frequencies\n- **Ledger** (fabric): On demand")

	monitoring := doc.Sections[2].Content
	assert.Contains(t, monitoring, "- **Sales Transactions**: Check every hourly")

	trouble := doc.Sections[3].Content
	assert.Contains(t, trouble, "Snowflake-Specific Issues")
	assert.Contains(t, trouble, "Fabric-Specific Issues")
}

func TestGenerateQualityChecksByKeyword(t *testing.T) {
	doc, err := newGen().Generate(context.Background(), models.SOPRequest{DataPoints: points(), Template: models.TemplateDetailed})
	require.NoError(t, err)

	qc := doc.Sections[6].Content
	assert.Contains(t, qc, "Verify no duplicate transaction IDs")
	assert.Contains(t, qc, "Check for duplicate customer records")
	assert.Contains(t, qc, "Check for unusual traffic spikes")
	assert.Contains(t, qc, "Verify data format consistency")

	lineage := doc.Sections[5].Content
	assert.Contains(t, lineage, "SALES_FACT → Transform → DIM_CUSTOMER")
	assert.Contains(t, lineage, "web_traffic → Transform → gl")
}

func TestGenerateRejectsEmptyAndInvalid(t *testing.T) {
	g := newGen()
	_, err := g.Generate(context.Background(), models.SOPRequest{})
	assert.ErrorIs(t, err, ErrNoDataPoints)

	_, err = g.Generate(context.Background(), models.SOPRequest{DataPoints: []models.DataPoint{{ID: "1"}}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRespondEnvelope(t *testing.T) {
	g := newGen()
	resp := g.Respond(context.Background(), models.SOPRequest{DataPoints: points()})
	assert.True(t, resp.Success)
	require.NotNil(t, resp.SOPDocument)
	assert.Equal(t, genNow.Format(time.RFC3339Nano), resp.GeneratedAt)

	resp = g.Respond(context.Background(), models.SOPRequest{})
	assert.False(t, resp.Success)
	assert.Equal(t, ErrNoDataPoints.Error(), resp.Error)
	assert.Nil(t, resp.SOPDocument)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	g := NewGenerator(GeneratorConfig{Delay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, models.SOPRequest{DataPoints: points()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefreshDescription(t *testing.T) {
	cases := map[string]string{
		"":                     "Unknown",
		"yesterday":            "Unknown format",
		"2026-05-10T11:59:30Z": "Just now",
		"2026-05-10T11:30:00Z": "30 minute(s) ago",
		"2026-05-08T12:00:00Z": "2 day(s) ago",
		"2026-04-20T12:00:00Z": "20 days ago",
		"2026-05-10 06:00:00":  "6 hour(s) ago",
	}
	for in, want := range cases {
		assert.Equal(t, want, RefreshDescription(in, genNow), in)
	}
}

func TestAudienceFallback(t *testing.T) {
	assert.Equal(t, audienceDescriptions["mixed"], AudienceDescription("pirates"))
}
