package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/analyzer"
	"opsdash/internal/dashboard"
	"opsdash/internal/fixtures"
	"opsdash/internal/inventory"
	"opsdash/internal/opsstore"
	"opsdash/internal/sop"
	"opsdash/pkg/models"
)

type stubRemote struct {
	doc *models.SOPDocument
	err error
}

func (s stubRemote) GenerateSOP(context.Context, models.SOPRequest) (*models.SOPDocument, error) {
	return s.doc, s.err
}

type recordingQueue struct {
	jobs []models.RefreshJob
}

func (q *recordingQueue) Enqueue(_ context.Context, job models.RefreshJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *recordingQueue) {
	t.Helper()
	store := fixtures.MustNew(fixtures.Options{Seed: 1})
	queue := &recordingQueue{}
	svc, err := dashboard.NewService(store, dashboard.Config{Latency: dashboard.NoLatency(), Queue: queue})
	require.NoError(t, err)

	ops := opsstore.NewMemoryStore(nil)
	require.NoError(t, opsstore.SeedSamples(context.Background(), ops))

	return &Handler{
		Dashboard: svc,
		Ops:       ops,
		Generator: sop.NewGenerator(sop.GeneratorConfig{}),
		Inventory: inventory.Samples,
	}, queue
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndRoot(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok", "version": Version}, decode[map[string]string](t, rec))

	rec = do(t, r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func corsRequest(t *testing.T, h http.Handler, method, path, origin string, preflight bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", origin)
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCorsPreflight(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{
		CORSOrigins:     []string{"http://localhost:5173", "http://localhost:4173"},
		CORSCredentials: true,
	})

	rec := corsRequest(t, r, http.MethodOptions, "/api/generate-sop", "http://localhost:4173", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:4173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")

	rec = corsRequest(t, r, http.MethodGet, "/api/health", "http://localhost:5173", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")

	rec = corsRequest(t, r, http.MethodGet, "/api/health", "http://evil.example.com", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsAnyOrigin(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := corsRequest(t, r, http.MethodGet, "/api/health", "http://anywhere.example.com", false)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConnectorRoutes(t *testing.T) {
	h, queue := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/connectors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Connector](t, rec), 4)

	rec = do(t, r, http.MethodGet, "/api/connectors/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[models.Connector](t, rec).ID)

	rec = do(t, r, http.MethodGet, "/api/connectors/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "connector with ID 99")

	rec = do(t, r, http.MethodGet, "/api/connectors/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/connectors/3/refresh", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	res := decode[models.RefreshResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Connector 3 refresh triggered successfully", res.Message)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, res.JobID, queue.jobs[0].JobID)
}

func TestTrendRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/trends?range=24h&connectorId=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/trends", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/trends?range=1y", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "1y")

	rec = do(t, r, http.MethodGet, "/api/trends?connectorId=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTechStackRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/techstack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[models.TechStack](t, rec).Nodes)

	rec = do(t, r, http.MethodGet, "/api/techstack/nodes/snowflake/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/techstack/nodes/unknown/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/techstack/validation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Positive(t, decode[analyzer.ValidationReport](t, rec).Vertices)
}

func TestDashboardRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/dashboard/metrics", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/dashboard/alerts", nil).Code)

	rec := do(t, r, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[models.OpsSummary](t, rec)
	assert.Equal(t, 5, summary.MetricsCount)
	assert.Equal(t, 3, summary.ActiveAlertsCount)
}

func TestLineageRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/lineage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.LineageNode](t, rec), 8)

	rec = do(t, r, http.MethodGet, "/api/lineage/validation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[analyzer.ValidationReport](t, rec).Valid)

	rec = do(t, r, http.MethodGet, "/api/lineage/1/impact?depth=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[analyzer.ImpactReport](t, rec)
	assert.Len(t, report.Vertices, 2)
	assert.True(t, report.Truncated)

	rec = do(t, r, http.MethodGet, "/api/lineage/8/impact?direction=upstream", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[analyzer.ImpactReport](t, rec).Vertices, 6)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/lineage/42/impact", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/lineage/1/impact?direction=sideways", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/lineage/1/impact?depth=0", nil).Code)
}

func TestLineageImpactDepthBoundedByConfig(t *testing.T) {
	h, _ := newTestHandler(t)
	h.MaxDepth = 2
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/lineage/1/impact?depth=3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "[1, 2]")

	rec = do(t, r, http.MethodGet, "/api/lineage/1/impact", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[analyzer.ImpactReport](t, rec)
	assert.Equal(t, 2, report.MaxDepth)
	assert.True(t, report.Truncated)
}

func TestOpsMetricRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/metrics?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[metricsResponse](t, rec).Metrics, 2)

	rec = do(t, r, http.MethodPost, "/api/metrics", map[string]any{"name": "queue_depth", "value": 12, "unit": "jobs"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.OpsMetric](t, rec)
	assert.NotEmpty(t, created.ID)

	rec = do(t, r, http.MethodGet, "/api/metrics/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "queue_depth", decode[models.OpsMetric](t, rec).Name)

	rec = do(t, r, http.MethodGet, "/api/metrics?name=queue_depth", nil)
	assert.Len(t, decode[metricsResponse](t, rec).Metrics, 1)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/metrics/missing", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/metrics", map[string]any{"value": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/metrics", map[string]any{"name": "x", "bogus": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/metrics?limit=5000", nil).Code)
}

func TestOpsAlertRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodPost, "/api/alerts", map[string]any{"title": "Disk", "message": "Disk at 95%", "severity": "critical"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.OpsAlert](t, rec)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.ResolvedAt)

	rec = do(t, r, http.MethodPatch, "/api/alerts/"+created.ID, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.OpsAlert](t, rec)
	assert.False(t, updated.IsActive)
	assert.NotNil(t, updated.ResolvedAt)

	rec = do(t, r, http.MethodGet, "/api/alerts?active_only=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[alertsResponse](t, rec).Alerts, 3)

	rec = do(t, r, http.MethodGet, "/api/alerts/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/api/alerts/missing", map[string]any{"is_active": false}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/alerts", map[string]any{"title": "x", "severity": "loud"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/alerts?active_only=maybe", nil).Code)
}

func TestGenerateSOPLocal(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	req := models.SOPRequest{
		DataPoints: []models.DataPoint{{ID: "1", Name: "Sales", Source: "snowflake", Table: "SALES", RefreshRate: "Daily"}},
		Template:   models.TemplateQuickstart,
	}
	rec := do(t, r, http.MethodPost, "/api/generate-sop", req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.SOPResponse](t, rec)
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, sop.DocumentTitle, resp.SOPDocument.Title)
	assert.NotEmpty(t, resp.GeneratedAt)

	rec = do(t, r, http.MethodPost, "/api/generate-sop", models.SOPRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[models.SOPResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, sop.ErrNoDataPoints.Error(), resp.Error)
}

func TestGenerateSOPIgnoresExtraFields(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	body := map[string]any{
		"dataPoints": []map[string]any{{
			"id": "1", "name": "Sales", "table": "SALES", "refreshRate": "Hourly",
			"source": "snowflake", "selected": true, "color": "#38bdf8",
		}},
		"template": "default",
		"audience": "technical",
		"uiState":  map[string]any{"step": 3},
	}
	rec := do(t, r, http.MethodPost, "/api/generate-sop", body)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.SOPResponse](t, rec)
	assert.True(t, resp.Success, resp.Error)
	require.NotNil(t, resp.SOPDocument)
	assert.Equal(t, 1, resp.SOPDocument.DataPointsSummary.TotalPoints)
}

func TestOpsBodiesIgnoreExtraFields(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodPost, "/api/metrics", map[string]any{"name": "cpu", "value": 0.5, "unit": "%", "chart": "line"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/api/alerts", map[string]any{"title": "disk", "message": "full", "severity": "warning", "pinned": true})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestGenerateSOPRemote(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Remote = stubRemote{doc: &models.SOPDocument{Title: "remote"}}
	r := NewRouter(h, Options{})

	body := models.SOPRequest{DataPoints: []models.DataPoint{{ID: "1", Name: "n", Source: "fabric", Table: "T", RefreshRate: "Hourly"}}}
	rec := do(t, r, http.MethodPost, "/api/generate-sop", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remote", decode[models.SOPResponse](t, rec).SOPDocument.Title)

	h.Remote = stubRemote{err: fmt.Errorf("%w: model offline", sop.ErrGenerationFailed)}
	rec = do(t, r, http.MethodPost, "/api/generate-sop", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[models.SOPResponse](t, rec).Error, "model offline")

	h.Remote = stubRemote{err: fmt.Errorf("http request failed: %w", context.DeadlineExceeded)}
	rec = do(t, r, http.MethodPost, "/api/generate-sop", body)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestExportSOP(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodPost, "/api/export-sop?format=docx", map[string]any{"sopDocument": map[string]any{"title": "t"}})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[models.ExportResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "SOP exported to docx format (mock implementation)", res.Message)

	rec = do(t, r, http.MethodPost, "/api/export-sop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[models.ExportResult](t, rec).Message, "pdf")
}

func TestInventoryRoute(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := do(t, r, http.MethodGet, "/api/inventory/connectors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inventory.Samples(), decode[[]inventory.Connector](t, rec))
}

func TestPrometheusEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	do(t, r, http.MethodGet, "/api/health", nil)
	rec := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "opsdash_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", dashboard.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", opsstore.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: 1y", dashboard.ErrInvalidTimeRange), http.StatusBadRequest},
		{models.Validate(models.OpsMetric{}), http.StatusBadRequest},
		{sop.ErrGenerationFailed, http.StatusBadGateway},
		{fmt.Errorf("tech_stack: %w", context.Canceled), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusFor(c.err), c.err.Error())
	}
}

func TestSlowCallTimesOut(t *testing.T) {
	store := fixtures.MustNew(fixtures.Options{Seed: 1})
	svc, err := dashboard.NewService(store, dashboard.Config{})
	require.NoError(t, err)
	h := &Handler{Dashboard: svc, Ops: opsstore.NewMemoryStore(nil), Generator: sop.NewGenerator(sop.GeneratorConfig{})}
	r := NewRouter(h, Options{RequestTimeout: 20 * time.Millisecond})

	rec := do(t, r, http.MethodGet, "/api/connectors", nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func keysOf(t *testing.T, v any) []string {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected object, got %T", v)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func first(t *testing.T, v any) any {
	t.Helper()
	arr, ok := v.([]any)
	require.True(t, ok, "expected array, got %T", v)
	require.NotEmpty(t, arr)
	return arr[0]
}

func field(t *testing.T, v any, name string) any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected object, got %T", v)
	return m[name]
}

func TestWireShapes(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	get := func(t *testing.T, method, path string) any {
		rec := do(t, r, method, path, nil)
		require.Less(t, rec.Code, 300, rec.Body.String())
		return decode[any](t, rec)
	}

	tests := []struct {
		name   string
		method string
		path   string
		pick   func(t *testing.T, body any) any
		keys   []string
	}{
		{"tech stack", http.MethodGet, "/api/techstack",
			func(t *testing.T, b any) any { return b },
			[]string{"nodes", "links"}},
		{"topology node", http.MethodGet, "/api/techstack",
			func(t *testing.T, b any) any { return first(t, field(t, b, "nodes")) },
			[]string{"id", "name", "type", "description", "technologies", "icon", "x", "y", "z"}},
		{"topology link", http.MethodGet, "/api/techstack",
			func(t *testing.T, b any) any { return first(t, field(t, b, "links")) },
			[]string{"source", "target", "value", "type", "active", "refreshFrequency", "description"}},
		{"node metrics", http.MethodGet, "/api/techstack/nodes/powerbi/metrics",
			func(t *testing.T, b any) any { return b },
			[]string{"reports", "dashboards", "dailyUsers", "refreshSuccess", "viewTime"}},
		{"dashboard metrics", http.MethodGet, "/api/dashboard/metrics",
			func(t *testing.T, b any) any { return b },
			[]string{"activeConnectors", "freshnessScore", "qualityChecks", "pipelineRuntime"}},
		{"active connectors", http.MethodGet, "/api/dashboard/metrics",
			func(t *testing.T, b any) any { return field(t, b, "activeConnectors") },
			[]string{"current", "total", "percentage"}},
		{"freshness score", http.MethodGet, "/api/dashboard/metrics",
			func(t *testing.T, b any) any { return field(t, b, "freshnessScore") },
			[]string{"value", "percentage"}},
		{"quality checks", http.MethodGet, "/api/dashboard/metrics",
			func(t *testing.T, b any) any { return field(t, b, "qualityChecks") },
			[]string{"passed", "total", "percentage"}},
		{"pipeline runtime", http.MethodGet, "/api/dashboard/metrics",
			func(t *testing.T, b any) any { return field(t, b, "pipelineRuntime") },
			[]string{"value", "unit", "percentage"}},
		{"quality alert", http.MethodGet, "/api/dashboard/alerts",
			func(t *testing.T, b any) any { return first(t, b) },
			[]string{"id", "title", "description", "severity", "type", "timestamp"}},
		{"connector", http.MethodGet, "/api/connectors",
			func(t *testing.T, b any) any { return first(t, b) },
			[]string{"id", "name", "type", "lastRefresh", "lastRefreshTimestamp", "freshness", "quality", "details"}},
		{"connector type", http.MethodGet, "/api/connectors/1",
			func(t *testing.T, b any) any { return field(t, b, "type") },
			[]string{"name", "class"}},
		{"connector score", http.MethodGet, "/api/connectors/1",
			func(t *testing.T, b any) any { return field(t, b, "freshness") },
			[]string{"value", "status"}},
		{"connector details", http.MethodGet, "/api/connectors/1",
			func(t *testing.T, b any) any { return field(t, b, "details") },
			[]string{"source", "destination", "schedule", "owner"}},
		{"refresh result", http.MethodPost, "/api/connectors/1/refresh",
			func(t *testing.T, b any) any { return b },
			[]string{"success", "message", "jobId"}},
		{"trend data", http.MethodGet, "/api/trends?range=24h",
			func(t *testing.T, b any) any { return b },
			[]string{"timestamps", "series", "insights"}},
		{"trend series", http.MethodGet, "/api/trends?range=90d",
			func(t *testing.T, b any) any { return first(t, field(t, b, "series")) },
			[]string{"id", "name", "data"}},
		{"trend insight", http.MethodGet, "/api/trends",
			func(t *testing.T, b any) any { return first(t, field(t, b, "insights")) },
			[]string{"message", "trend", "type"}},
		{"lineage node", http.MethodGet, "/api/lineage",
			func(t *testing.T, b any) any { return first(t, b) },
			[]string{"id", "name", "type", "lastRefresh", "upstream", "downstream", "quality"}},
		{"lineage ref", http.MethodGet, "/api/lineage",
			func(t *testing.T, b any) any { return first(t, field(t, b.([]any)[1], "upstream")) },
			[]string{"id", "name", "type"}},
		{"lineage quality", http.MethodGet, "/api/lineage",
			func(t *testing.T, b any) any { return field(t, first(t, b), "quality") },
			[]string{"value", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := get(t, tt.method, tt.path)
			assert.ElementsMatch(t, tt.keys, keysOf(t, tt.pick(t, body)))
		})
	}
}

func TestLineageRootsEncodeEmptyArrays(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(t, NewRouter(h, Options{}), http.MethodGet, "/api/lineage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodes := decode[[]map[string]any](t, rec)
	assert.Equal(t, []any{}, nodes[0]["upstream"])
	assert.Equal(t, []any{}, nodes[len(nodes)-1]["downstream"])
}

func uploadCSV(t *testing.T, h http.Handler, path, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadCSVPreview(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := uploadCSV(t, r, "/api/upload-csv?skip_rows=1&delimiter=%3B", "runs.csv",
		"exported 2024-05-01\nconnector;rows\nsnowflake;10\nfivetran;20\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.ElementsMatch(t, []string{"success", "filename", "stats", "data", "has_more_data"}, keysOf(t, body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "runs.csv", body["filename"])
	assert.Equal(t, false, body["has_more_data"])

	stats := body["stats"].(map[string]any)
	assert.Equal(t, 2.0, stats["total_rows"])
	assert.Equal(t, []any{"connector", "rows"}, stats["columns"])
	assert.Equal(t, []any{
		map[string]any{"connector": "snowflake", "rows": 10.0},
		map[string]any{"connector": "fivetran", "rows": 20.0},
	}, body["data"])
}

func TestAnalyzeCSV(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	rec := uploadCSV(t, r, "/api/analyze-csv", "runs.csv", "connector,rows\nsnowflake,10\nfivetran,\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.ElementsMatch(t, []string{"success", "filename", "file_stats", "column_stats"}, keysOf(t, body))
	assert.ElementsMatch(t,
		[]string{"total_rows", "total_columns", "memory_usage", "file_size", "analyzed_at"},
		keysOf(t, body["file_stats"]))

	cols := body["column_stats"].(map[string]any)
	rows := cols["rows"].(map[string]any)
	assert.Equal(t, "float64", rows["dtype"])
	assert.Equal(t, 1.0, rows["null_count"])
	assert.Equal(t, 10.0, rows["min"])
	assert.Nil(t, rows["std"])
	assert.NotContains(t, cols["connector"].(map[string]any), "min")
}

func TestCSVUploadErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	r := NewRouter(h, Options{})

	tests := []struct {
		name     string
		path     string
		filename string
		body     string
		want     int
	}{
		{"not a csv", "/api/upload-csv", "runs.txt", "a\n1\n", http.StatusBadRequest},
		{"missing file", "/api/upload-csv", "", "", http.StatusBadRequest},
		{"negative skip", "/api/upload-csv?skip_rows=-1", "runs.csv", "a\n1\n", http.StatusBadRequest},
		{"ragged rows", "/api/analyze-csv", "runs.csv", "a,b\n1,2,3\n", http.StatusBadRequest},
		{"empty file", "/api/analyze-csv", "runs.csv", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := uploadCSV(t, r, tt.path, tt.filename, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
