// Package api serves the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsdash/internal/csvstats"
	"opsdash/internal/dashboard"
	"opsdash/internal/inventory"
	"opsdash/internal/opsstore"
	"opsdash/internal/sop"
	"opsdash/pkg/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// RemoteSOP generates documents on another service.
type RemoteSOP interface {
	GenerateSOP(ctx context.Context, req models.SOPRequest) (*models.SOPDocument, error)
}

// Handler holds the dependencies of every route.
type Handler struct {
	Dashboard *dashboard.Service
	Ops       opsstore.Store
	Generator *sop.Generator
	// Remote, when set, takes over SOP generation from Generator.
	Remote RemoteSOP
	// Inventory loads the connector inventory on each request.
	Inventory func() []inventory.Connector
	// MaxDepth bounds lineage impact traversal.
	MaxDepth int
	// CSV parses uploaded files.
	CSV *csvstats.Processor
}

// Options configures the router middleware.
type Options struct {
	CORSOrigins     []string
	CORSCredentials bool
	RequestTimeout  time.Duration
}

// NewRouter builds the chi router with all routes mounted.
func NewRouter(h *Handler, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if h.Inventory == nil {
		h.Inventory = inventory.Samples
	}
	if h.CSV == nil {
		h.CSV = csvstats.New(csvstats.Config{})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(Cors(opts.CORSOrigins, opts.CORSCredentials))
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/", h.handleRoot)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", h.RegisterRoutes)
	return r
}

// RegisterRoutes mounts the /api routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Route("/techstack", func(r chi.Router) {
		r.Get("/", h.handleTechStack)
		r.Get("/validation", h.handleTechStackValidation)
		r.Get("/nodes/{nodeId}/metrics", h.handleNodeMetrics)
	})

	r.Get("/dashboard", h.handleOpsSummary)
	r.Get("/dashboard/metrics", h.handleDashboardMetrics)
	r.Get("/dashboard/alerts", h.handleQualityAlerts)

	r.Route("/connectors", func(r chi.Router) {
		r.Get("/", h.handleConnectors)
		r.Get("/{id}", h.handleConnectorDetails)
		r.Post("/{id}/refresh", h.handleRefreshConnector)
	})
	r.Get("/trends", h.handleTrends)

	r.Route("/lineage", func(r chi.Router) {
		r.Get("/", h.handleLineage)
		r.Get("/validation", h.handleLineageValidation)
		r.Get("/{id}/impact", h.handleLineageImpact)
	})

	r.Post("/generate-sop", h.handleGenerateSOP)
	r.Post("/export-sop", h.handleExportSOP)

	r.Post("/upload-csv", h.handleUploadCSV)
	r.Post("/analyze-csv", h.handleAnalyzeCSV)

	r.Route("/metrics", func(r chi.Router) {
		r.Get("/", h.handleListMetrics)
		r.Post("/", h.handleCreateMetric)
		r.Get("/{id}", h.handleGetMetric)
	})
	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", h.handleListAlerts)
		r.Post("/", h.handleCreateAlert)
		r.Get("/{id}", h.handleGetAlert)
		r.Patch("/{id}", h.handleUpdateAlert)
	})

	r.Get("/inventory/connectors", h.handleInventory)
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Operations Dashboard API"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (h *Handler) handleInventory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Inventory())
}
