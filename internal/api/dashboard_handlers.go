package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsdash/internal/analyzer"
	"opsdash/internal/graph/adjacency"
	"opsdash/internal/opsstore"
	"opsdash/pkg/models"
)

func (h *Handler) handleTechStack(w http.ResponseWriter, r *http.Request) {
	stack, err := h.Dashboard.TechStack(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stack)
}

func (h *Handler) handleTechStackValidation(w http.ResponseWriter, r *http.Request) {
	stack, err := h.Dashboard.TechStack(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rows := adjacency.NewMapper(adjacency.MapperOptions{WriteVertexRows: true}).MapTechStack(stack)
	writeJSON(w, http.StatusOK, analyzer.Validate(rows))
}

func (h *Handler) handleNodeMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Dashboard.NodeMetrics(r.Context(), chi.URLParam(r, "nodeId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Dashboard.DashboardMetrics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) handleQualityAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Dashboard.QualityAlerts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) handleOpsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := opsstore.Summarize(r.Context(), h.Ops)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleConnectors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ConnectorFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Owner:  q.Get("owner"),
	}
	connectors, err := h.Dashboard.Connectors(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connectors)
}

func (h *Handler) handleConnectorDetails(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.Dashboard.ConnectorDetails(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRefreshConnector(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Dashboard.RefreshConnector(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	connectorID := 0
	if raw := r.URL.Query().Get("connectorId"); raw != "" {
		v, err := intParam(raw, "connectorId")
		if err != nil {
			writeError(w, err)
			return
		}
		connectorID = v
	}
	td, err := h.Dashboard.TrendData(r.Context(), r.URL.Query().Get("range"), connectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

func (h *Handler) handleLineage(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.Dashboard.ConnectorLineage(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (h *Handler) lineageRows(r *http.Request) ([]*models.AdjacencyRow, error) {
	nodes, err := h.Dashboard.ConnectorLineage(r.Context())
	if err != nil {
		return nil, err
	}
	return adjacency.NewMapper(adjacency.MapperOptions{WriteVertexRows: true}).MapLineage(nodes), nil
}

func (h *Handler) handleLineageValidation(w http.ResponseWriter, r *http.Request) {
	rows, err := h.lineageRows(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzer.Validate(rows))
}

func (h *Handler) handleLineageImpact(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, err)
		return
	}
	dir, err := analyzer.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		writeError(w, badRequest(err))
		return
	}
	maxDepth := h.MaxDepth
	if maxDepth <= 0 {
		maxDepth = analyzer.DefaultMaxDepth
	}
	depth, err := intQuery(r, "depth", maxDepth, 1, maxDepth)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.lineageRows(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := analyzer.Impact(rows, adjacency.ConnectorID(id), dir, analyzer.Config{MaxDepth: depth})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
