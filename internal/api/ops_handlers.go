package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsdash/internal/opsstore"
	"opsdash/pkg/models"
)

type metricsResponse struct {
	Metrics []models.OpsMetric `json:"metrics"`
}

type alertsResponse struct {
	Alerts []models.OpsAlert `json:"alerts"`
}

type metricRequest struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type alertRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func pageQuery(r *http.Request) (int, int, error) {
	skip, err := intQuery(r, "skip", 0, 0, 1<<31-1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := intQuery(r, "limit", opsstore.DefaultLimit, 1, opsstore.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}

func (h *Handler) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics, err := h.Ops.ListMetrics(r.Context(), opsstore.MetricQuery{
		Skip:  skip,
		Limit: limit,
		Name:  r.URL.Query().Get("name"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metricsResponse{Metrics: metrics})
}

func (h *Handler) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	m, err := h.Ops.GetMetric(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreateMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.Ops.CreateMetric(r.Context(), models.OpsMetric{Name: req.Name, Value: req.Value, Unit: req.Unit})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	activeOnly, err := boolQuery(r, "active_only")
	if err != nil {
		writeError(w, err)
		return
	}
	alerts, err := h.Ops.ListAlerts(r.Context(), opsstore.AlertQuery{Skip: skip, Limit: limit, ActiveOnly: activeOnly})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse{Alerts: alerts})
}

func (h *Handler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	a, err := h.Ops.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := h.Ops.CreateAlert(r.Context(), models.OpsAlert{Title: req.Title, Message: req.Message, Severity: req.Severity})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	var upd models.OpsAlertUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	a, err := h.Ops.UpdateAlert(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
