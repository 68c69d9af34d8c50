package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"opsdash/internal/sop"
	"opsdash/pkg/models"
)

type exportRequest struct {
	SOPDocument *models.SOPDocument `json:"sopDocument"`
	Format      string              `json:"format"`
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// handleGenerateSOP answers in the SOPResponse envelope. Local generation
// failures are reported with success=false and status 200; a failing
// remote generator is a 502.
func (h *Handler) handleGenerateSOP(w http.ResponseWriter, r *http.Request) {
	var req models.SOPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.SOPResponse{Success: false, Error: err.Error()})
		return
	}

	if h.Remote == nil {
		writeJSON(w, http.StatusOK, h.Generator.Respond(r.Context(), req))
		return
	}

	doc, err := h.Remote.GenerateSOP(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, models.SOPResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.SOPResponse{
		Success:     true,
		SOPDocument: doc,
		GeneratedAt: time.Now().Format(time.RFC3339Nano),
	})
}

func (h *Handler) handleExportSOP(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = req.Format
	}
	writeJSON(w, http.StatusOK, sop.ExportSOP(r.Context(), req.SOPDocument, format))
}
