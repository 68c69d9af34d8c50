package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"opsdash/internal/analyzer"
	"opsdash/internal/dashboard"
	"opsdash/internal/logger"
	"opsdash/internal/opsstore"
	"opsdash/internal/sop"
)

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Detail string `json:"detail"`
}

// decodeJSON reads a request body. Unknown fields are ignored: the
// dashboard posts whole UI objects.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("Request failed (%d): %v", status, err)
	}
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func statusFor(err error) int {
	if status, ok := csvStatus(err); ok {
		return status
	}
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, dashboard.ErrNotFound),
		errors.Is(err, opsstore.ErrNotFound),
		errors.Is(err, analyzer.ErrUnknownVertex):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, dashboard.ErrInvalidTimeRange),
		errors.Is(err, sop.ErrNoDataPoints),
		errors.Is(err, sop.ErrInvalidRequest),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, sop.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// intQuery parses an optional integer query parameter within [lo, hi].
func intQuery(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s must be an integer in [%d, %d]", errBadRequest, name, lo, hi)
	}
	return v, nil
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", errBadRequest, name)
	}
	return v, nil
}

func intParam(raw, name string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}
