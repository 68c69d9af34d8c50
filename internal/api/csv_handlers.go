package api

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"

	"opsdash/internal/csvstats"
	"opsdash/internal/logger"
)

// maxUploadMemory is held in memory while parsing a multipart form; the
// rest spills to temp files.
const maxUploadMemory = 8 << 20

// csvUpload opens the "file" part and reads skip_rows/delimiter.
func csvUpload(r *http.Request, withSkip bool) (multipart.File, string, csvstats.Options, error) {
	var opts csvstats.Options
	if withSkip {
		skip, err := intQuery(r, "skip_rows", 0, 0, math.MaxInt32)
		if err != nil {
			return nil, "", opts, err
		}
		opts.SkipRows = skip
	}
	opts.Delimiter = r.URL.Query().Get("delimiter")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, "", opts, badRequest(fmt.Errorf("parse upload: %w", err))
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", opts, badRequest(fmt.Errorf("missing file: %w", err))
	}
	return file, header.Filename, opts, nil
}

func (h *Handler) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	file, name, opts, err := csvUpload(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	res, err := h.CSV.Upload(name, file, opts)
	if err != nil {
		logger.Warnf("Error processing CSV %s: %v", name, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAnalyzeCSV(w http.ResponseWriter, r *http.Request) {
	file, name, opts, err := csvUpload(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	res, err := h.CSV.Analyze(name, file, opts)
	if err != nil {
		logger.Warnf("Error analyzing CSV %s: %v", name, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func csvStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, csvstats.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, true
	case errors.Is(err, csvstats.ErrNotCSV), errors.Is(err, csvstats.ErrMalformed):
		return http.StatusBadRequest, true
	}
	return 0, false
}
