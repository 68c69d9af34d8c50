package sop

import (
	"context"
	"fmt"
	"strings"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// DefaultExportFormat is used when no format is given.
const DefaultExportFormat = "pdf"

// ExportSOP reports a successful export without converting anything.
func ExportSOP(_ context.Context, doc *models.SOPDocument, format string) models.ExportResult {
	format = strings.TrimSpace(format)
	if format == "" {
		format = DefaultExportFormat
	}
	title := ""
	if doc != nil {
		title = doc.Title
	}
	logger.Infof("Exporting SOP %q to %s format", title, format)
	return models.ExportResult{
		Success: true,
		Message: fmt.Sprintf("SOP exported to %s format (mock implementation)", format),
	}
}
