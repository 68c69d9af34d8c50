package models

// SOP templates.
const (
	TemplateDefault    = "default"
	TemplateDetailed   = "detailed"
	TemplateQuickstart = "quickstart"
)

// DataPoint is a table selected for inclusion in an SOP.
type DataPoint struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Table         string `json:"table" validate:"required"`
	RefreshRate   string `json:"refreshRate" validate:"required"`
	Source        string `json:"source" validate:"required"`
	LastRefreshed string `json:"lastRefreshed,omitempty"`
}

// SOPRequest is the generation request body.
type SOPRequest struct {
	DataPoints []DataPoint `json:"dataPoints" validate:"dive"`
	Template   string      `json:"template,omitempty"`
	Audience   string      `json:"audience,omitempty"`
	Goals      string      `json:"goals,omitempty"`
}

// SOPSection is one titled markdown block of a document.
type SOPSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DataPointsSummary counts the data points by source.
type DataPointsSummary struct {
	TotalPoints int            `json:"totalPoints"`
	BySource    map[string]int `json:"bySource"`
}

// SOPDocument is a generated Standard Operating Procedure.
type SOPDocument struct {
	Title             string            `json:"title"`
	Summary           string            `json:"summary"`
	Audience          string            `json:"audience"`
	Sections          []SOPSection      `json:"sections"`
	DataPointsSummary DataPointsSummary `json:"dataPointsSummary"`
}

// SOPResponse is the generation response envelope.
type SOPResponse struct {
	Success     bool         `json:"success"`
	SOPDocument *SOPDocument `json:"sopDocument,omitempty"`
	GeneratedAt string       `json:"generatedAt,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ExportResult reports the outcome of an SOP export.
type ExportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
