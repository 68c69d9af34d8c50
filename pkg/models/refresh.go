package models

import "time"

// RefreshJob is a queued connector refresh.
type RefreshJob struct {
	JobID       string    `json:"job_id"`
	ConnectorID int       `json:"connector_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// RefreshOutcome is what a worker reports after running a job.
type RefreshOutcome struct {
	JobID         string    `json:"job_id"`
	ConnectorID   int       `json:"connector_id"`
	ConnectorName string    `json:"connector_name,omitempty"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Freshness     Score     `json:"freshness"`
	Quality       Score     `json:"quality"`
}
