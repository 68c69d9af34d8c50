package models

import "time"

// Adjacency record kinds.
const (
	RecordVertex = "vertex"
	RecordEdge   = "edge"
)

// AdjacencyRow is one vertex or edge of the lineage/topology graph.
type AdjacencyRow struct {
	Timestamp  time.Time              `json:"ts"`
	RecordType string                 `json:"record_type"` // vertex or edge
	Type       string                 `json:"type"`
	VertexID   string                 `json:"vertex_id"`
	AdjacentID string                 `json:"adjacent_id,omitempty"`
	Name       string                 `json:"name,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}
