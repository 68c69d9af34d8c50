package adjacency

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// Edge and vertex types.
const (
	ConnectorVertex = "ConnectorVertex"
	NodeVertex      = "TopologyNodeVertex"
	FeedsEdge       = "FeedsEdge"
	LinkEdgeSuffix  = "LinkEdge"
)

// Which side of a lineage pair declared an edge.
const (
	DeclaredDownstream = "downstream"
	DeclaredUpstream   = "upstream"
)

// Mapper converts lineage nodes and topology links into adjacency rows.
type Mapper struct {
	writeVertexRows bool
	now             func() time.Time
}

// MapperOptions controls mapper output.
type MapperOptions struct {
	WriteVertexRows bool
	// Now stamps rows. Defaults to time.Now.
	Now func() time.Time
}

// NewMapper creates a mapper.
func NewMapper(opts MapperOptions) *Mapper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Mapper{
		writeVertexRows: opts.WriteVertexRows,
		now:             opts.Now,
	}
}

// MapLineage converts lineage nodes to rows. Each downstream reference
// becomes an edge from the node; each upstream reference becomes an edge
// into it. A pair declared on both sides therefore yields two edges with
// the same endpoints and different declared_by values.
func (m *Mapper) MapLineage(nodes []models.LineageNode) []*models.AdjacencyRow {
	ts := m.now().UTC()
	rows := make([]*models.AdjacencyRow, 0, len(nodes)*4)
	for _, n := range nodes {
		id := ConnectorID(n.ID)
		if m.writeVertexRows {
			rows = append(rows, vertexRow(ConnectorVertex, id, n.Name, ts, map[string]interface{}{
				"connector_type": n.Type,
				"last_refresh":   n.LastRefresh,
				"quality":        n.Quality.Value,
				"quality_status": n.Quality.Status,
			}))
		}
		for _, ref := range n.Downstream {
			rows = append(rows, edgeRow(FeedsEdge, id, ConnectorID(ref.ID), ref.Name, ts, map[string]interface{}{
				"declared_by":   DeclaredDownstream,
				"adjacent_type": ref.Type,
			}))
		}
		for _, ref := range n.Upstream {
			rows = append(rows, edgeRow(FeedsEdge, ConnectorID(ref.ID), id, n.Name, ts, map[string]interface{}{
				"declared_by": DeclaredUpstream,
				"source_name": ref.Name,
				"source_type": ref.Type,
			}))
		}
	}
	return rows
}

// MapTechStack converts topology nodes and links to rows. Link edges are
// typed by the link type, e.g. "data" becomes DataLinkEdge.
func (m *Mapper) MapTechStack(stack models.TechStack) []*models.AdjacencyRow {
	ts := m.now().UTC()
	rows := make([]*models.AdjacencyRow, 0, len(stack.Nodes)+len(stack.Links))
	if m.writeVertexRows {
		for _, n := range stack.Nodes {
			rows = append(rows, vertexRow(NodeVertex, NodeID(n.ID), n.Name, ts, map[string]interface{}{
				"node_type":    n.Type,
				"technologies": strings.Join(n.Technologies, ","),
			}))
		}
	}
	for _, l := range stack.Links {
		if l.Source == "" || l.Target == "" {
			logger.Warnf("Skipping topology link with empty endpoint (%q -> %q)", l.Source, l.Target)
			continue
		}
		rows = append(rows, edgeRow(linkEdgeType(l.Type), NodeID(l.Source), NodeID(l.Target), l.Description, ts, map[string]interface{}{
			"value":             l.Value,
			"active":            l.Active,
			"refresh_frequency": l.RefreshFrequency,
		}))
	}
	return rows
}

// ConnectorID is the vertex id of a lineage connector.
func ConnectorID(id int) string {
	return "connector:" + strconv.Itoa(id)
}

// NodeID is the vertex id of a topology node.
func NodeID(id string) string {
	return fmt.Sprintf("node:%s", strings.ToLower(id))
}

// ParseConnectorID reverses ConnectorID.
func ParseConnectorID(vertexID string) (int, bool) {
	raw, ok := strings.CutPrefix(vertexID, "connector:")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

func linkEdgeType(linkType string) string {
	linkType = strings.TrimSpace(linkType)
	if linkType == "" {
		return LinkEdgeSuffix
	}
	return strings.ToUpper(linkType[:1]) + strings.ToLower(linkType[1:]) + LinkEdgeSuffix
}

func vertexRow(typ, id, name string, ts time.Time, data map[string]interface{}) *models.AdjacencyRow {
	return &models.AdjacencyRow{
		Timestamp:  ts,
		RecordType: models.RecordVertex,
		Type:       typ,
		VertexID:   id,
		Name:       name,
		Data:       data,
	}
}

func edgeRow(typ, from, to, name string, ts time.Time, data map[string]interface{}) *models.AdjacencyRow {
	return &models.AdjacencyRow{
		Timestamp:  ts,
		RecordType: models.RecordEdge,
		Type:       typ,
		VertexID:   from,
		AdjacentID: to,
		Name:       name,
		Data:       data,
	}
}
