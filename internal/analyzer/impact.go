package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"opsdash/pkg/models"
)

// DefaultMaxDepth bounds traversal when Config.MaxDepth is unset.
const DefaultMaxDepth = 16

// Direction selects which way impact traversal follows edges.
type Direction string

const (
	Downstream Direction = "downstream"
	Upstream   Direction = "upstream"
)

// ErrUnknownVertex is returned when the traversal root has no rows.
var ErrUnknownVertex = errors.New("unknown vertex")

// Config controls graph traversal behavior.
type Config struct {
	MaxDepth int
}

// ParseDirection parses a direction name. Empty means downstream.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Downstream:
		return Downstream, nil
	case Upstream:
		return Upstream, nil
	default:
		return "", fmt.Errorf("invalid direction %q", s)
	}
}

// ImpactedVertex is one vertex reached from the root.
type ImpactedVertex struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Depth int    `json:"depth"`
	Via   string `json:"via"`
}

// ImpactReport lists everything reachable from Root within MaxDepth hops.
type ImpactReport struct {
	Root      string                 `json:"root"`
	Direction Direction              `json:"direction"`
	MaxDepth  int                    `json:"max_depth"`
	Truncated bool                   `json:"truncated"`
	Vertices  []ImpactedVertex       `json:"vertices"`
	Edges     []*models.AdjacencyRow `json:"edges"`
}

type edgeRef struct {
	row  *models.AdjacencyRow
	next string
}

// Impact walks edges breadth-first from root. Downstream follows
// VertexID -> AdjacentID, upstream follows the reverse. Vertices are
// reported once at their shortest depth; Truncated is set when the depth
// limit left edges unexplored.
func Impact(rows []*models.AdjacencyRow, root string, dir Direction, cfg Config) (ImpactReport, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if dir == "" {
		dir = Downstream
	}

	adj, known := buildAdjacency(rows, dir)
	if _, ok := known[root]; !ok {
		return ImpactReport{}, fmt.Errorf("%w: %s", ErrUnknownVertex, root)
	}
	names := vertexNames(rows)

	report := ImpactReport{
		Root:      root,
		Direction: dir,
		MaxDepth:  cfg.MaxDepth,
		Vertices:  []ImpactedVertex{},
		Edges:     []*models.AdjacencyRow{},
	}

	type state struct {
		node  string
		depth int
	}
	queue := []state{{node: root}}
	visited := map[string]struct{}{root: {}}
	seenEdge := make(map[string]struct{}, 64)

	head := 0
	for head < len(queue) {
		cur := queue[head]
		head++
		if cur.depth >= cfg.MaxDepth {
			if len(adj[cur.node]) > 0 {
				report.Truncated = true
			}
			continue
		}
		for _, er := range adj[cur.node] {
			k := edgeIdentityKey(er.row)
			if _, ok := seenEdge[k]; !ok {
				seenEdge[k] = struct{}{}
				report.Edges = append(report.Edges, er.row)
			}
			if _, ok := visited[er.next]; ok {
				continue
			}
			visited[er.next] = struct{}{}
			report.Vertices = append(report.Vertices, ImpactedVertex{
				ID:    er.next,
				Name:  names[er.next],
				Depth: cur.depth + 1,
				Via:   cur.node,
			})
			queue = append(queue, state{node: er.next, depth: cur.depth + 1})
		}
	}

	sort.SliceStable(report.Vertices, func(i, j int) bool {
		if report.Vertices[i].Depth != report.Vertices[j].Depth {
			return report.Vertices[i].Depth < report.Vertices[j].Depth
		}
		return report.Vertices[i].ID < report.Vertices[j].ID
	})
	return report, nil
}

func buildAdjacency(rows []*models.AdjacencyRow, dir Direction) (map[string][]edgeRef, map[string]struct{}) {
	adj := make(map[string][]edgeRef, len(rows))
	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.VertexID == "" {
			continue
		}
		known[row.VertexID] = struct{}{}
		if row.RecordType != models.RecordEdge || row.AdjacentID == "" {
			continue
		}
		known[row.AdjacentID] = struct{}{}
		if dir == Upstream {
			adj[row.AdjacentID] = append(adj[row.AdjacentID], edgeRef{row: row, next: row.VertexID})
		} else {
			adj[row.VertexID] = append(adj[row.VertexID], edgeRef{row: row, next: row.AdjacentID})
		}
	}
	return adj, known
}

// vertexNames prefers vertex rows and falls back to the names carried on
// edges: an edge's Name labels its adjacent vertex.
func vertexNames(rows []*models.AdjacencyRow) map[string]string {
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		if row != nil && row.RecordType == models.RecordVertex && row.Name != "" {
			names[row.VertexID] = row.Name
		}
	}
	for _, row := range rows {
		if row == nil || row.RecordType != models.RecordEdge {
			continue
		}
		if _, ok := names[row.AdjacentID]; !ok && row.Name != "" {
			names[row.AdjacentID] = row.Name
		}
		if src, ok := row.Data["source_name"].(string); ok && src != "" {
			if _, exists := names[row.VertexID]; !exists {
				names[row.VertexID] = src
			}
		}
	}
	return names
}

// edgeIdentityKey collapses the same relationship declared from both ends.
func edgeIdentityKey(row *models.AdjacencyRow) string {
	return row.Type + "|" + row.VertexID + "|" + row.AdjacentID
}
