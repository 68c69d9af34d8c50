package analyzer

import (
	"fmt"
	"sort"

	"opsdash/pkg/models"
)

// Issue kinds.
const (
	IssueDangling   = "dangling_reference"
	IssueAsymmetric = "asymmetric_pair"
)

// Issue is one graph inconsistency.
type Issue struct {
	Kind   string `json:"kind"`
	Type   string `json:"type"`
	From   string `json:"from"`
	To     string `json:"to"`
	Detail string `json:"detail"`
}

// ValidationReport summarizes reference problems in a set of rows. It
// never changes the rows.
type ValidationReport struct {
	Vertices int     `json:"vertices"`
	Edges    int     `json:"edges"`
	Valid    bool    `json:"valid"`
	Issues   []Issue `json:"issues"`
}

// Validate reports edges whose endpoints have no vertex row and edges that
// carry a declared_by side but were declared by only one of their
// endpoints. Dangling checks need vertex rows; without any they are
// skipped.
func Validate(rows []*models.AdjacencyRow) ValidationReport {
	vertices := make(map[string]struct{}, len(rows))
	var edges []*models.AdjacencyRow
	for _, row := range rows {
		if row == nil {
			continue
		}
		switch row.RecordType {
		case models.RecordVertex:
			vertices[row.VertexID] = struct{}{}
		case models.RecordEdge:
			edges = append(edges, row)
		}
	}

	report := ValidationReport{
		Vertices: len(vertices),
		Edges:    len(edges),
		Issues:   []Issue{},
	}

	if len(vertices) > 0 {
		seen := make(map[string]struct{})
		for _, e := range edges {
			for _, end := range []string{e.VertexID, e.AdjacentID} {
				if _, ok := vertices[end]; ok {
					continue
				}
				k := edgeIdentityKey(e) + "|" + end
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				report.Issues = append(report.Issues, Issue{
					Kind:   IssueDangling,
					Type:   e.Type,
					From:   e.VertexID,
					To:     e.AdjacentID,
					Detail: fmt.Sprintf("%s has no vertex", end),
				})
			}
		}
	}

	declared := make(map[string]map[string]struct{})
	byKey := make(map[string]*models.AdjacencyRow)
	for _, e := range edges {
		side, ok := e.Data["declared_by"].(string)
		if !ok || side == "" {
			continue
		}
		k := edgeIdentityKey(e)
		if declared[k] == nil {
			declared[k] = make(map[string]struct{}, 2)
			byKey[k] = e
		}
		declared[k][side] = struct{}{}
	}
	keys := make([]string, 0, len(declared))
	for k := range declared {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sides := declared[k]
		if len(sides) > 1 {
			continue
		}
		e := byKey[k]
		var detail string
		if _, ok := sides["downstream"]; ok {
			detail = fmt.Sprintf("%s lists %s downstream but %s does not list it upstream", e.VertexID, e.AdjacentID, e.AdjacentID)
		} else {
			detail = fmt.Sprintf("%s lists %s upstream but %s does not list it downstream", e.AdjacentID, e.VertexID, e.VertexID)
		}
		report.Issues = append(report.Issues, Issue{
			Kind:   IssueAsymmetric,
			Type:   e.Type,
			From:   e.VertexID,
			To:     e.AdjacentID,
			Detail: detail,
		})
	}

	report.Valid = len(report.Issues) == 0
	return report
}
