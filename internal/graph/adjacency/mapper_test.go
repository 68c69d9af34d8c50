package adjacency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/pkg/models"
)

var mapNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func lineageNodes() []models.LineageNode {
	return []models.LineageNode{
		{
			ID: 1, Name: "Customer Data", Type: "Fivetran",
			Upstream:   []models.LineageRef{},
			Downstream: []models.LineageRef{{ID: 2, Name: "Sales", Type: "Airflow"}},
			Quality:    models.Score{Value: 98, Status: models.StatusGreen},
		},
		{
			ID: 2, Name: "Sales", Type: "Airflow",
			Upstream:   []models.LineageRef{{ID: 1, Name: "Customer Data", Type: "Fivetran"}},
			Downstream: []models.LineageRef{},
			Quality:    models.Score{Value: 92, Status: models.StatusGreen},
		},
	}
}

func TestMapLineageEdgesOnly(t *testing.T) {
	m := NewMapper(MapperOptions{Now: func() time.Time { return mapNow }})
	rows := m.MapLineage(lineageNodes())
	require.Len(t, rows, 2)

	assert.Equal(t, models.RecordEdge, rows[0].RecordType)
	assert.Equal(t, FeedsEdge, rows[0].Type)
	assert.Equal(t, "connector:1", rows[0].VertexID)
	assert.Equal(t, "connector:2", rows[0].AdjacentID)
	assert.Equal(t, DeclaredDownstream, rows[0].Data["declared_by"])

	assert.Equal(t, "connector:1", rows[1].VertexID)
	assert.Equal(t, "connector:2", rows[1].AdjacentID)
	assert.Equal(t, DeclaredUpstream, rows[1].Data["declared_by"])
	assert.Equal(t, mapNow, rows[1].Timestamp)
}

func TestMapLineageWithVertexRows(t *testing.T) {
	m := NewMapper(MapperOptions{WriteVertexRows: true})
	rows := m.MapLineage(lineageNodes())
	require.Len(t, rows, 4)
	assert.Equal(t, models.RecordVertex, rows[0].RecordType)
	assert.Equal(t, ConnectorVertex, rows[0].Type)
	assert.Equal(t, "Customer Data", rows[0].Name)
	assert.Equal(t, 98, rows[0].Data["quality"])
}

func TestMapTechStack(t *testing.T) {
	stack := models.TechStack{
		Nodes: []models.TopologyNode{{ID: "Snowflake", Name: "Snowflake", Type: models.NodeSource}},
		Links: []models.TopologyLink{
			{Source: "snowflake", Target: "fabric", Value: 5, Type: "data", Active: true},
			{Source: "", Target: "fabric"},
		},
	}
	rows := NewMapper(MapperOptions{WriteVertexRows: true}).MapTechStack(stack)
	require.Len(t, rows, 2)
	assert.Equal(t, "node:snowflake", rows[0].VertexID)
	assert.Equal(t, "DataLinkEdge", rows[1].Type)
	assert.Equal(t, "node:fabric", rows[1].AdjacentID)
}

func TestConnectorIDRoundTrip(t *testing.T) {
	id, ok := ParseConnectorID(ConnectorID(42))
	assert.True(t, ok)
	assert.Equal(t, 42, id)

	_, ok = ParseConnectorID("node:snowflake")
	assert.False(t, ok)
	_, ok = ParseConnectorID("connector:abc")
	assert.False(t, ok)
}

func TestLinkEdgeType(t *testing.T) {
	assert.Equal(t, "ReportLinkEdge", linkEdgeType("REPORT"))
	assert.Equal(t, LinkEdgeSuffix, linkEdgeType(" "))
}
