package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopologyNodeValidatesType(t *testing.T) {
	_, err := NewTopologyNode("x", "X", "sink", "", nil, "", 0, 0, 0)
	require.Error(t, err)

	n, err := NewTopologyNode("x", "X", NodeProcessor, "", []string{"a"}, "", 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, n.Z)
}

func TestNewTopologyLinkRequiresEndpoints(t *testing.T) {
	_, err := NewTopologyLink("", "b", 1, "data", true, "", "")
	require.Error(t, err)

	// Endpoints are not checked against any node set.
	_, err = NewTopologyLink("nowhere", "elsewhere", 1, "data", true, "", "")
	require.NoError(t, err)
}

func TestNewConnectorValidatesScores(t *testing.T) {
	c := Connector{
		ID:        1,
		Name:      "c",
		Type:      ConnectorType{Name: "Fivetran"},
		Freshness: Score{Value: 101, Status: StatusGreen},
		Quality:   Score{Value: 90, Status: StatusGreen},
	}
	_, err := NewConnector(c)
	require.Error(t, err)

	c.Freshness.Value = 100
	c.LastRefreshTimestamp = "2023-07-01T12:00:00Z"
	_, err = NewConnector(c)
	require.NoError(t, err)
}

func TestNewLineageNodeNormalisesRefs(t *testing.T) {
	n, err := NewLineageNode(LineageNode{ID: 1, Name: "n", Type: "ADF", Quality: Score{Value: 1, Status: StatusRed}})
	require.NoError(t, err)

	raw, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"upstream":[]`)
	assert.Contains(t, string(raw), `"downstream":[]`)
}

func TestNodeMetricsZeroEncodesEmpty(t *testing.T) {
	raw, err := json.Marshal(NodeMetrics{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestSOPRequestDiveValidation(t *testing.T) {
	req := SOPRequest{DataPoints: []DataPoint{{ID: "1", Name: "n", Table: "t", Source: "snowflake"}}}
	require.Error(t, Validate(req))

	req.DataPoints[0].RefreshRate = "Hourly"
	require.NoError(t, Validate(req))
}
