package models

// Topology node kinds.
const (
	NodeSource      = "source"
	NodeProcessor   = "processor"
	NodeDestination = "destination"
)

// TopologyNode is one technology in the tech-stack diagram.
type TopologyNode struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	Type         string   `json:"type" validate:"oneof=source processor destination"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Icon         string   `json:"icon"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Z            float64  `json:"z"`
}

// NewTopologyNode builds a node and validates its required fields.
func NewTopologyNode(id, name, typ, description string, technologies []string, icon string, x, y, z float64) (TopologyNode, error) {
	n := TopologyNode{
		ID:           id,
		Name:         name,
		Type:         typ,
		Description:  description,
		Technologies: technologies,
		Icon:         icon,
		X:            x,
		Y:            y,
		Z:            z,
	}
	if err := Validate(n); err != nil {
		return TopologyNode{}, err
	}
	return n, nil
}

// Clone returns a deep copy.
func (n TopologyNode) Clone() TopologyNode {
	n.Technologies = cloneStrings(n.Technologies)
	return n
}

// TopologyLink is a directed flow between two nodes. Endpoints are not
// checked against the node set.
type TopologyLink struct {
	Source           string  `json:"source" validate:"required"`
	Target           string  `json:"target" validate:"required"`
	Value            float64 `json:"value"`
	Type             string  `json:"type" validate:"required"`
	Active           bool    `json:"active"`
	RefreshFrequency string  `json:"refreshFrequency"`
	Description      string  `json:"description"`
}

// NewTopologyLink builds a link and validates its required fields.
func NewTopologyLink(source, target string, value float64, typ string, active bool, refreshFrequency, description string) (TopologyLink, error) {
	l := TopologyLink{
		Source:           source,
		Target:           target,
		Value:            value,
		Type:             typ,
		Active:           active,
		RefreshFrequency: refreshFrequency,
		Description:      description,
	}
	if err := Validate(l); err != nil {
		return TopologyLink{}, err
	}
	return l, nil
}

// TechStack is the full topology diagram.
type TechStack struct {
	Nodes []TopologyNode `json:"nodes"`
	Links []TopologyLink `json:"links"`
}

// Clone returns a deep copy.
func (t TechStack) Clone() TechStack {
	out := TechStack{
		Nodes: make([]TopologyNode, len(t.Nodes)),
		Links: make([]TopologyLink, len(t.Links)),
	}
	for i, n := range t.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Links, t.Links)
	return out
}

// NodeMetrics holds the headline numbers for one topology node. Each node
// kind fills its own subset; the zero value encodes as {}.
type NodeMetrics struct {
	DataVolume       string `json:"dataVolume,omitempty"`
	QueryPerformance string `json:"queryPerformance,omitempty"`
	CostEstimate     string `json:"costEstimate,omitempty"`
	ActiveUsers      int    `json:"activeUsers,omitempty"`
	DataTables       int    `json:"dataTables,omitempty"`
	ProcessingJobs   int    `json:"processingJobs,omitempty"`
	PipelineSuccess  string `json:"pipelineSuccess,omitempty"`
	Dataflows        int    `json:"dataflows,omitempty"`
	Reports          int    `json:"reports,omitempty"`
	Dashboards       int    `json:"dashboards,omitempty"`
	DailyUsers       int    `json:"dailyUsers,omitempty"`
	RefreshSuccess   string `json:"refreshSuccess,omitempty"`
	ViewTime         string `json:"viewTime,omitempty"`
}

// IsZero reports whether no metric is set.
func (m NodeMetrics) IsZero() bool {
	return m == NodeMetrics{}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
