package models

// LineageRef points at another lineage node by id, name and type. The triple
// is copied, not resolved.
type LineageRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// LineageNode is one connector in the lineage graph.
type LineageNode struct {
	ID          int          `json:"id" validate:"gt=0"`
	Name        string       `json:"name" validate:"required"`
	Type        string       `json:"type" validate:"required"`
	LastRefresh string       `json:"lastRefresh"`
	Upstream    []LineageRef `json:"upstream"`
	Downstream  []LineageRef `json:"downstream"`
	Quality     Score        `json:"quality"`
}

// NewLineageNode validates a lineage node.
func NewLineageNode(n LineageNode) (LineageNode, error) {
	if err := Validate(n); err != nil {
		return LineageNode{}, err
	}
	if n.Upstream == nil {
		n.Upstream = []LineageRef{}
	}
	if n.Downstream == nil {
		n.Downstream = []LineageRef{}
	}
	return n, nil
}

// Clone returns a deep copy.
func (n LineageNode) Clone() LineageNode {
	up := make([]LineageRef, len(n.Upstream))
	copy(up, n.Upstream)
	down := make([]LineageRef, len(n.Downstream))
	copy(down, n.Downstream)
	n.Upstream = up
	n.Downstream = down
	return n
}
