package models

// Health status colours used by scores.
const (
	StatusGreen  = "green"
	StatusYellow = "yellow"
	StatusRed    = "red"
)

// ConnectorType is the ingestion technology and its UI class.
type ConnectorType struct {
	Name  string `json:"name" validate:"required"`
	Class string `json:"class"`
}

// Score is a 0-100 value with a status colour.
type Score struct {
	Value  int    `json:"value" validate:"gte=0,lte=100"`
	Status string `json:"status" validate:"oneof=green yellow red"`
}

// ConnectorDetails describes where a connector reads from and writes to.
type ConnectorDetails struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Schedule    string `json:"schedule"`
	Owner       string `json:"owner"`
}

// Connector is a data-ingestion or pipeline unit.
type Connector struct {
	ID                   int              `json:"id" validate:"gt=0"`
	Name                 string           `json:"name" validate:"required"`
	Type                 ConnectorType    `json:"type"`
	LastRefresh          string           `json:"lastRefresh"`
	LastRefreshTimestamp string           `json:"lastRefreshTimestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Freshness            Score            `json:"freshness"`
	Quality              Score            `json:"quality"`
	Details              ConnectorDetails `json:"details"`
}

// NewConnector validates a connector value.
func NewConnector(c Connector) (Connector, error) {
	if err := Validate(c); err != nil {
		return Connector{}, err
	}
	return c, nil
}

// ConnectorFilter narrows connector listings. Fixture listings accept it but
// do not apply it.
type ConnectorFilter struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Owner  string `json:"owner,omitempty"`
}

// RefreshResult acknowledges a refresh request.
type RefreshResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}
