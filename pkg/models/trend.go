package models

// Supported trend windows.
const (
	Range24h = "24h"
	Range7d  = "7d"
	Range30d = "30d"
	Range90d = "90d"
)

// TrendRanges lists the supported windows in display order.
var TrendRanges = []string{Range24h, Range7d, Range30d, Range90d}

// Series is one named metric aligned with TrendData.Timestamps.
type Series struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// Insight is a short annotation derived from a trend.
type Insight struct {
	Message string `json:"message"`
	Trend   string `json:"trend"`
	Type    string `json:"type"`
}

// TrendData holds parallel series for one time window.
type TrendData struct {
	Timestamps []string  `json:"timestamps"`
	Series     []Series  `json:"series"`
	Insights   []Insight `json:"insights"`
}

// Clone returns a deep copy.
func (t TrendData) Clone() TrendData {
	out := TrendData{
		Timestamps: cloneStrings(t.Timestamps),
		Series:     make([]Series, len(t.Series)),
		Insights:   make([]Insight, len(t.Insights)),
	}
	for i, s := range t.Series {
		data := make([]int, len(s.Data))
		copy(data, s.Data)
		out.Series[i] = Series{ID: s.ID, Name: s.Name, Data: data}
	}
	copy(out.Insights, t.Insights)
	return out
}
