package fixtures

import (
	"math/rand/v2"
	"time"

	"opsdash/pkg/models"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type seriesSpec struct {
	id, name string
	min, max int
}

type trendSpec struct {
	points   int
	step     time.Duration
	series   []seriesSpec
	insights []models.Insight
}

var trendSpecs = map[string]trendSpec{
	models.Range24h: {
		points: 24,
		step:   time.Hour,
		series: []seriesSpec{
			{"freshness", "Freshness Score", 80, 100},
			{"quality", "Quality Score", 85, 100},
			{"runtime", "Pipeline Runtime (min)", 30, 60},
			{"volume", "Data Volume (GB)", 5, 20},
		},
		insights: []models.Insight{
			{Message: "Freshness score improved by 5% in the last 6 hours", Trend: "up", Type: "green"},
			{Message: "Pipeline runtime briefly spiked at 06:00 UTC", Trend: "up", Type: "yellow"},
		},
	},
	models.Range7d: {
		points: 7,
		step:   24 * time.Hour,
		series: []seriesSpec{
			{"freshness", "Freshness Score", 75, 98},
			{"quality", "Quality Score", 80, 100},
			{"runtime", "Pipeline Runtime (min)", 35, 55},
			{"volume", "Data Volume (GB)", 5, 25},
		},
		insights: []models.Insight{
			{Message: "Freshness score improved by 3% over the last 7 days", Trend: "up", Type: "green"},
			{Message: "Quality checks decreased by 2% in the last 3 days", Trend: "down", Type: "yellow"},
			{Message: "Pipeline runtime has remained stable over the last week", Trend: "stable", Type: "primary"},
		},
	},
	models.Range30d: {
		points: 30,
		step:   24 * time.Hour,
		series: []seriesSpec{
			{"freshness", "Freshness Score", 70, 98},
			{"quality", "Quality Score", 75, 100},
			{"runtime", "Pipeline Runtime (min)", 30, 60},
			{"volume", "Data Volume (GB)", 5, 30},
		},
		insights: []models.Insight{
			{Message: "Freshness trending upward overall in the last month", Trend: "up", Type: "green"},
			{Message: "Data volume increased by 25% month-over-month", Trend: "up", Type: "primary"},
			{Message: "Quality dipped during system update mid-month", Trend: "down", Type: "yellow"},
		},
	},
	models.Range90d: {
		points: 90,
		step:   24 * time.Hour,
		series: []seriesSpec{
			{"freshness", "Freshness Score", 65, 98},
			{"quality", "Quality Score", 70, 100},
			{"runtime", "Pipeline Runtime (min)", 25, 65},
			{"volume", "Data Volume (GB)", 5, 35},
		},
		insights: []models.Insight{
			{Message: "Overall quality has improved by 12% over the quarter", Trend: "up", Type: "green"},
			{Message: "Runtime performance decreased as data volume grew", Trend: "down", Type: "yellow"},
			{Message: "Pipeline optimizations in week 8 reduced average runtime by 15%", Trend: "up", Type: "green"},
		},
	},
}

func buildTrends(now time.Time, seed uint64) map[string]models.TrendData {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make(map[string]models.TrendData, len(trendSpecs))
	// Fixed order keeps generated values stable for a given seed.
	for _, r := range models.TrendRanges {
		spec := trendSpecs[r]
		td := models.TrendData{
			Timestamps: timestamps(now, spec.points, spec.step),
			Series:     make([]models.Series, 0, len(spec.series)),
			Insights:   append([]models.Insight(nil), spec.insights...),
		}
		for _, ss := range spec.series {
			td.Series = append(td.Series, models.Series{
				ID:   ss.id,
				Name: ss.name,
				Data: randomData(rng, spec.points, ss.min, ss.max),
			})
		}
		out[r] = td
	}
	return out
}

// timestamps returns count instants ending at now, oldest first.
func timestamps(now time.Time, count int, step time.Duration) []string {
	out := make([]string, 0, count)
	for i := count - 1; i >= 0; i-- {
		out = append(out, now.Add(-time.Duration(i)*step).Format(isoMillis))
	}
	return out
}

// randomData returns count integers in [min, max].
func randomData(rng *rand.Rand, count, min, max int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = rng.IntN(max-min+1) + min
	}
	return out
}
