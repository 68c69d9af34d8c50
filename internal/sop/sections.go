package sop

import (
	"fmt"
	"strings"
	"time"

	"opsdash/pkg/models"
)

type builder struct {
	points   []models.DataPoint
	patterns refreshPatterns
	goals    string
	now      time.Time
}

func (b builder) standard() []models.SOPSection {
	overview := fmt.Sprintf("This SOP outlines the procedures for monitoring and maintaining data pipelines across %d critical data points. ", len(b.points))
	if b.goals != "" {
		overview += "Key business objectives: " + b.goals
	}
	return []models.SOPSection{
		{Title: "Overview", Content: overview},
		{Title: "Data Sources", Content: b.dataSources()},
		{Title: "Monitoring Procedures", Content: b.monitoring()},
		{Title: "Troubleshooting Guide", Content: b.troubleshooting()},
		{Title: "Refresh Schedule", Content: b.refreshSchedule()},
	}
}

func (b builder) detailed() []models.SOPSection {
	return append(b.standard(),
		models.SOPSection{Title: "Data Lineage", Content: b.lineage()},
		models.SOPSection{Title: "Quality Control Measures", Content: b.qualityControl()},
		models.SOPSection{Title: "Escalation Procedures", Content: "Detailed steps for escalating issues based on severity and impact."},
		models.SOPSection{Title: "Compliance and Governance", Content: "Guidelines for ensuring data handling complies with organizational policies and regulatory requirements."},
	)
}

func (b builder) quickstart() []models.SOPSection {
	intro := fmt.Sprintf("Essential procedures for managing %d data points. ", len(b.points))
	if b.goals != "" {
		intro += "Key objectives: " + b.goals
	}
	return []models.SOPSection{
		{Title: "Quick Start", Content: intro},
		{Title: "Key Data Points", Content: b.keyDataPoints()},
		{Title: "Common Issues", Content: "Concise troubleshooting steps for frequent issues."},
	}
}

func (b builder) bySource(source string) []models.DataPoint {
	var out []models.DataPoint
	for _, p := range b.points {
		if p.Source == source {
			out = append(out, p)
		}
	}
	return out
}

func (b builder) hasSource(source string) bool {
	return len(b.bySource(source)) > 0
}

func (b builder) dataSources() string {
	var lines []string
	if pts := b.bySource("snowflake"); len(pts) > 0 {
		lines = append(lines, "## Snowflake\n")
		for _, p := range pts {
			lines = append(lines, fmt.Sprintf("- **%s** (`%s`): %s", p.Name, p.Table, p.RefreshRate))
		}
	}
	if pts := b.bySource("fabric"); len(pts) > 0 {
		lines = append(lines, "\n## Fabric\n")
		for _, p := range pts {
			lines = append(lines, fmt.Sprintf("- **%s** (`%s`): %s", p.Name, p.Table, p.RefreshRate))
		}
	}
	return strings.Join(lines, "\n")
}

func (b builder) keyDataPoints() string {
	lines := make([]string, 0, len(b.points))
	for _, p := range b.points {
		lines = append(lines, fmt.Sprintf("- **%s** (%s)\n  - Table: `%s`\n  - Refresh: %s\n  - Last updated: %s",
			p.Name, p.Source, p.Table, p.RefreshRate, RefreshDescription(p.LastRefreshed, b.now)))
	}
	return strings.Join(lines, "\n")
}

func (b builder) monitoring() string {
	lines := []string{
		"## Regular Monitoring Tasks\n",
		"1. **Daily Checks**:",
		"   - Verify completion of overnight batch processes",
		"   - Check data freshness indicators for daily refreshed sources",
		"   - Review any alerts generated in the last 24 hours",
		"",
		"2. **Weekly Checks**:",
		"   - Validate weekly data refreshes were completed successfully",
		"   - Review data quality metrics for all sources",
		"   - Check for any anomalies in data patterns or volumes",
		"",
		"3. **Monthly Checks**:",
		"   - Perform comprehensive audit of all data pipelines",
		"   - Review performance metrics and optimize as needed",
		"   - Update documentation for any changes to data sources or procedures",
	}
	if len(b.patterns.frequent) > 0 {
		lines = append(lines,
			"\n## High-Frequency Data Points\n",
			"These data points update frequently and require more active monitoring:")
		for _, p := range b.patterns.frequent {
			lines = append(lines, fmt.Sprintf("- **%s**: Check every %s", p.Name, strings.ToLower(p.RefreshRate)))
		}
	}
	return strings.Join(lines, "\n")
}

func (b builder) troubleshooting() string {
	lines := []string{
		"## Common Issues and Solutions\n",
		"### Data Freshness Issues",
		"1. **Stale Data Detected**:",
		"   - Check source system connectivity",
		"   - Verify ETL job execution logs",
		"   - Check for upstream dependencies that may have failed",
		"",
		"### Data Quality Issues",
		"1. **Unexpected Null Values**:",
		"   - Verify source data integrity",
		"   - Check transformation logic for errors",
		"   - Review recent changes to data pipelines",
		"",
		"2. **Volume Anomalies**:",
		"   - Compare with historical patterns",
		"   - Check for changes in source systems",
		"   - Verify all data is being properly extracted",
	}
	if b.hasSource("snowflake") {
		lines = append(lines,
			"\n### Snowflake-Specific Issues",
			"1. **Connection Issues**:",
			"   - Check network connectivity to Snowflake",
			"   - Verify credentials and access permissions",
			"   - Review warehouse suspension settings")
	}
	if b.hasSource("fabric") {
		lines = append(lines,
			"\n### Fabric-Specific Issues",
			"1. **API Rate Limiting**:",
			"   - Check for throttling messages in logs",
			"   - Implement exponential backoff if needed",
			"   - Review API quota usage")
	}
	return strings.Join(lines, "\n")
}

func (b builder) refreshSchedule() string {
	lines := []string{"## Refresh Schedule Summary\n"}
	groups := []struct {
		heading string
		points  []models.DataPoint
	}{
		{"### Hourly/Sub-hourly", b.patterns.frequent},
		{"\n### Daily", b.patterns.daily},
		{"\n### Weekly", b.patterns.weekly},
		{"\n### Other Frequencies", b.patterns.other},
	}
	for _, g := range groups {
		if len(g.points) == 0 {
			continue
		}
		lines = append(lines, g.heading)
		for _, p := range g.points {
			lines = append(lines, fmt.Sprintf("- **%s** (%s): %s", p.Name, p.Source, p.RefreshRate))
		}
	}
	return strings.Join(lines, "\n")
}

func (b builder) lineage() string {
	lines := []string{
		"## Data Lineage\n",
		"### Source Systems",
		"Data flows from these original sources through various transformations:",
	}
	if pts := b.bySource("snowflake"); len(pts) > 0 {
		lines = append(lines, "\n**Snowflake:**")
		for _, p := range pts {
			lines = append(lines, "- "+p.Table)
		}
	}
	if pts := b.bySource("fabric"); len(pts) > 0 {
		lines = append(lines, "\n**Fabric:**")
		for _, p := range pts {
			lines = append(lines, "- "+p.Table)
		}
	}
	lines = append(lines,
		"\n### Dependencies",
		"These data points have interdependencies that affect refresh scheduling and monitoring:")

	// Illustrative chain over the first few selected tables.
	if n := len(b.points); n > 1 {
		lines = append(lines, "\n```", "Source Tables → Transformation → Target Tables")
		for i := 0; i < min(3, n-1); i++ {
			lines = append(lines, fmt.Sprintf("%s → Transform → %s", b.points[i].Table, b.points[(i+1)%n].Table))
		}
		lines = append(lines, "```")
	}
	return strings.Join(lines, "\n")
}

var qualityChecks = []struct {
	keyword string
	checks  []string
}{
	{"sales", []string{
		"- Validate sales totals against financial systems",
		"- Check for negative values in revenue fields",
		"- Verify no duplicate transaction IDs",
	}},
	{"customer", []string{
		"- Verify email format is valid where present",
		"- Check for duplicate customer records",
		"- Validate demographic data is within expected ranges",
	}},
	{"product", []string{
		"- Verify all products have valid categories",
		"- Check for negative inventory values",
		"- Validate pricing data is within expected ranges",
	}},
	{"traffic", []string{
		"- Verify page view counts are reasonable",
		"- Check for unusual traffic spikes",
		"- Validate referrer information",
	}},
}

var genericChecks = []string{
	"- Validate no unexpected null values in key fields",
	"- Check data volumes against historical averages",
	"- Verify data format consistency",
}

func (b builder) qualityControl() string {
	lines := []string{
		"## Quality Control Measures\n",
		"### Automated Checks",
		"The following automated checks are implemented to ensure data quality:",
		"1. **Completeness**: Verify all expected records are present",
		"2. **Validity**: Check that values conform to expected formats and ranges",
		"3. **Consistency**: Ensure data is consistent across related tables",
		"4. **Timeliness**: Verify data is updated according to schedule",
		"\n### Data Point Specific Checks",
	}
	for _, p := range b.points {
		lines = append(lines, fmt.Sprintf("\n**%s**", p.Name))
		lines = append(lines, checksFor(p)...)
	}
	return strings.Join(lines, "\n")
}

// checksFor picks the first keyword matching the name or table.
func checksFor(p models.DataPoint) []string {
	name, table := strings.ToLower(p.Name), strings.ToLower(p.Table)
	for _, qc := range qualityChecks {
		if strings.Contains(name, qc.keyword) || strings.Contains(table, qc.keyword) {
			return qc.checks
		}
	}
	return genericChecks
}
