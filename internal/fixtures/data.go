package fixtures

import (
	"time"

	"opsdash/pkg/models"
)

func techStack() (models.TechStack, error) {
	type nodeSpec struct {
		id, name, typ, desc, icon string
		tech                      []string
		x, y, z                   float64
	}
	nodeSpecs := []nodeSpec{
		{"snowflake", "Snowflake", models.NodeSource, "Cloud data warehouse platform", "/images/snowflake-icon.png",
			[]string{"SQL", "Snowpipe", "Streams"}, 200, 150, 10},
		{"fabric", "Microsoft Fabric", models.NodeProcessor, "Analytics platform for data professionals", "/images/fabric-icon.png",
			[]string{"Data Factory", "Synapse Analytics", "Power BI"}, 500, 150, 10},
		{"powerbi", "Power BI", models.NodeDestination, "Business analytics service", "/images/powerbi-icon.png",
			[]string{"DAX", "Power Query", "Data Modeling"}, 350, 400, 0},
	}

	type linkSpec struct {
		source, target string
		value          float64
		typ            string
		freq, desc     string
	}
	linkSpecs := []linkSpec{
		{"snowflake", "fabric", 10, "data", "hourly", "Data flows from Snowflake to Fabric"},
		{"snowflake", "powerbi", 5, "reporting", "daily", "Direct connection from Snowflake to Power BI"},
		{"fabric", "powerbi", 8, "visualization", "real-time", "Visualizations in Power BI fed by Fabric"},
	}

	var stack models.TechStack
	for _, ns := range nodeSpecs {
		n, err := models.NewTopologyNode(ns.id, ns.name, ns.typ, ns.desc, ns.tech, ns.icon, ns.x, ns.y, ns.z)
		if err != nil {
			return models.TechStack{}, err
		}
		stack.Nodes = append(stack.Nodes, n)
	}
	for _, ls := range linkSpecs {
		l, err := models.NewTopologyLink(ls.source, ls.target, ls.value, ls.typ, true, ls.freq, ls.desc)
		if err != nil {
			return models.TechStack{}, err
		}
		stack.Links = append(stack.Links, l)
	}
	return stack, nil
}

func nodeMetrics() map[string]models.NodeMetrics {
	return map[string]models.NodeMetrics{
		"snowflake": {
			DataVolume:       "2.3 TB",
			QueryPerformance: "0.8s avg",
			CostEstimate:     "$1,200/month",
			ActiveUsers:      34,
			DataTables:       156,
		},
		"fabric": {
			DataVolume:      "1.8 TB",
			ProcessingJobs:  42,
			PipelineSuccess: "98.5%",
			CostEstimate:    "$950/month",
			Dataflows:       23,
		},
		"powerbi": {
			Reports:        28,
			Dashboards:     12,
			DailyUsers:     156,
			RefreshSuccess: "99.2%",
			ViewTime:       "45 min avg",
		},
	}
}

func dashboardMetrics() models.DashboardMetrics {
	return models.DashboardMetrics{
		ActiveConnectors: models.ActiveConnectors{Current: 28, Total: 32, Percentage: 87},
		FreshnessScore:   models.FreshnessScore{Value: 94, Percentage: 94},
		QualityChecks:    models.QualityChecks{Passed: 582, Total: 612, Percentage: 95},
		PipelineRuntime:  models.PipelineRuntime{Value: 42, Unit: "min", Percentage: 68},
	}
}

func qualityAlerts(now time.Time) ([]models.QualityAlert, error) {
	raw := []models.QualityAlert{
		{
			ID:          1,
			Title:       "Stale Customer Data",
			Description: "Customer data hasn't been updated in the last 48 hours (Fivetran)",
			Severity:    models.SeverityWarning,
			Type:        "primary",
			Timestamp:   now,
		},
		{
			ID:          2,
			Title:       "Anomaly Detected",
			Description: "Orders table row count decreased by 15% (dbt test failure)",
			Severity:    models.SeverityCritical,
			Type:        "accent",
			Timestamp:   now,
		},
		{
			ID:          3,
			Title:       "Schema Change Detected",
			Description: "New column added to product_catalog table (Snowflake check)",
			Severity:    models.SeverityInfo,
			Type:        "gold",
			Timestamp:   now,
		},
	}
	out := make([]models.QualityAlert, 0, len(raw))
	for _, a := range raw {
		v, err := models.NewQualityAlert(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func connectors() ([]models.Connector, error) {
	raw := []models.Connector{
		{
			ID:                   1,
			Name:                 "Customer Data",
			Type:                 models.ConnectorType{Name: "Fivetran", Class: "primary"},
			LastRefresh:          "3 hours ago",
			LastRefreshTimestamp: "2023-07-01T12:00:00Z",
			Freshness:            models.Score{Value: 98, Status: models.StatusGreen},
			Quality:              models.Score{Value: 100, Status: models.StatusGreen},
			Details: models.ConnectorDetails{
				Source:      "MySQL Database",
				Destination: "Snowflake",
				Schedule:    "Every 6 hours",
				Owner:       "Data Engineering Team",
			},
		},
		{
			ID:                   2,
			Name:                 "Sales Transactions",
			Type:                 models.ConnectorType{Name: "Airflow", Class: "accent"},
			LastRefresh:          "30 minutes ago",
			LastRefreshTimestamp: "2023-07-01T14:30:00Z",
			Freshness:            models.Score{Value: 96, Status: models.StatusGreen},
			Quality:              models.Score{Value: 98, Status: models.StatusGreen},
			Details: models.ConnectorDetails{
				Source:      "API",
				Destination: "Snowflake",
				Schedule:    "Every hour",
				Owner:       "Data Engineering Team",
			},
		},
		{
			ID:                   3,
			Name:                 "Product Catalog",
			Type:                 models.ConnectorType{Name: "ADF", Class: "secondary"},
			LastRefresh:          "2 days ago",
			LastRefreshTimestamp: "2023-06-29T09:15:00Z",
			Freshness:            models.Score{Value: 72, Status: models.StatusYellow},
			Quality:              models.Score{Value: 85, Status: models.StatusYellow},
			Details: models.ConnectorDetails{
				Source:      "REST API",
				Destination: "Azure Synapse",
				Schedule:    "Daily",
				Owner:       "Product Team",
			},
		},
		{
			ID:                   4,
			Name:                 "Marketing Campaigns",
			Type:                 models.ConnectorType{Name: "Lambda", Class: "gold"},
			LastRefresh:          "12 hours ago",
			LastRefreshTimestamp: "2023-07-01T02:45:00Z",
			Freshness:            models.Score{Value: 92, Status: models.StatusGreen},
			Quality:              models.Score{Value: 97, Status: models.StatusGreen},
			Details: models.ConnectorDetails{
				Source:      "Marketing Platform API",
				Destination: "Snowflake",
				Schedule:    "Every 12 hours",
				Owner:       "Marketing Analytics",
			},
		},
	}
	out := make([]models.Connector, 0, len(raw))
	for _, c := range raw {
		v, err := models.NewConnector(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func lineage() ([]models.LineageNode, error) {
	ref := func(id int, name, typ string) models.LineageRef {
		return models.LineageRef{ID: id, Name: name, Type: typ}
	}
	var (
		customer  = ref(1, "Customer Data", "Fivetran")
		sales     = ref(2, "Sales Transactions", "Airflow")
		product   = ref(3, "Product Catalog", "ADF")
		marketing = ref(4, "Marketing Campaigns", "Lambda")
		salesAn   = ref(5, "Sales Analytics", "Airflow")
		revenue   = ref(6, "Revenue Dashboard", "Lambda")
		marketAn  = ref(7, "Marketing Analytics", "Lambda")
		exec      = ref(8, "Executive Dashboard", "Fivetran")
	)
	node := func(r models.LineageRef, lastRefresh string, up, down []models.LineageRef, quality int, status string) models.LineageNode {
		return models.LineageNode{
			ID:          r.ID,
			Name:        r.Name,
			Type:        r.Type,
			LastRefresh: lastRefresh,
			Upstream:    up,
			Downstream:  down,
			Quality:     models.Score{Value: quality, Status: status},
		}
	}
	raw := []models.LineageNode{
		node(customer, "3 hours ago", nil, []models.LineageRef{sales, marketing}, 98, models.StatusGreen),
		node(sales, "30 minutes ago", []models.LineageRef{customer}, []models.LineageRef{salesAn, revenue}, 96, models.StatusGreen),
		node(product, "2 days ago", nil, []models.LineageRef{salesAn}, 85, models.StatusYellow),
		node(marketing, "12 hours ago", []models.LineageRef{customer}, []models.LineageRef{marketAn}, 92, models.StatusGreen),
		node(salesAn, "1 hour ago", []models.LineageRef{sales, product}, []models.LineageRef{exec}, 94, models.StatusGreen),
		node(revenue, "45 minutes ago", []models.LineageRef{sales}, nil, 96, models.StatusGreen),
		node(marketAn, "5 hours ago", []models.LineageRef{marketing}, []models.LineageRef{exec}, 90, models.StatusGreen),
		node(exec, "2 hours ago", []models.LineageRef{salesAn, marketAn}, nil, 95, models.StatusGreen),
	}
	out := make([]models.LineageNode, 0, len(raw))
	for _, n := range raw {
		v, err := models.NewLineageNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
