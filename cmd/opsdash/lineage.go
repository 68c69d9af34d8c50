package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"opsdash/internal/analyzer"
	"opsdash/internal/dashboard"
	"opsdash/internal/graph/adjacency"
	"opsdash/internal/logger"
	"opsdash/internal/output/adjacencyjson"
	"opsdash/pkg/models"
)

func newLineageCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Export and analyze the connector lineage graph",
	}
	cmd.PersistentFlags().StringVarP(&input, "input", "i", "", "adjacency JSONL to read instead of the fixtures")
	cmd.AddCommand(
		newLineageExportCmd(a),
		newLineageCheckCmd(a, &input),
		newLineageImpactCmd(a, &input),
	)
	return cmd
}

// lineageRows maps the fixture lineage, or loads rows from input when set.
func (a *app) lineageRows(cmd *cobra.Command, input string, vertices bool) ([]*models.AdjacencyRow, error) {
	if input != "" {
		rows, err := analyzer.LoadRowsJSONL(input)
		if err != nil {
			return nil, err
		}
		logger.Infof("Loaded %d adjacency rows from %s", len(rows), input)
		return rows, nil
	}

	store, err := buildFixtures(a.cfg)
	if err != nil {
		return nil, err
	}
	svc, err := dashboard.NewService(store, dashboard.Config{Latency: dashboard.NoLatency()})
	if err != nil {
		return nil, err
	}
	nodes, err := svc.ConnectorLineage(cmd.Context())
	if err != nil {
		return nil, err
	}
	mapper := adjacency.NewMapper(adjacency.MapperOptions{WriteVertexRows: vertices})
	return mapper.MapLineage(nodes), nil
}

func newLineageExportCmd(a *app) *cobra.Command {
	var (
		output   string
		topology bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the lineage graph as adjacency JSONL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := buildFixtures(a.cfg)
			if err != nil {
				return err
			}
			mapper := adjacency.NewMapper(adjacency.MapperOptions{WriteVertexRows: a.cfg.OpsDash.Graph.WriteVertexRows})
			rows := mapper.MapLineage(store.Lineage())
			if topology {
				rows = append(rows, mapper.MapTechStack(store.TechStack())...)
			}

			var w *adjacencyjson.Writer
			if output == "" || output == "-" {
				w = adjacencyjson.NewStreamWriter(cmd.OutOrStdout())
			} else {
				w, err = adjacencyjson.NewWriter(output)
				if err != nil {
					return err
				}
			}
			if err := w.WriteRows(rows); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported rows=%d output=%s\n", w.Count(), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "output/lineage.jsonl", "output path, - for stdout")
	cmd.Flags().BoolVar(&topology, "topology", false, "include tech stack links")
	return cmd
}

func newLineageCheckCmd(a *app, input *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report dangling and one-sided lineage references",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := a.lineageRows(cmd, *input, true)
			if err != nil {
				return err
			}
			report := analyzer.Validate(rows)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Valid {
				logger.Warnf("Lineage has %d issue(s)", len(report.Issues))
			}
			return nil
		},
	}
}

func newLineageImpactCmd(a *app, input *string) *cobra.Command {
	var (
		direction string
		depth     int
	)
	cmd := &cobra.Command{
		Use:   "impact <connector-id>",
		Short: "List connectors affected by (or feeding) a connector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid connector id %q", args[0])
			}
			dir, err := analyzer.ParseDirection(direction)
			if err != nil {
				return err
			}
			if depth <= 0 {
				depth = a.cfg.OpsDash.Graph.MaxDepth
			}

			rows, err := a.lineageRows(cmd, *input, false)
			if err != nil {
				return err
			}
			report, err := analyzer.Impact(rows, adjacency.ConnectorID(id), dir, analyzer.Config{MaxDepth: depth})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "downstream", "downstream|upstream")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum hops (defaults to graph.max_depth)")
	return cmd
}
