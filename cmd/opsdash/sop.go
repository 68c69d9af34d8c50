package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"opsdash/internal/sop"
	"opsdash/pkg/models"
)

func newSOPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sop",
		Short: "Generate and export standard operating procedures",
	}
	cmd.AddCommand(newSOPGenerateCmd(a), newSOPExportCmd())
	return cmd
}

func readSOPRequest(path string) (models.SOPRequest, error) {
	var req models.SOPRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read request: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func newSOPGenerateCmd(a *app) *cobra.Command {
	var (
		input    string
		template string
		audience string
		remote   bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an SOP document from a JSON request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readSOPRequest(input)
			if err != nil {
				return err
			}
			if template != "" {
				req.Template = template
			}
			if audience != "" {
				req.Audience = audience
			}

			od := a.cfg.OpsDash
			var doc *models.SOPDocument
			if remote || strings.EqualFold(od.SOP.Mode, "remote") {
				client, err := sop.NewClient(sop.Config{APIURL: od.SOP.APIURL, Timeout: od.SOP.Timeout, Headers: od.SOP.Headers})
				if err != nil {
					return err
				}
				doc, err = client.GenerateSOP(cmd.Context(), req)
				if err != nil {
					return err
				}
			} else {
				doc, err = sop.NewGenerator(sop.GeneratorConfig{Delay: od.SOP.GenerateDelay}).Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "sop_request.json", "SOP request JSON path")
	cmd.Flags().StringVar(&template, "template", "", "default|detailed|quickstart")
	cmd.Flags().StringVar(&audience, "audience", "", "technical|business|executive|mixed")
	cmd.Flags().BoolVar(&remote, "remote", false, "call the remote generator at sop.api_url")
	return cmd
}

func newSOPExportCmd() *cobra.Command {
	var (
		input  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a generated SOP document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var doc *models.SOPDocument
			if input != "" {
				data, err := os.ReadFile(input)
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}
				doc = &models.SOPDocument{}
				if err := json.Unmarshal(data, doc); err != nil {
					return fmt.Errorf("decode document: %w", err)
				}
			}
			res := sop.ExportSOP(cmd.Context(), doc, format)
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "SOP document JSON path")
	cmd.Flags().StringVar(&format, "format", "pdf", "export format")
	return cmd
}
