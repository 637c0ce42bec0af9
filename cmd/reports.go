package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/export"
	"github.com/nichelab/niche-cli/internal/model"
	"github.com/nichelab/niche-cli/internal/server"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect and export stored reports",
	Long:  "Commands for listing, viewing, deleting, and exporting niche reports.",
}

// -- reports list --

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		summaries, err := st.ListReports(ctx, user, limit)
		if err != nil {
			return eris.Wrap(err, "reports list")
		}

		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}

		formatReportsList(os.Stdout, summaries)
		return nil
	},
}

// -- reports show --

var reportsShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a full report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		report, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "reports show")
		}
		if report == nil {
			return eris.Errorf("report %s not found", args[0])
		}

		return writeReport(os.Stdout, report)
	},
}

// -- reports delete --

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <report-id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteReport(ctx, args[0]); err != nil {
			return eris.Wrap(err, "reports delete")
		}

		fmt.Printf("Deleted report %s\n", args[0])
		return nil
	},
}

// -- reports export --

var (
	exportXLSXPath string
	exportNotion   bool
)

var reportsExportCmd = &cobra.Command{
	Use:   "export <report-id>",
	Short: "Export a report to an XLSX workbook or a Notion database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if exportXLSXPath == "" && !exportNotion {
			return eris.New("nothing to export: pass --xlsx or --notion")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		report, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "reports export")
		}
		if report == nil {
			return eris.Errorf("report %s not found", args[0])
		}

		if exportXLSXPath != "" {
			if err := export.WriteXLSX(report, exportXLSXPath); err != nil {
				return err
			}
			zap.L().Info("report exported",
				zap.String("report_id", report.ID),
				zap.String("path", exportXLSXPath),
			)
		}

		if exportNotion {
			if cfg.Export.NotionToken == "" || cfg.Export.NotionDatabaseID == "" {
				return eris.New("notion export requires NICHE_EXPORT_NOTION_TOKEN and NICHE_EXPORT_NOTION_DATABASE_ID")
			}
			client := export.NewNotionClient(cfg.Export.NotionToken)
			exporter := export.NewNotionExporter(client, cfg.Export.NotionDatabaseID)
			pageID, err := exporter.Export(ctx, report)
			if err != nil {
				return err
			}
			zap.L().Info("report exported to notion",
				zap.String("report_id", report.ID),
				zap.String("page_id", pageID),
			)
		}

		return nil
	},
}

func init() {
	reportsListCmd.Flags().String("user", server.DefaultUserID, "list reports owned by this user id")
	reportsListCmd.Flags().Int("limit", 50, "max number of reports to display")

	reportsExportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "write an XLSX workbook to this path")
	reportsExportCmd.Flags().BoolVar(&exportNotion, "notion", false, "upsert the report into the configured Notion database")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	rootCmd.AddCommand(reportsCmd)
}

// formatReportsList writes a tabular list of report summaries to w.
func formatReportsList(out io.Writer, summaries []model.ReportSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTOP NICHE\tFIT\tSTATUS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t---------\t---\t------\t-------")

	for _, s := range summaries {
		niche := s.TopNiche
		if len(niche) > 30 {
			niche = niche[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			truncateID(s.ID),
			niche,
			s.FitScore,
			s.Status,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
