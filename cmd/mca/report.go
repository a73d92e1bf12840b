package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/session"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a Markdown report of the catalog and every query",
	Long: `Generate a report in Markdown format.

The report includes:
- Row counts of every catalog table
- The store and server version
- All seven analytical queries with their explanations
- Groups excluded because their statistics are undefined

The report is saved to <artifacts>/reports/<timestamp>/catalog.md`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "Output directory for report (default: <artifacts>/reports/<timestamp>)")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger := newEventLogger()
	defer logger.Close()

	sess, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.State() != session.Loaded {
		return fmt.Errorf("%w: the catalog is empty, run 'mca load <dataset.csv>' first", util.ErrInvalidState)
	}

	util.InfoLog("=== Generating Catalog Report ===")
	catalogReport, err := report.GenerateCatalogReport(ctx, sess.Store(), sess.Run, logger.Path())
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join(util.GetArtifactsDir(), "reports", timestamp)
	}
	outputPath := filepath.Join(outputDir, "catalog.md")

	util.InfoLog("Writing report to: %s", outputPath)
	if err := report.WriteMarkdownReport(catalogReport, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report generated in %s", util.FormatDuration(catalogReport.Duration))
	util.InfoLog("  Tracks: %s", util.FormatCount(catalogReport.Counts.Tracks))
	util.InfoLog("  Artists: %s", util.FormatCount(catalogReport.Counts.Artists))
	for _, section := range catalogReport.Sections {
		if section.Error != "" {
			util.WarnLog("  Query %d failed: %s", section.Query.ID, section.Error)
		}
	}
	return nil
}
