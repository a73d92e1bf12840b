package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/franz/music-catalog/internal/analytics"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

// CatalogReport is a snapshot of the catalog and every analytical query
type CatalogReport struct {
	GeneratedAt time.Time
	Duration    time.Duration

	Target        string
	ServerVersion string
	EventLogPath  string

	Counts   *store.Counts
	Sections []QuerySection
}

// QuerySection is one query's result, or the error it failed with
type QuerySection struct {
	Query analytics.Query
	Table *analytics.Table
	Error string
}

// QueryRunner runs one analytical query by id or name
type QueryRunner func(ctx context.Context, ref string) (*analytics.Table, error)

// GenerateCatalogReport counts the catalog tables and runs every query through run.
// A failing query is recorded in its section and does not stop the report,
// unless run refuses to query at all (util.ErrInvalidState).
func GenerateCatalogReport(ctx context.Context, s *store.Store, run QueryRunner, eventLogPath string) (*CatalogReport, error) {
	start := time.Now()
	report := &CatalogReport{
		GeneratedAt:  start,
		Target:       s.Config().String(),
		EventLogPath: eventLogPath,
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog: %w", err)
	}
	report.Counts = counts

	if version, err := s.ServerVersion(ctx); err == nil {
		report.ServerVersion = version
	}

	for _, q := range analytics.Queries() {
		section := QuerySection{Query: q}
		table, err := run(ctx, strconv.Itoa(q.ID))
		if errors.Is(err, util.ErrInvalidState) {
			return nil, err
		}
		if err != nil {
			util.WarnLog("Query %d (%s) failed: %v", q.ID, q.Name, err)
			section.Error = err.Error()
		} else {
			section.Table = table
		}
		report.Sections = append(report.Sections, section)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// WriteMarkdownReport writes the catalog report as Markdown
func WriteMarkdownReport(report *CatalogReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Music Catalog Analyzer - Catalog Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.Target != "" {
		md.WriteString(fmt.Sprintf("**Store:** `%s`", report.Target))
		if report.ServerVersion != "" {
			md.WriteString(fmt.Sprintf(" (%s)", report.ServerVersion))
		}
		md.WriteString("\n\n")
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	if c := report.Counts; c != nil {
		md.WriteString("## Catalog\n\n")
		md.WriteString("| Table | Rows |\n")
		md.WriteString("|-------|------|\n")
		md.WriteString(fmt.Sprintf("| Platform | %s |\n", util.FormatCount(c.Platforms)))
		md.WriteString(fmt.Sprintf("| Artist | %s |\n", util.FormatCount(c.Artists)))
		md.WriteString(fmt.Sprintf("| Track | %s |\n", util.FormatCount(c.Tracks)))
		md.WriteString(fmt.Sprintf("| MusicalAttributes | %s |\n", util.FormatCount(c.Attributes)))
		md.WriteString(fmt.Sprintf("| TrackMusicalAttributes | %s |\n", util.FormatCount(c.TrackAttributes)))
		md.WriteString(fmt.Sprintf("| TrackArtist | %s |\n", util.FormatCount(c.TrackArtists)))
		md.WriteString(fmt.Sprintf("| StreamingMetric | %s |\n", util.FormatCount(c.Metrics)))
		md.WriteString("\n")
	}

	for _, section := range report.Sections {
		md.WriteString(fmt.Sprintf("## Query %d: %s\n\n", section.Query.ID, section.Query.Title))
		if section.Query.Explanation != "" {
			md.WriteString(strings.ReplaceAll(section.Query.Explanation, "\n", " "))
			md.WriteString("\n\n")
		}

		if section.Error != "" {
			md.WriteString(fmt.Sprintf("**Failed:** %s\n\n", section.Error))
			continue
		}
		writeMarkdownTable(&md, section.Table)
	}

	md.WriteString("---\n\n")
	md.WriteString(fmt.Sprintf("*Generated by mca - Music Catalog Analyzer in %s*\n", util.FormatDuration(report.Duration)))

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func writeMarkdownTable(md *strings.Builder, t *analytics.Table) {
	if t.Len() == 0 {
		md.WriteString("*No tracks match.*\n\n")
	} else {
		md.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
		md.WriteString("|" + strings.Repeat("---|", len(t.Columns)) + "\n")
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = strings.ReplaceAll(FormatValue(v), "|", `\|`)
			}
			md.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		md.WriteString("\n")
	}

	for _, ex := range t.Excluded {
		md.WriteString(fmt.Sprintf("> Excluded %s: %s\n", ex.Group, ex.Reason))
	}
	if len(t.Excluded) > 0 {
		md.WriteString("\n")
	}
}
