package main

import (
	"context"
	"fmt"

	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <dataset.csv>",
	Short: "Reset the catalog and load a dataset",
	Long: `Drop every catalog table, recreate the schema and load the dataset.

The load runs in a single transaction: on any error nothing is kept and the
catalog is left empty. Cells that cannot be parsed are stored as NULL
(musical attributes, release dates) or zero (streaming metrics); override a
column with "coercion.<column>: null|zero" in the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	logger := newEventLogger()
	defer logger.Close()

	sess, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	util.InfoLog("=== Loading %s ===", path)

	result, err := sess.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	util.SuccessLog("Loaded %s rows in %s", util.FormatCount(int64(result.Rows)), util.FormatDuration(result.Duration))
	util.InfoLog("  Platforms seeded: %d", result.PlatformsSeeded)
	util.InfoLog("  Artists: %s", util.FormatCount(int64(result.ArtistsInserted)))
	util.InfoLog("  Tracks: %s", util.FormatCount(int64(result.TracksInserted)))
	if result.TracksReused > 0 {
		util.InfoLog("  Duplicate rows merged: %d", result.TracksReused)
	}
	util.InfoLog("  Artist links: %s", util.FormatCount(int64(result.ArtistLinks)))
	util.InfoLog("  Streaming metrics: %s", util.FormatCount(int64(result.MetricsInserted)))
	if result.ArtistLinksSkipped > 0 {
		util.WarnLog("  Artist links skipped: %d", result.ArtistLinksSkipped)
	}
	if len(result.Warnings) > 0 {
		util.WarnLog("  Coerced cells: %d (run with -v for details)", len(result.Warnings))
	}
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	util.InfoLog("")
	util.InfoLog("Next step: mca query all")
	return nil
}
