package main

import (
	"context"
	"fmt"

	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every catalog row and recreate an empty schema",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Bool("yes", false, "confirm deleting the whole catalog")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("%w: reset deletes the whole catalog, pass --yes to confirm", util.ErrInvalidConfig)
	}

	logger := newEventLogger()
	defer logger.Close()

	sess, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	util.SuccessLog("Catalog reset")
	return nil
}
