package main

import (
	"context"
	"fmt"
	"os"

	"github.com/franz/music-catalog/internal/recommend"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Build a five-track playlist from your mood",
	Long: `Build a playlist of up to five tracks matching your preferences.

Without flags the preferences are asked interactively. With flags every
preference must be given:

  mca recommend --mood happy --dance yes --lyrics both --sound electronic --rap no

When fewer than three tracks match, the five most streamed tracks on Spotify
are suggested instead.`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().String("mood", "", "happy or sad")
	recommendCmd.Flags().String("dance", "", "yes or no")
	recommendCmd.Flags().String("lyrics", "", "lyrics, instrumentals or both")
	recommendCmd.Flags().String("sound", "", "electronic or acoustic")
	recommendCmd.Flags().String("rap", "", "yes or no")
}

// preferencesFromFlags parses the preference flags. ok is false when none are set.
func preferencesFromFlags(cmd *cobra.Command) (p recommend.Preferences, ok bool, err error) {
	names := []string{"mood", "dance", "lyrics", "sound", "rap"}
	values := make(map[string]string, len(names))
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			values[name], _ = cmd.Flags().GetString(name)
		}
	}
	if len(values) == 0 {
		return p, false, nil
	}
	for _, name := range names {
		if _, set := values[name]; !set {
			return p, true, fmt.Errorf("%w: --%s is required when preferences are given as flags", util.ErrInvalidConfig, name)
		}
	}

	if p.Mood, err = recommend.ParseMood(values["mood"]); err != nil {
		return p, true, err
	}
	if p.Dance, err = recommend.ParseYesNo(values["dance"]); err != nil {
		return p, true, err
	}
	if p.Lyrics, err = recommend.ParseLyrics(values["lyrics"]); err != nil {
		return p, true, err
	}
	if p.Sound, err = recommend.ParseSound(values["sound"]); err != nil {
		return p, true, err
	}
	if p.Rap, err = recommend.ParseYesNo(values["rap"]); err != nil {
		return p, true, err
	}
	return p, true, nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	prefs, fromFlags, err := preferencesFromFlags(cmd)
	if err != nil {
		return err
	}

	logger := newEventLogger()
	defer logger.Close()

	sess, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !fromFlags {
		if prefs, err = recommend.Interview(os.Stdin, os.Stdout); err != nil {
			return err
		}
		fmt.Println()
	}

	result, err := sess.Recommend(ctx, prefs)
	if err != nil {
		return err
	}

	if result.Fallback {
		util.WarnLog("Only %d tracks match your preferences; here are the most streamed tracks instead", result.Matched)
	}

	width := 0
	if util.IsTerminal(os.Stdout.Fd()) {
		width = util.GetTerminalWidth()
	}
	return report.RenderTable(os.Stdout, result.Table, width)
}
