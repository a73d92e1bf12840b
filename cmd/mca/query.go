package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/franz/music-catalog/internal/analytics"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [1-7|name|all]...",
	Short: "Run analytical queries over the loaded catalog",
	Long:  queryHelp(),
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().Bool("explain", false, "print each query's explanation before its table")
}

func queryHelp() string {
	var b strings.Builder
	b.WriteString("Run one or more analytical queries by number or name, or \"all\".\n\nQueries:\n")
	for _, q := range analytics.Queries() {
		fmt.Fprintf(&b, "  %d  %-14s %s\n", q.ID, q.Name, q.Title)
	}
	return b.String()
}

// queryRefs expands "all" into every query id
func queryRefs(args []string) []string {
	var refs []string
	for _, arg := range args {
		if strings.EqualFold(arg, "all") {
			for _, q := range analytics.Queries() {
				refs = append(refs, fmt.Sprint(q.ID))
			}
			continue
		}
		refs = append(refs, arg)
	}
	return refs
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	explain, _ := cmd.Flags().GetBool("explain")

	// Resolve every reference before touching the store
	refs := queryRefs(args)
	for _, ref := range refs {
		if _, err := analytics.Lookup(ref); err != nil {
			return err
		}
	}

	logger := newEventLogger()
	defer logger.Close()

	sess, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	width := 0
	if util.IsTerminal(os.Stdout.Fd()) {
		width = util.GetTerminalWidth()
	}

	for i, ref := range refs {
		table, err := sess.Run(ctx, ref)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Println()
		}
		if explain {
			q, _ := analytics.Lookup(ref)
			fmt.Println(q.Explanation)
			fmt.Println()
		}
		if err := report.RenderTable(os.Stdout, table, width); err != nil {
			return err
		}
	}
	return nil
}
