package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/contractor/internal/report"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent contract test runs",
		Long: `List recent runs recorded in the run-history database, newest first.

Examples:
  contractor history
  contractor history --report-dir ./reports --limit 5`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	cmd.Flags().String("report-dir", ".contractor/reports", "Report directory holding the history database")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("report-dir")
	limit, _ := cmd.Flags().GetInt("limit")

	history, err := report.OpenHistory(filepath.Join(dir, "history.db"))
	if err != nil {
		return err
	}
	defer history.Close()

	records, err := history.Recent(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded runs.\n")
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  total=%d passed=%d failed=%d skipped=%d rate=%.1f%%  %s\n",
			rec.StartedAt.Local().Format(time.RFC3339),
			rec.RunID[:8],
			rec.Total, rec.Passed, rec.Failed, rec.Skipped,
			rec.PassRate*100,
			rec.Duration.Round(time.Millisecond))
	}
	return nil
}
