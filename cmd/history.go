package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"highlights-cli/internal/results"
	"highlights-cli/internal/ui"
	"highlights-cli/pkg/config"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded needle test outcomes",
	Long: `List needle tests recorded with "niah --record", newest first, followed by
a summary over every recorded run.

EXAMPLES:
  highlights-cli history
  highlights-cli history --limit 50 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of entries to show (0 for all)")
	historyCmd.Flags().BoolVarP(&historyJSON, "json", "j", false, "Print entries as JSON")
}

func runHistory(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := results.Open(cfg.Results.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	entries, err := store.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	summary, err := store.Summary(ctx)
	if err != nil {
		return err
	}

	if historyJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal entries: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printHistory(cmd.OutOrStdout(), entries, summary)
	return nil
}

func printHistory(w io.Writer, entries []results.Entry, summary results.Summary) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded outcomes")
		return
	}

	for _, e := range entries {
		rank := "-"
		if e.MatchingChunkPosition != nil {
			rank = fmt.Sprintf("%d", *e.MatchingChunkPosition+1)
		}
		fmt.Fprintf(w, "#%-4d %s  %s  rank %-3s chunks %-4d pos %-7d %6s  %s\n",
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			ui.Verdict(e.Success),
			rank,
			e.TotalChunks,
			e.TruePosition,
			e.Latency.Round(time.Millisecond),
			truncate(e.Query, 40),
		)
	}

	report := ui.NewReport("Summary").
		Addf("Runs", "%d", summary.Runs).
		Addf("Ranked first", "%d", summary.Successes).
		Addf("In results", "%d", summary.Ranked).
		Addf("Success rate", "%.1f%%", summary.SuccessRate()*100)
	fmt.Fprint(w, "\n"+report.String())
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
