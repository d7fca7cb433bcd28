package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
)

var (
	historyLimit          int
	historyClassification string
	historySource         string
	historyStats          bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [article-id]",
	Short: "Show archived reports",
	Long: `History lists reports saved with --archive, newest first, or prints one
archived report as JSON.

Example:
  credence history
  credence history --classification FAKE --limit 10
  credence history --stats
  credence history 6f1c2a9e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of reports to list")
	historyCmd.Flags().StringVar(&historyClassification, "classification", "", "only REAL, FAKE, MISLEADING or UNVERIFIED")
	historyCmd.Flags().StringVar(&historySource, "source", "", "only reports for this source")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show archive statistics")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	ctx := cmd.Context()

	if _, err := os.Stat(cfg.Archive.Path); err != nil {
		return fmt.Errorf("no archive at %s (run analyze, batch or feed with --archive)", cfg.Archive.Path)
	}
	archiveStore, err := store.Open(ctx, cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer archiveStore.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		entry, err := archiveStore.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return newRendererFor(cfg).WriteJSON(out, entry.Report)
	}

	if historyStats {
		stats, err := archiveStore.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Reports:     %d\n", stats.Total)
		fmt.Fprintf(out, "Mean score:  %.1f\n", stats.MeanScore)
		for _, c := range []model.Classification{
			model.ClassificationReal,
			model.ClassificationMisleading,
			model.ClassificationFake,
			model.ClassificationUnverified,
		} {
			fmt.Fprintf(out, "  %-11s %d\n", c, stats.ByClassification[c])
		}
		return nil
	}

	entries, err := archiveStore.Recent(ctx, store.Filter{
		Classification: model.Classification(historyClassification),
		Source:         historySource,
		Limit:          historyLimit,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No archived reports.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVED\tSCORE\tCLASS\tID\tTITLE")
	for _, e := range entries {
		r := e.Report
		title := r.Title
		if title == "" {
			title = r.Source
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\n",
			e.ArchivedAt.Local().Format("2006-01-02 15:04"),
			r.Result.Score, r.Result.Classification, r.ArticleID, truncate(title, 60))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
