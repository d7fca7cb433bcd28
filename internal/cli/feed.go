package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/credence/internal/feed"
	"github.com/ppiankov/credence/internal/pipeline"
	"github.com/ppiankov/credence/internal/store"
	"github.com/ppiankov/credence/internal/worker"
)

var (
	feedMaxItems  int
	feedFetchAll  bool
	feedOutputDir string
	feedTimeout   time.Duration
)

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed [feed-url...]",
	Short: "Analyze the latest items of RSS/Atom feeds",
	Long: `Feed reads RSS or Atom feeds and analyzes their newest items.

Items whose feed entry carries the full text are analyzed directly; for
teaser-only entries the linked page is fetched (respecting robots.txt and
per-domain rate limits).

Feed URLs come from the arguments, or from feeds.urls in the config.

Example:
  credence feed https://news.example/rss
  credence feed --max-items 5 --output-dir ./reports
  credence feed --archive`,
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().IntVar(&feedMaxItems, "max-items", 0, "items per feed (default from config)")
	feedCmd.Flags().BoolVar(&feedFetchAll, "fetch-pages", false, "always fetch the linked page instead of using feed text")
	feedCmd.Flags().StringVar(&feedOutputDir, "output-dir", "", "write JSON and Markdown reports here")
	feedCmd.Flags().DurationVar(&feedTimeout, "timeout", 10*time.Minute, "total timeout")

	addAnalysisFlags(feedCmd)
	addFetchFlags(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("max-items") {
		cfg.Feeds.MaxItems = feedMaxItems
	}

	feedURLs := args
	if len(feedURLs) == 0 {
		feedURLs = cfg.Feeds.URLs
	}
	if len(feedURLs) == 0 {
		return fmt.Errorf("no feeds given (pass URLs or set feeds.urls in the config)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), feedTimeout)
	defer cancel()

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	archiveStore, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	if archiveStore != nil {
		defer archiveStore.Close()
	}
	if feedOutputDir != "" {
		if err := os.MkdirAll(feedOutputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	printBanner("Credence Feed Analysis")
	run := &feedRun{
		pipeline:  p,
		reader:    feed.NewReader(cfg.HTTP, cfg.Feeds.MaxItems, cfg.Concurrency.Workers),
		archive:   archiveStore,
		workers:   cfg.Concurrency.Workers,
		fetchAll:  feedFetchAll,
		outputDir: feedOutputDir,
	}
	ok, failed := run.cycle(ctx, feedURLs)

	fmt.Fprintf(os.Stderr, "\n  Analyzed: %d  Failed: %d\n\n", ok, failed)
	return nil
}

// feedRun analyzes feed items; watch runs it repeatedly
type feedRun struct {
	pipeline  *pipeline.Pipeline
	reader    *feed.Reader
	archive   *store.Store
	workers   int
	fetchAll  bool
	outputDir string
	skipSeen  bool
	seen      map[string]bool
}

// cycle reads all feeds once and analyzes the items
func (r *feedRun) cycle(ctx context.Context, feedURLs []string) (ok, failed int) {
	items, errs := r.reader.ReadAll(ctx, feedURLs)
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
	}

	tasks := make([]worker.Task, 0, len(items))
	for _, item := range items {
		if r.skipSeen && r.alreadySeen(ctx, item) {
			continue
		}
		tasks = append(tasks, taskForItem(item, r.fetchAll))
	}
	zap.L().Info("feed cycle",
		zap.Int("feeds", len(feedURLs)),
		zap.Int("items", len(items)),
		zap.Int("new", len(tasks)))
	if len(tasks) == 0 {
		return 0, 0
	}

	processor := worker.NewBatchProcessor(r.pipeline, r.workers)
	processor.OnProgress(func(res *worker.AnalysisResult) {
		if res.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Task.Label(), res.Error)
			return
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%.1f/100, %s)\n",
			res.Task.Label(), res.Report.Result.Score, res.Report.Result.Classification)
	})

	results := processor.Process(ctx, tasks)
	for _, res := range results {
		if res.Error != nil {
			continue
		}
		saveReport(ctx, r.archive, res.Report)
		r.markSeen(res.Task)
		if r.outputDir != "" {
			if err := writeReportFiles(r.pipeline, r.outputDir, res.Report); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", res.Task.Label(), err)
			}
		}
	}
	return worker.Summarize(results)
}

func (r *feedRun) alreadySeen(ctx context.Context, item feed.Item) bool {
	key := item.Link
	if key == "" {
		return false
	}
	if r.seen[key] {
		return true
	}
	if r.archive != nil {
		found, err := r.archive.HasSource(ctx, key)
		if err != nil {
			zap.L().Warn("archive lookup failed", zap.Error(err))
			return false
		}
		return found
	}
	return false
}

func (r *feedRun) markSeen(task worker.Task) {
	if !r.skipSeen {
		return
	}
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	key := task.URL
	if key == "" {
		key = task.Article.Source
	}
	r.seen[key] = true
}

// taskForItem analyzes feed text when it is long enough, else the linked page
func taskForItem(item feed.Item, fetchAll bool) worker.Task {
	if item.Link != "" && (fetchAll || !item.HasBody()) {
		return worker.Task{URL: item.Link}
	}
	return worker.Task{Article: item.Article()}
}
