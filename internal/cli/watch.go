package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/credence/internal/feed"
)

var (
	watchSchedule string
	watchOnce     bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [feed-url...]",
	Short: "Analyze new feed items on a schedule",
	Long: `Watch polls RSS/Atom feeds on a cron schedule and analyzes items it
has not seen before. Reports are archived, and the archive doubles as the
record of seen items across restarts.

The schedule accepts standard 5-field cron expressions and descriptors
such as @hourly or @every 15m.

Example:
  credence watch https://news.example/rss --schedule "@every 15m"
  credence watch --schedule "0 * * * *"`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule (default from config)")
	watchCmd.Flags().BoolVar(&watchOnce, "run-now", true, "run one cycle immediately before the first scheduled run")
	watchCmd.Flags().StringVar(&feedOutputDir, "output-dir", "", "write JSON and Markdown reports here")

	addAnalysisFlags(watchCmd)
	addFetchFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	cfg.Archive.Enabled = true
	if cmd.Flags().Changed("schedule") {
		cfg.Feeds.Schedule = watchSchedule
	}

	feedURLs := args
	if len(feedURLs) == 0 {
		feedURLs = cfg.Feeds.URLs
	}
	if len(feedURLs) == 0 {
		return fmt.Errorf("no feeds given (pass URLs or set feeds.urls in the config)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	archiveStore, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer archiveStore.Close()

	run := &feedRun{
		pipeline:  p,
		reader:    feed.NewReader(cfg.HTTP, cfg.Feeds.MaxItems, cfg.Concurrency.Workers),
		archive:   archiveStore,
		workers:   cfg.Concurrency.Workers,
		outputDir: feedOutputDir,
		skipSeen:  true,
	}

	// SkipIfStillRunning keeps cycles from overlapping on slow feeds
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = scheduler.AddFunc(cfg.Feeds.Schedule, func() {
		ok, failed := run.cycle(ctx, feedURLs)
		zap.L().Info("watch cycle complete", zap.Int("analyzed", ok), zap.Int("failed", failed))
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Feeds.Schedule, err)
	}

	printBanner("Credence Watch")
	fmt.Fprintf(os.Stderr, "  Feeds:      %d\n", len(feedURLs))
	fmt.Fprintf(os.Stderr, "  Schedule:   %s\n", cfg.Feeds.Schedule)
	fmt.Fprintf(os.Stderr, "  Archive:    %s\n", cfg.Archive.Path)
	fmt.Fprintf(os.Stderr, "\n")

	if watchOnce {
		run.cycle(ctx, feedURLs)
	}

	scheduler.Start()
	<-ctx.Done()

	zap.L().Info("watch stopping")
	<-scheduler.Stop().Done()
	return nil
}
