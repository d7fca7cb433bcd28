package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|list-file>",
	Short: "Analyze many articles in parallel",
	Long: `Batch analyzes many articles concurrently:
- A directory: every .txt, .md, .html and .htm file is one article
- A list file: one URL or file path per line (# comments allowed)
- One failing article never stops the others
- Writes a JSON and Markdown report per article

Example:
  credence batch ./articles
  credence batch urls.txt --concurrency 8 --output-dir ./reports
  credence batch urls.txt --archive --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./credence-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	addAnalysisFlags(batchCmd)
	addFetchFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") || cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	printBanner("Credence Batch Analysis")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	tasks, err := readTasks(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d articles\n\n", len(tasks))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

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

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	processor.OnProgress(func(r *worker.AnalysisResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Task.Label(), r.Error)
			return
		}
		res := r.Report.Result
		fmt.Fprintf(os.Stderr, "✓ %s (%.1f/100, %s)\n", r.Task.Label(), res.Score, res.Classification)
	})

	results := processor.Process(ctx, tasks)
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		saveReport(ctx, archiveStore, r.Report)
		if err := writeReportFiles(p, outputDir, r.Report); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", r.Task.Label(), err)
		}
	}

	ok, failed := worker.Summarize(results)
	printBanner("Batch Complete")
	fmt.Fprintf(os.Stderr, "  Total:     %d articles\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", ok)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failed)
	if stats, ok := p.CacheStats(); ok {
		fmt.Fprintf(os.Stderr, "  Cache:     %d hits, %d misses\n", stats.Hits, stats.Misses)
	}
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if ok == 0 && failed > 0 {
		return fmt.Errorf("all %d articles failed", failed)
	}
	return nil
}

// readTasks loads tasks from a directory of article files or a list file
func readTasks(input string) ([]worker.Task, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if info.IsDir() {
		return worker.ReadTasksFromDir(input)
	}
	return worker.ReadTasksFromList(input)
}
