package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/worker"
)

var (
	outJSON        string
	outMD          string
	outFormat      string
	articleURL     string
	articleTitle   string
	articleSource  string
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze one article from a file, stdin or URL",
	Long: `Analyze scores a single article:
- Detect misinformation rhetoric patterns
- Read the emotional register sentence by sentence
- Highlight checkable claims
- Combine with the calibrated model into a 0-100 credibility score

Example:
  credence analyze article.txt
  cat article.txt | credence analyze -
  credence analyze --url https://example.com/news/story --json report.json --md report.md
  credence analyze article.txt --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&articleURL, "url", "", "fetch and analyze an article URL")
	analyzeCmd.Flags().StringVar(&articleTitle, "title", "", "article title (file/stdin input)")
	analyzeCmd.Flags().StringVar(&articleSource, "source", "", "article source URL or outlet (file/stdin input)")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	analyzeCmd.Flags().StringVar(&outFormat, "format", "", "stdout format: summary, json, markdown (default from config)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall timeout")

	addAnalysisFlags(analyzeCmd)
	addFetchFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if articleURL == "" && len(args) == 0 {
		return fmt.Errorf("provide a file, '-' for stdin, or --url")
	}
	if articleURL != "" && len(args) > 0 {
		return fmt.Errorf("use either a file argument or --url, not both")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
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

	var report *model.Report
	if articleURL != "" {
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Fetching %s\n", articleURL)
		}
		report, err = p.AnalyzeURL(ctx, articleURL)
	} else {
		var article model.Article
		article, err = readArticleArg(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		if articleTitle != "" {
			article.Title = articleTitle
		}
		if articleSource != "" {
			article.Source = articleSource
		}
		report, err = p.AnalyzeArticle(ctx, article)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	saveReport(ctx, archiveStore, report)

	format := outFormat
	if format == "" {
		format = cfg.Output.Format
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if err := p.Renderer().WriteJSON(out, report); err != nil {
			return err
		}
		return p.RenderReport(report, outJSON, outMD, false, io.Discard)
	case "markdown", "md":
		if _, err := io.WriteString(out, p.Renderer().Markdown(report)); err != nil {
			return err
		}
		return p.RenderReport(report, outJSON, outMD, false, io.Discard)
	case "summary", "":
		return p.RenderReport(report, outJSON, outMD, cfg.Output.Verbose, out)
	default:
		return fmt.Errorf("unknown format %q (summary, json, markdown)", format)
	}
}

// readArticleArg reads an article from a path, or from stdin for "-"
func readArticleArg(arg string, stdin io.Reader) (model.Article, error) {
	if arg != "-" {
		return worker.ReadArticleFile(arg)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return model.Article{}, fmt.Errorf("read stdin: %w", err)
	}
	return model.NewArticle(string(data), ""), nil
}
