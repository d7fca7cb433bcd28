package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
	"github.com/ppiankov/credence/internal/store"
)

// Flags shared by the analysis commands
var (
	noCache     bool
	noFooter    bool
	archive     bool
	llmEnabled  bool
	llmModel    string
	userAgent   string
	httpProxy   string
	httpsProxy  string
	insecureTLS bool
	checkLinks  bool
)

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&archive, "archive", false, "save reports to the SQLite archive")
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "add an LLM narrative summary (never affects the score)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&checkLinks, "check-links", false, "check cited links for dead or stale targets")
}

// applyFlags overlays command flags on the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("archive") {
		cfg.Archive.Enabled = archive
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if flags.Changed("check-links") {
		cfg.Citations.CheckLinks = checkLinks
	}

	if llmEnabled {
		// --llm turns on the configured provider, OpenAI when none is set
		if cfg.LLM.Provider == "" {
			cfg.LLM.Provider = "openai"
		}
		if flags.Changed("llm-model") || (cfg.LLM.Model == "" && cfg.LLM.Provider == "openai") {
			cfg.LLM.Model = llmModel
		}
		cfg.LLM.StrictEvidence = true
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return nil
}

// newPipeline loads the analyzer and wraps it in a pipeline.
// A model load failure stops the command.
func newPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	analyzer, err := pipeline.NewAnalyzerFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Verbose {
		info := analyzer.ModelInfo()
		fmt.Fprintf(os.Stderr, "✓ Loaded model %s (%s, schema v%d)\n", info.ModelVersion, info.Kind, info.SchemaVersion)
	}
	return pipeline.NewPipeline(cfg, analyzer, zap.L()), nil
}

// openArchive opens the report archive when enabled, nil otherwise
func openArchive(ctx context.Context, cfg *model.Config) (*store.Store, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	s, err := store.Open(ctx, cfg.Archive.Path)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("archive opened", zap.String("path", cfg.Archive.Path))
	return s, nil
}

// saveReport archives a report, logging rather than failing on error
func saveReport(ctx context.Context, archive *store.Store, report *model.Report) {
	if archive == nil || report == nil {
		return
	}
	if err := archive.Save(ctx, report); err != nil {
		zap.L().Warn("archive failed", zap.String("article_id", report.ArticleID), zap.Error(err))
	}
}

// writeReportFiles renders JSON and Markdown for a report into dir
func writeReportFiles(p *pipeline.Pipeline, dir string, report *model.Report) error {
	slug := reportSlug(report)
	if err := p.Renderer().RenderJSON(report, filepath.Join(dir, slug+".json")); err != nil {
		return err
	}
	return p.Renderer().RenderMarkdown(report, filepath.Join(dir, slug+".md"))
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// reportSlug builds a filesystem-safe name from the title, falling back to the article ID
func reportSlug(report *model.Report) string {
	slug := unsafeFilenameChars.ReplaceAllString(strings.ToLower(report.Title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	id := report.ArticleID
	if len(id) > 8 {
		id = id[:8]
	}
	if slug == "" {
		return id
	}
	return slug + "-" + id
}

func printBanner(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}
