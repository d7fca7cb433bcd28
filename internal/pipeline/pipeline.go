package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/source"
	"github.com/ppiankov/credence/internal/worker"
)

// Pipeline wraps the Analyzer with everything around a single analysis:
// article identity, result caching, source authority, fetching and the
// optional LLM narrative
type Pipeline struct {
	analyzer   *Analyzer
	fetcher    *Fetcher
	authority  *source.Authority
	links      *source.LinkChecker // nil unless link checking is enabled
	maxLinks   int
	results    *cache.Results  // nil when caching is disabled
	summarizer *llm.Summarizer // nil when LLM narration is disabled
	renderer   *Renderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewPipeline creates a pipeline around a loaded analyzer
func NewPipeline(cfg *model.Config, analyzer *Analyzer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.L()
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			logger.Warn("LLM provider disabled", zap.Error(err))
		} else {
			summarizer = s
		}
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for domain, rps := range cfg.RateLimiting.Domains {
		limiter.SetDomainRate(domain, rps, 0)
	}

	var links *source.LinkChecker
	if cfg.Citations.CheckLinks && cfg.Citations.MaxLinks > 0 {
		links = source.NewLinkChecker(cfg.Citations, cfg.HTTP)
	}

	return &Pipeline{
		analyzer:   analyzer,
		fetcher:    NewFetcher(cfg.HTTP, limiter),
		authority:  source.NewAuthority(&cfg.Authority),
		links:      links,
		maxLinks:   cfg.Citations.MaxLinks,
		results:    cache.NewFromConfig(cfg.Cache),
		summarizer: summarizer,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		logger:     logger,
		now:        time.Now,
	}
}

// Analyzer returns the underlying analyzer
func (p *Pipeline) Analyzer() *Analyzer {
	return p.analyzer
}

// AnalyzeArticle analyzes one article and wraps the result in a Report.
// Failures come back as *model.AnalysisError carrying the article ID.
func (p *Pipeline) AnalyzeArticle(ctx context.Context, article model.Article) (*model.Report, error) {
	return p.analyzeArticle(ctx, article, nil)
}

func (p *Pipeline) analyzeArticle(ctx context.Context, article model.Article, citations []model.Citation) (*model.Report, error) {
	article = article.EnsureID()

	if err := ctx.Err(); err != nil {
		return nil, &model.AnalysisError{ArticleID: article.ID, Err: err}
	}

	start := p.now()
	result, cached, err := p.analyze(article.Text)
	if err != nil {
		p.logger.Debug("analysis rejected",
			zap.String("article_id", article.ID),
			zap.Error(err))
		return nil, &model.AnalysisError{ArticleID: article.ID, Err: err}
	}

	report := &model.Report{
		ArticleID:       article.ID,
		Title:           article.Title,
		Source:          article.Source,
		SourceAuthority: p.authority.Tier(article.Source),
		AnalyzedAt:      p.now().UTC(),
		Cached:          cached,
		Result:          result,
		Citations:       citations,
	}

	p.logger.Info("article analyzed",
		zap.String("article_id", article.ID),
		zap.Float64("score", result.Score),
		zap.String("classification", string(result.Classification)),
		zap.Int("patterns", len(result.Patterns)),
		zap.Int("claims", len(result.Claims)),
		zap.Int("citations", len(citations)),
		zap.Bool("cached", cached),
		zap.Duration("elapsed", p.now().Sub(start)))

	// Narrative runs after scoring and never changes the result
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.logger.Warn("LLM summary generation failed", zap.Error(err))
		} else if summary != nil {
			report.LLM = summary
		}
	}

	return report, nil
}

// AnalyzeURL fetches an article page and analyzes its extracted text.
// Outbound links are attached as citations, tiered and optionally checked.
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	page, err := p.fetcher.FetchPage(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return p.analyzeArticle(ctx, page.Article, p.collectCitations(ctx, page.Citations))
}

// collectCitations caps, tiers and (when enabled) checks a page's outbound links
func (p *Pipeline) collectCitations(ctx context.Context, citations []model.Citation) []model.Citation {
	if p.maxLinks <= 0 || len(citations) == 0 {
		return nil
	}
	if len(citations) > p.maxLinks {
		citations = citations[:p.maxLinks]
	}

	citations = p.authority.Annotate(citations)
	if p.links != nil {
		start := p.now()
		citations = p.links.Check(ctx, citations)
		summary := model.SummarizeCitations(citations)
		p.logger.Debug("citations checked",
			zap.Int("checked", summary.Checked),
			zap.Int("dead", summary.Dead),
			zap.Int("stale", summary.Stale),
			zap.Duration("elapsed", p.now().Sub(start)))
	}
	return citations
}

// analyze consults the result cache before running the analyzer
func (p *Pipeline) analyze(text string) (*model.CredibilityResult, bool, error) {
	if p.results == nil {
		result, err := p.analyzer.Analyze(text)
		return result, false, err
	}

	key := cache.Key(p.analyzer.Fingerprint(), text)
	if result, found := p.results.Get(key); found {
		return result, true, nil
	}

	result, err := p.analyzer.Analyze(text)
	if err != nil {
		return nil, false, err
	}
	if err := p.results.Put(key, result); err != nil {
		p.logger.Warn("cache write failed", zap.Error(err))
	}
	return result, false, nil
}

// RenderReport writes JSON and Markdown outputs when paths are given,
// a separate .llm.md narrative next to the Markdown, and a summary to out
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool, out io.Writer) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmMdPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmMdPath); err != nil {
			p.logger.Warn("failed to write LLM summary", zap.Error(err))
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmMdPath)
		}
	}

	if out != nil && out != io.Discard {
		p.renderer.RenderSummary(out, report)
	}

	return nil
}

// CacheStats reports result cache hits and misses; ok is false when caching is disabled
func (p *Pipeline) CacheStats() (stats cache.Stats, ok bool) {
	if p.results == nil {
		return cache.Stats{}, false
	}
	return p.results.Stats(), true
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
