package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// maxListedSpans caps the pattern and claim tables in Markdown reports
const maxListedSpans = 25

// Renderer writes reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteJSON encodes a report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// RenderJSON writes a report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteJSON(w, report)
	})
}

// RenderMarkdown writes a report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

// RenderLLMMarkdown writes already-rendered LLM narrative to path
func (r *Renderer) RenderLLMMarkdown(markdown string, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, markdown)
		return err
	})
}

// Markdown renders a full report
func (r *Renderer) Markdown(report *model.Report) string {
	res := report.Result
	var b strings.Builder

	title := report.Title
	if title == "" {
		title = "Untitled article"
	}
	fmt.Fprintf(&b, "# Credibility Report: %s\n\n", title)

	fmt.Fprintf(&b, "- **Article ID:** `%s`\n", report.ArticleID)
	if report.Source != "" {
		fmt.Fprintf(&b, "- **Source:** %s (authority: %s)\n", report.Source, report.SourceAuthority)
	}
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Model:** %s (schema v%d)\n\n", res.ModelVersion, res.SchemaVersion)

	b.WriteString("## Verdict\n\n")
	b.WriteString("| Score | Classification | Risk | Confidence |\n")
	b.WriteString("|------:|----------------|------|-----------:|\n")
	fmt.Fprintf(&b, "| %.1f/100 | %s | %s | %.2f |\n\n", res.Score, res.Classification, res.RiskLevel, res.Confidence)

	fmt.Fprintf(&b, "**Tone:** %s\n\n", res.Tone)
	b.WriteString(res.Summary + "\n\n")
	fmt.Fprintf(&b, "**Recommended action:** %s\n\n", res.RecommendedAction)

	b.WriteString("## Key Indicators\n\n")
	for _, ind := range res.KeyIndicators {
		fmt.Fprintf(&b, "- %s\n", ind)
	}
	b.WriteString("\n")

	b.WriteString("## Signals\n\n")
	if len(res.Signals) == 0 {
		b.WriteString("_No signals._\n\n")
	}
	for _, sig := range res.Signals {
		fmt.Fprintf(&b, "### %s (%s)\n\n", sig.Type, sig.Severity)
		b.WriteString(sig.Description + "\n\n")
		if formula, ok := sig.Data["formula"].(string); ok {
			fmt.Fprintf(&b, "`%s`\n\n", formula)
		}
	}

	b.WriteString("## Flagged Patterns\n\n")
	if len(res.Patterns) == 0 {
		b.WriteString("_No rhetoric patterns detected._\n\n")
	} else {
		b.WriteString("| Sentence | Category | Rule | Severity | Text |\n")
		b.WriteString("|---------:|----------|------|---------:|------|\n")
		for i, m := range res.Patterns {
			if i == maxListedSpans {
				fmt.Fprintf(&b, "\n_... and %d more_\n", len(res.Patterns)-maxListedSpans)
				break
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %s |\n", m.Sentence+1, m.Category, m.RuleID, m.Severity, escapeCell(m.Text))
		}
		b.WriteString("\n")
		b.WriteString(categoryBreakdown(res.Patterns))
	}

	b.WriteString("## Claims to Verify\n\n")
	if len(res.Claims) == 0 {
		b.WriteString("_No checkable claims highlighted._\n\n")
	} else {
		b.WriteString("| Sentence | Type | Confidence | Text |\n")
		b.WriteString("|---------:|------|-----------:|------|\n")
		for i, c := range res.Claims {
			if i == maxListedSpans {
				fmt.Fprintf(&b, "\n_... and %d more_\n", len(res.Claims)-maxListedSpans)
				break
			}
			fmt.Fprintf(&b, "| %d | %s | %.2f | %s |\n", c.Sentence+1, c.Type, c.Confidence, escapeCell(c.Text))
		}
		b.WriteString("\n")
	}

	if len(report.Citations) > 0 {
		b.WriteString(citationSection(report.Citations))
	}

	b.WriteString("## Emotional Profile\n\n")
	fmt.Fprintf(&b, "- Dominant emotion: %s\n", res.Emotion.DominantEmotion)
	fmt.Fprintf(&b, "- Mean intensity: %.2f\n", res.Emotion.MeanIntensity)
	fmt.Fprintf(&b, "- Mean valence: %.2f\n", res.Emotion.MeanValence)
	fmt.Fprintf(&b, "- Charged sentences: %.0f%%\n\n", res.Emotion.ChargedRatio*100)

	b.WriteString("## Explanation\n\n")
	b.WriteString(res.Explanation + "\n")

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Credence flags rhetoric and checkable claims. It does not rule on whether the article is true._\n")
	}

	return b.String()
}

// RenderSummary prints a short verdict for terminals
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	res := report.Result

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	if report.Title != "" {
		fmt.Fprintf(w, "  %s\n", report.Title)
	}
	if report.Source != "" {
		fmt.Fprintf(w, "  Source: %s (%s)\n", report.Source, report.SourceAuthority)
	}
	fmt.Fprintf(w, "  Credibility: %.1f/100  %s  [%s]\n", res.Score, res.Classification, res.RiskLevel)
	fmt.Fprintf(w, "  Confidence:  %.2f\n", res.Confidence)
	fmt.Fprintf(w, "  Tone:        %s\n", res.Tone)
	fmt.Fprintf(w, "  Patterns: %d  Claims: %d  Sentences: %d\n", len(res.Patterns), len(res.Claims), res.SentenceCount)
	if len(report.Citations) > 0 {
		cs := model.SummarizeCitations(report.Citations)
		fmt.Fprintf(w, "  Citations: %d (%d external, %d primary)", cs.Total, cs.External, cs.Primary)
		if cs.Checked > 0 {
			fmt.Fprintf(w, "  dead: %d  stale: %d", cs.Dead, cs.Stale)
		}
		fmt.Fprintln(w)
	}
	if report.Cached {
		fmt.Fprintln(w, "  (cached result)")
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, res.RecommendedAction)
}

// citationSection lists outbound links with their tier and, when checked, health
func citationSection(citations []model.Citation) string {
	cs := model.SummarizeCitations(citations)

	var b strings.Builder
	b.WriteString("## Cited Sources\n\n")
	fmt.Fprintf(&b, "%d links, %d external. Primary: %d, secondary: %d, tertiary: %d.\n\n",
		cs.Total, cs.External, cs.Primary, cs.Secondary, cs.Tertiary)

	b.WriteString("| Link | Kind | Tier | Status |\n")
	b.WriteString("|------|------|------|--------|\n")
	for i, c := range citations {
		if i == maxListedSpans {
			fmt.Fprintf(&b, "\n_... and %d more_\n", len(citations)-maxListedSpans)
			break
		}
		label := c.Text
		if label == "" {
			label = c.Host
		}
		fmt.Fprintf(&b, "| [%s](%s) | %s | %s | %s |\n", escapeCell(label), c.URL, c.Kind, c.Authority, linkStatus(c.Check))
	}
	b.WriteString("\n")
	return b.String()
}

func linkStatus(check *model.LinkCheck) string {
	switch {
	case check == nil:
		return "-"
	case check.Dead:
		return "dead"
	case check.Error != "":
		return "error"
	case check.Stale:
		return "stale"
	case check.Accessible:
		return "ok"
	default:
		return fmt.Sprintf("HTTP %d", check.StatusCode)
	}
}

func categoryBreakdown(matches []model.PatternMatch) string {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Category]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("By category: ")
	for i, c := range categories {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d", c, counts[c])
	}
	b.WriteString("\n\n")
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
