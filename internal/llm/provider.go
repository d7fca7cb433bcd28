package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize narrates a finished report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the finished credibility report; the narrative may not alter its verdict
	Report model.Report

	// AllowedURLs is the strict allowlist of URLs the LLM may cite
	AllowedURLs []string

	// Prompt overrides the default prompt when set
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedURLs are the URLs the LLM actually cited (for verification)
	CitedURLs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", "compatible" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects responses citing URLs outside the allowlist
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      800,
	}
}

// maxPromptPatterns caps the rhetoric matches quoted into the prompt
const maxPromptPatterns = 8

// BuildPrompt constructs the default prompt. The verdict is stated as fixed
// input; the model only explains it.
func BuildPrompt(report model.Report, allowedURLs []string) string {
	var b strings.Builder

	b.WriteString(`You are explaining a Credence report. Credence flags rhetoric and checkable claims in news text - it NEVER decides whether the article is true.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
`)
	b.WriteString(joinURLs(allowedURLs))
	b.WriteString(`

2. DO NOT infer, speculate, or bring in outside facts about the story.
3. The score and classification below are final. Do not change, dispute or re-grade them.
4. Describe language and sourcing patterns, e.g.:
   - "The article relies on unnamed sources..."
   - "Several sentences use sensational wording..."
   - "Figures are given without attribution..."
5. Never say the article "is true" or "is false".

`)

	title := report.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "Report Summary:\n- Title: %s\n", title)
	if report.Source != "" {
		fmt.Fprintf(&b, "- Source: %s (authority: %s)\n", report.Source, report.SourceAuthority)
	}

	if r := report.Result; r != nil {
		fmt.Fprintf(&b, "- Credibility Score: %.1f/100\n", r.Score)
		fmt.Fprintf(&b, "- Classification: %s (%s)\n", r.Classification, r.RiskLevel)
		fmt.Fprintf(&b, "- Tone: %s\n", r.Tone)
		fmt.Fprintf(&b, "- Sentences: %d, Pattern Matches: %d, Claim Spans: %d\n",
			r.SentenceCount, len(r.Patterns), len(r.Claims))

		if len(r.KeyIndicators) > 0 {
			b.WriteString("\nKey Indicators:\n")
			for _, ind := range r.KeyIndicators {
				fmt.Fprintf(&b, "- %s\n", ind)
			}
		}

		if len(r.Patterns) > 0 {
			b.WriteString("\nFlagged Phrases:\n")
			for i, p := range r.Patterns {
				if i >= maxPromptPatterns {
					fmt.Fprintf(&b, "... and %d more\n", len(r.Patterns)-maxPromptPatterns)
					break
				}
				fmt.Fprintf(&b, "- %q (%s)\n", p.Text, p.Category)
			}
		}
	}

	b.WriteString("\nProvide a 3-4 sentence summary of how the article is written and sourced.")

	return b.String()
}

// joinURLs renders the allowlist, capped at 20 entries
func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No URLs allowed - do not cite any)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

// AllowedURLs returns the URLs a narrative may cite for a report: the
// article's own source when it is a URL, then its live citations
func AllowedURLs(report model.Report) []string {
	var urls []string
	if strings.HasPrefix(report.Source, "http://") || strings.HasPrefix(report.Source, "https://") {
		urls = append(urls, report.Source)
	}
	for _, c := range report.Citations {
		if c.Check != nil && c.Check.Dead {
			continue
		}
		if !contains(urls, c.URL) {
			urls = append(urls, c.URL)
		}
	}
	return urls
}
