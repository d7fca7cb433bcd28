package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You explain credibility reports about news articles. " +
	"You describe writing and sourcing patterns and never judge whether the story is true."

// ErrCitationLeak is returned in strict mode when the narrative cites a URL outside the allowlist
var ErrCitationLeak = errors.New("CITATION LEAK")

// ErrVerdictOverreach is returned in strict mode when the narrative rules on the story's truth
var ErrVerdictOverreach = errors.New("VERDICT OVERREACH")

// truthClaimPattern matches narratives that pronounce an article true or false
var truthClaimPattern = regexp.MustCompile(`(?i)\b(?:article|story|report|claim)s?\s+(?:is|are|was|were)\s+(?:(?:definitely|clearly|certainly|probably)\s+)?(?:fake|false|true|accurate|a\s+hoax|fabricated|made\s+up)\b`)

// OpenAIProvider narrates reports through an OpenAI-compatible chat API.
// Local servers such as Ollama are reached through BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates a provider for the OpenAI API or a compatible endpoint
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	name := strings.ToLower(config.Provider)
	if name == "" {
		name = "openai"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   name,
	}, nil
}

// Name returns the configured provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks the endpoint and key with a model listing
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		zap.L().Warn("LLM endpoint check failed", zap.String("provider", p.name), zap.Error(err))
		return false
	}
	return true
}

// Summarize generates a narrative with the Chat Completions API. In strict
// mode the narrative is rejected if it cites URLs outside the allowlist or
// pronounces the article true or false.
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedURLs)
	}
	model, maxTokens, timeout := p.settings(req)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	citedURLs := extractURLs(summary)

	if p.config.StrictEvidence {
		for _, citedURL := range citedURLs {
			if !contains(req.AllowedURLs, citedURL) {
				return nil, fmt.Errorf("%w: LLM cited disallowed URL: %s", ErrCitationLeak, citedURL)
			}
		}
		if phrase := truthClaimPattern.FindString(summary); phrase != "" {
			return nil, fmt.Errorf("%w: LLM ruled on the story: %q", ErrVerdictOverreach, phrase)
		}
	}

	return &SummarizeResponse{
		Summary:    summary,
		CitedURLs:  citedURLs,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// settings resolves the request's model, token budget and timeout against provider defaults
func (p *OpenAIProvider) settings(req SummarizeRequest) (model string, maxTokens int, timeout time.Duration) {
	model = firstNonEmpty(req.Model, p.config.Model, openai.GPT4oMini)

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = DefaultConfig().MaxTokens
	}

	timeout = time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return model, maxTokens, timeout
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]>"]+`)

// extractURLs extracts unique http(s) URLs, trimming trailing punctuation
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}
	return unique
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
