package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// ollamaBaseURL is Ollama's OpenAI-compatible endpoint
const ollamaBaseURL = "http://localhost:11434/v1"

// NewProvider creates the narrative provider named in config.
// An empty provider name returns (nil, nil): narration disabled.
//
// "ollama" and "compatible" speak the OpenAI chat protocol to a local or
// self-hosted server; they need a BaseURL (Ollama has a default) but no real key.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "":
		return nil, nil
	case "openai":
		return openAIProvider(config)
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = ollamaBaseURL
		}
		if config.Model == "" {
			config.Model = "llama3.1"
		}
		return newLocalProvider(config)
	case "compatible":
		if config.BaseURL == "" {
			return nil, fmt.Errorf("LLM provider %q requires base_url", config.Provider)
		}
		return newLocalProvider(config)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama, compatible)", config.Provider)
	}
}

func newLocalProvider(config Config) (Provider, error) {
	if config.APIKey == "" {
		config.APIKey = "unused"
	}
	return openAIProvider(config)
}

// openAIProvider avoids returning a typed nil inside the Provider interface
func openAIProvider(config Config) (Provider, error) {
	p, err := NewOpenAIProvider(config)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:       modelConfig.Provider,
		Model:          modelConfig.Model,
		APIKey:         modelConfig.APIKey,
		BaseURL:        modelConfig.BaseURL,
		Timeout:        modelConfig.Timeout,
		StrictEvidence: modelConfig.StrictEvidence,
		MaxTokens:      modelConfig.MaxTokens,
	}
}
