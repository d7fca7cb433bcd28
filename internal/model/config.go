package model

import "time"

// Config holds all runtime settings for credence
type Config struct {
	Input        InputConfig       `yaml:"input" mapstructure:"input"`
	Rules        TableConfig       `yaml:"rules" mapstructure:"rules"`
	Lexicon      TableConfig       `yaml:"lexicon" mapstructure:"lexicon"`
	Model        ModelConfig       `yaml:"model" mapstructure:"model"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	Citations    CitationConfig    `yaml:"citations" mapstructure:"citations"`
	Feeds        FeedConfig        `yaml:"feeds" mapstructure:"feeds"`
	Archive      ArchiveConfig     `yaml:"archive" mapstructure:"archive"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// InputConfig bounds what the preprocessor accepts
type InputConfig struct {
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars"` // Rune count limit per article
}

// TableConfig points at an external rule or lexicon table.
// An empty path selects the embedded default.
type TableConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ModelConfig selects the classifier artifact
type ModelConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty = embedded default artifact
}

// CacheConfig controls result caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig controls outbound fetching of articles and feeds
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	Retries       int           `yaml:"retries" mapstructure:"retries"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxBatch        int           `yaml:"max_batch" mapstructure:"max_batch"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// RateLimitConfig controls request admission (per domain when fetching, per client when serving)
type RateLimitConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int                `yaml:"burst_size" mapstructure:"burst_size"`
	Domains           map[string]float64 `yaml:"domains,omitempty" mapstructure:"domains"` // Per-domain overrides for fetching
}

// ConcurrencyConfig controls worker pools
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// AuthorityConfig maps source domains to authority tiers
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // host -> tier name
}

// PathPattern assigns a tier to URLs whose path matches a regex
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// CitationConfig controls outbound link collection for fetched articles
type CitationConfig struct {
	MaxLinks   int           `yaml:"max_links" mapstructure:"max_links"`     // 0 disables collection
	CheckLinks bool          `yaml:"check_links" mapstructure:"check_links"` // Probe each link with HEAD
	Workers    int           `yaml:"workers" mapstructure:"workers"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// FeedConfig lists feeds for the feed and watch commands
type FeedConfig struct {
	URLs     []string `yaml:"urls" mapstructure:"urls"`
	MaxItems int      `yaml:"max_items" mapstructure:"max_items"` // Per feed
	Schedule string   `yaml:"schedule" mapstructure:"schedule"`   // Cron expression for watch
}

// ArchiveConfig controls the SQLite report archive
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LLMConfig controls the optional narrative summary
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "compatible" or "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // Seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Format        string `yaml:"format" mapstructure:"format"` // json, markdown, summary
}

// DefaultMaxChars bounds article length, in characters
const DefaultMaxChars = 50000

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			MaxChars: DefaultMaxChars,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".credence-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Credence/0.1 (+https://github.com/ppiankov/credence)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			Retries:       2,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
			MaxBatch:        50,
			CORSOrigins:     []string{"*"},
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"apnews.com",
				"reuters.com",
				"afp.com",
				"who.int",
				"nih.gov",
				"cdc.gov",
				"nature.com",
				"science.org",
				"doi.org",
			},
			SecondaryDomains: []string{
				"bbc.co.uk",
				"bbc.com",
				"nytimes.com",
				"theguardian.com",
				"washingtonpost.com",
				"npr.org",
				"wsj.com",
				"economist.com",
			},
		},
		Citations: CitationConfig{
			MaxLinks: 50,
			Workers:  8,
			Timeout:  10 * time.Second,
		},
		Feeds: FeedConfig{
			MaxItems: 20,
			Schedule: "@every 30m",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "credence.db",
		},
		LLM: LLMConfig{
			Timeout:        30,
			StrictEvidence: true,
			MaxTokens:      800,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Format:        "summary",
		},
	}
}
