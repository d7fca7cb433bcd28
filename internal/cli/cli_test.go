package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/credence/internal/feed"
	"github.com/ppiankov/credence/internal/model"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CREDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// assertDefaults compares the sections that round-trip exactly;
// empty lists may come back as empty rather than nil slices
func assertDefaults(t *testing.T, cfg *model.Config) {
	t.Helper()
	want := model.DefaultConfig()
	assert.Equal(t, want.Input, cfg.Input)
	assert.Equal(t, want.Cache, cfg.Cache)
	assert.Equal(t, want.HTTP, cfg.HTTP)
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.RateLimiting, cfg.RateLimiting)
	assert.Equal(t, want.Concurrency, cfg.Concurrency)
	assert.Equal(t, want.Authority.PrimaryDomains, cfg.Authority.PrimaryDomains)
	assert.Equal(t, want.Authority.SecondaryDomains, cfg.Authority.SecondaryDomains)
	assert.Equal(t, want.Feeds.Schedule, cfg.Feeds.Schedule)
	assert.Equal(t, want.Archive, cfg.Archive)
	assert.Equal(t, want.LLM, cfg.LLM)
	assert.Equal(t, want.Log, cfg.Log)
	assert.Equal(t, want.Output, cfg.Output)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfigWith(newTestViper())
	require.NoError(t, err)
	assertDefaults(t, cfg)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CREDENCE_HTTP_TIMEOUT", "45s")
	t.Setenv("CREDENCE_INPUT_MAX_CHARS", "1200")
	t.Setenv("CREDENCE_LOG_LEVEL", "warn")

	cfg, err := loadConfigWith(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1200, cfg.Input.MaxChars)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, model.DefaultConfig().Cache, cfg.Cache)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  enabled: false
feeds:
  urls:
    - https://news.example/rss
  schedule: "@hourly"
`), 0644))

	v := newTestViper()
	v.SetConfigFile(path)
	cfg, err := loadConfigWith(v)
	require.NoError(t, err)

	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, model.DefaultConfig().Cache.Dir, cfg.Cache.Dir)
	assert.Equal(t, []string{"https://news.example/rss"}, cfg.Feeds.URLs)
	assert.Equal(t, "@hourly", cfg.Feeds.Schedule)
	assert.Equal(t, model.DefaultMaxChars, cfg.Input.MaxChars)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	v := newTestViper()
	v.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := loadConfigWith(v)
	assert.Error(t, err)
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path, false))

	err := writeDefaultConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, writeDefaultConfig(path, true))

	v := newTestViper()
	v.SetConfigFile(path)
	cfg, err := loadConfigWith(v)
	require.NoError(t, err)
	assertDefaults(t, cfg)
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addAnalysisFlags(cmd)
	addFetchFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--no-cache", "--archive", "--ua", "agent/1", "--check-links"}))
	defer func() { checkLinks = false }()

	cfg := model.DefaultConfig()
	require.NoError(t, applyFlags(cmd, cfg))
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Citations.CheckLinks)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "agent/1", cfg.HTTP.UserAgent)
	assert.True(t, cfg.Output.IncludeFooter)

	defer func() { llmEnabled = false }()
	require.NoError(t, cmd.ParseFlags([]string{"--llm"}))
	cfg = model.DefaultConfig()
	err := applyFlags(cmd, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.LLM.APIKey = "sk-test"
	require.NoError(t, applyFlags(cmd, cfg))
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	require.NoError(t, applyFlags(cmd, cfg), "local providers need no API key")
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Model)
}

func TestReportSlug(t *testing.T) {
	report := &model.Report{ArticleID: "0123456789abcdef", Title: "Council Votes: Budget / 2026!"}
	assert.Equal(t, "council-votes-budget-2026-01234567", reportSlug(report))

	report.Title = ""
	assert.Equal(t, "01234567", reportSlug(report))

	report.Title = strings.Repeat("word ", 40)
	slug := reportSlug(report)
	assert.LessOrEqual(t, len(slug), 80+1+8)
	assert.False(t, strings.Contains(slug, "--"))
}

func TestTaskForItem(t *testing.T) {
	long := feed.Item{Link: "https://news.example/a", Content: strings.Repeat("Full text sentence here. ", 20)}
	short := feed.Item{Link: "https://news.example/b", Content: "Teaser."}
	noLink := feed.Item{FeedURL: "https://news.example/rss", Content: "Teaser."}

	task := taskForItem(long, false)
	assert.Empty(t, task.URL)
	assert.Equal(t, "https://news.example/a", task.Article.Source)

	assert.Equal(t, "https://news.example/a", taskForItem(long, true).URL)
	assert.Equal(t, "https://news.example/b", taskForItem(short, false).URL)

	task = taskForItem(noLink, true)
	assert.Empty(t, task.URL)
	assert.Equal(t, "Teaser.", task.Article.Text)
}

func TestReadTasks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Article one."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("Article two."), 0644))

	tasks, err := readTasks(dir)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	list := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(list, []byte("# feeds\nhttps://news.example/story\na.txt\n"), 0644))
	tasks, err = readTasks(list)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "https://news.example/story", tasks[0].URL)

	_, err = readTasks(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReadArticleArg_Stdin(t *testing.T) {
	article, err := readArticleArg("-", strings.NewReader("Text from stdin."))
	require.NoError(t, err)
	assert.Equal(t, "Text from stdin.", article.Text)
	assert.NotEmpty(t, article.ID)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
