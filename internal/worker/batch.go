package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Analyzer produces reports for articles and article URLs
type Analyzer interface {
	AnalyzeArticle(ctx context.Context, article model.Article) (*model.Report, error)
	AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error)
}

// Task is one batch input: inline article text or a URL to fetch
type Task struct {
	Article model.Article
	URL     string
}

// Label names the task in progress output
func (t Task) Label() string {
	switch {
	case t.URL != "":
		return t.URL
	case t.Article.Title != "":
		return t.Article.Title
	case t.Article.Source != "":
		return t.Article.Source
	default:
		return t.Article.ID
	}
}

// AnalysisJob analyzes a single task
type AnalysisJob struct {
	Index    int
	Task     Task
	Analyzer Analyzer
}

// Execute runs the analysis
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	var (
		report *model.Report
		err    error
	)
	if j.Task.URL != "" {
		report, err = j.Analyzer.AnalyzeURL(ctx, j.Task.URL)
	} else {
		report, err = j.Analyzer.AnalyzeArticle(ctx, j.Task.Article)
	}
	return &AnalysisResult{
		Index:  j.Index,
		Task:   j.Task,
		Report: report,
		Error:  err,
	}
}

// AnalysisResult is the outcome of one task
type AnalysisResult struct {
	Index  int
	Task   Task
	Report *model.Report // nil when Error is set
	Error  error
}

// GetError returns the error from the analysis
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many tasks concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	progress    func(*AnalysisResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// OnProgress registers a callback invoked as each task completes
func (b *BatchProcessor) OnProgress(fn func(*AnalysisResult)) {
	b.progress = fn
}

// Process analyzes tasks concurrently. One failing task never affects the
// others. Results come back in input order; tasks dropped by cancellation
// carry the context error.
func (b *BatchProcessor) Process(ctx context.Context, tasks []Task) []*AnalysisResult {
	if len(tasks) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	if b.progress != nil {
		pool.OnResult(func(r Result) {
			b.progress(r.(*AnalysisResult))
		})
	}
	pool.Start()

	for i, task := range tasks {
		pool.Submit(&AnalysisJob{
			Index:    i,
			Task:     task,
			Analyzer: b.analyzer,
		})
	}

	ordered := make([]*AnalysisResult, len(tasks))
	for _, r := range pool.Wait() {
		ar := r.(*AnalysisResult)
		ordered[ar.Index] = ar
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &AnalysisResult{Index: i, Task: tasks[i], Error: err}
		}
	}
	return ordered
}

// Summarize counts successes and failures
func Summarize(results []*AnalysisResult) (ok, failed int) {
	for _, r := range results {
		if r.Error != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}

// articleExtensions are the file types read as article text
var articleExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// ReadTasksFromDir reads every article file in dir (non-recursive, sorted by name)
func ReadTasksFromDir(dir string) ([]Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !articleExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		article, err := ReadArticleFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, Task{Article: article})
	}
	return tasks, nil
}

// ReadArticleFile loads one article from disk; the file name becomes the title
func ReadArticleFile(path string) (model.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Article{}, fmt.Errorf("read article: %w", err)
	}
	article := model.NewArticle(string(data), "")
	article.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return article, nil
}

// ReadTasksFromList reads a list file: one URL or file path per line.
// Blank lines and # comments are skipped; duplicates are dropped.
// Relative paths resolve against the list file's directory.
func ReadTasksFromList(listPath string) ([]Task, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	seen := make(map[string]bool)
	var tasks []Task

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true

		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			tasks = append(tasks, Task{URL: line})
			continue
		}

		path := line
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		article, err := ReadArticleFile(path)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, Task{Article: article})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return tasks, nil
}
