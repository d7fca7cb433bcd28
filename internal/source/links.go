package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/util"
)

const (
	linkMaxRetries = 3
	staleAfter     = 365 * 24 * time.Hour
)

// linkSleepFunc is the sleep between retries, replaced in tests
var linkSleepFunc = time.Sleep

// LinkChecker checks cited URLs concurrently with HEAD requests
type LinkChecker struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
	now        func() time.Time
}

// NewLinkChecker creates a link checker sharing the fetcher's proxy and TLS settings
func NewLinkChecker(cfg model.CitationConfig, httpCfg model.HTTPConfig) *LinkChecker {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &LinkChecker{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(httpCfg),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  httpCfg.UserAgent,
		maxWorkers: workers,
		now:        time.Now,
	}
}

// Check requests every citation and returns copies with Check populated.
// Order is preserved; a cancelled context marks the remaining links unchecked
// with an error rather than failing the whole call.
func (c *LinkChecker) Check(ctx context.Context, citations []model.Citation) []model.Citation {
	if len(citations) == 0 {
		return citations
	}

	checked := make([]model.Citation, len(citations))
	copy(checked, citations)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i := range checked {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				checked[idx].Check = &model.LinkCheck{Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			result := c.checkWithRetry(ctx, checked[idx].URL)
			checked[idx].Check = &result
		}(i)
	}

	wg.Wait()
	return checked
}

// checkOne sends a single HEAD request
func (c *LinkChecker) checkOne(ctx context.Context, rawURL string) model.LinkCheck {
	var result model.LinkCheck

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.Dead = true
		return result
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Dead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := http.ParseTime(lastModified); err == nil {
			t = t.UTC()
			result.LastModified = &t
			result.Stale = c.now().Sub(t) > staleAfter
		}
	}

	return result
}

// checkWithRetry retries transient failures with exponential backoff
func (c *LinkChecker) checkWithRetry(ctx context.Context, rawURL string) model.LinkCheck {
	var result model.LinkCheck
	for attempt := 0; attempt < linkMaxRetries; attempt++ {
		result = c.checkOne(ctx, rawURL)
		if !isRetryableCheck(result) || ctx.Err() != nil {
			return result
		}
		if attempt < linkMaxRetries-1 {
			linkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// isRetryableCheck reports whether a link check failed transiently
func isRetryableCheck(result model.LinkCheck) bool {
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.Error == "" {
		return false
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
