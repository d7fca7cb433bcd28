package feed

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/util"
)

// minInlineChars is the shortest feed body analyzed without fetching the page
const minInlineChars = 280

// Item is one entry read from an RSS or Atom feed
type Item struct {
	FeedURL   string
	FeedTitle string
	Title     string
	Link      string
	Content   string // Full content or description, may contain HTML
	Published *time.Time
}

// HasBody reports whether the feed carried enough text to analyze without
// fetching the linked page
func (i Item) HasBody() bool {
	return len([]rune(strings.TrimSpace(i.Content))) >= minInlineChars
}

// Article converts the item into an article using the feed's own text
func (i Item) Article() model.Article {
	source := i.Link
	if source == "" {
		source = i.FeedURL
	}
	article := model.NewArticle(i.Content, source)
	article.Title = i.Title
	article.PublishedAt = i.Published
	return article
}

// FeedError records a feed that could not be read
type FeedError struct {
	URL string
	Err error
}

func (e *FeedError) Error() string {
	return "feed " + e.URL + ": " + e.Err.Error()
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// Reader fetches and parses feeds
type Reader struct {
	client      *http.Client
	userAgent   string
	maxItems    int
	concurrency int
}

// NewReader creates a feed reader. maxItems <= 0 keeps every item.
func NewReader(cfg model.HTTPConfig, maxItems, concurrency int) *Reader {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Reader{
		client:      &http.Client{Timeout: cfg.Timeout, Transport: util.NewTransport(cfg)},
		userAgent:   cfg.UserAgent,
		maxItems:    maxItems,
		concurrency: concurrency,
	}
}

// Read fetches one feed and returns its newest items first
func (r *Reader) Read(ctx context.Context, feedURL string) ([]Item, error) {
	parser := gofeed.NewParser()
	parser.Client = r.client
	parser.UserAgent = r.userAgent

	parsed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &FeedError{URL: feedURL, Err: err}
	}
	return r.items(feedURL, parsed), nil
}

// ReadAll fetches feeds concurrently. Feeds that fail are reported in the
// returned errors and do not stop the others. Items are deduplicated by link.
func (r *Reader) ReadAll(ctx context.Context, feedURLs []string) ([]Item, []error) {
	var (
		mu     sync.Mutex
		perURL = make([][]Item, len(feedURLs))
		errs   []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, u := range feedURLs {
		i, u := i, u
		g.Go(func() error {
			items, err := r.Read(gctx, u)
			if err != nil {
				zap.L().Warn("feed read failed", zap.String("feed", u), zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			perURL[i] = items
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var all []Item
	for _, items := range perURL {
		for _, item := range items {
			key := item.Link
			if key == "" {
				key = item.FeedURL + "#" + item.Title
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, item)
		}
	}
	return all, errs
}

// Parse reads a feed document that is already in memory
func Parse(feedURL, body string) ([]Item, error) {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, &FeedError{URL: feedURL, Err: err}
	}
	return (&Reader{}).items(feedURL, parsed), nil
}

func (r *Reader) items(feedURL string, parsed *gofeed.Feed) []Item {
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		content := entry.Content
		if strings.TrimSpace(content) == "" {
			content = entry.Description
		}

		var published *time.Time
		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			published = &t
		} else if entry.UpdatedParsed != nil {
			t := entry.UpdatedParsed.UTC()
			published = &t
		}

		items = append(items, Item{
			FeedURL:   feedURL,
			FeedTitle: parsed.Title,
			Title:     strings.TrimSpace(entry.Title),
			Link:      strings.TrimSpace(entry.Link),
			Content:   content,
			Published: published,
		})
	}

	// Undated items sort last; ties keep feed order
	sort.SliceStable(items, func(a, b int) bool {
		pa, pb := items[a].Published, items[b].Published
		if pa == nil || pb == nil {
			return pa != nil && pb == nil
		}
		return pa.After(*pb)
	})

	if r.maxItems > 0 && len(items) > r.maxItems {
		items = items[:r.maxItems]
	}
	return items
}
