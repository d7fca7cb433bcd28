package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/credence/internal/model"
)

// bodySelectors are tried in order; the first yielding paragraph text wins
var bodySelectors = []string{
	"article p",
	"[itemprop=articleBody] p",
	"main p",
	"p",
}

// referenceSelectors mark footnote and reference-list containers
const referenceSelectors = ".references, .footnotes, .reflist, [role=doc-endnotes], [role=doc-bibliography]"

// Page is an article extracted from HTML together with its outbound links
type Page struct {
	Article   model.Article
	Citations []model.Citation
}

// ExtractPage pulls title, publication time, body text and cited links out of
// an HTML page. Paragraphs are joined with blank lines so they stay sentence
// boundaries.
func ExtractPage(html, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe, template, nav, footer, aside").Remove()

	var (
		paragraphs []string
		body       *goquery.Selection
	)
	for _, sel := range bodySelectors {
		found := doc.Find(sel)
		found.Each(func(_ int, s *goquery.Selection) {
			if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			body = found
			break
		}
	}

	text := strings.Join(paragraphs, "\n\n")
	if text == "" {
		// Pages without <p> markup: fall back to all visible body text
		body = doc.Find("body")
		text = strings.Join(strings.Fields(body.Text()), " ")
	}

	article := model.NewArticle(text, pageURL)
	article.Title = extractTitle(doc, pageURL)
	if published, ok := extractPublished(doc); ok {
		article.PublishedAt = &published
	}

	return Page{
		Article:   article,
		Citations: extractCitations(doc, body, pageURL),
	}, nil
}

// ExtractArticle is ExtractPage without the links
func ExtractArticle(html, pageURL string) (model.Article, error) {
	page, err := ExtractPage(html, pageURL)
	if err != nil {
		return model.Article{}, err
	}
	return page.Article, nil
}

// extractCitations collects links from the article body and reference lists,
// resolved against the page URL and deduplicated in document order
func extractCitations(doc *goquery.Document, body *goquery.Selection, pageURL string) []model.Citation {
	base, err := url.Parse(pageURL)
	if err != nil || body == nil {
		return nil
	}

	anchors := body.Find("a[href]").AddSelection(doc.Find(referenceSelectors).Find("a[href]"))

	seen := make(map[string]bool)
	var citations []model.Citation
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		resolved := resolveURL(base, strings.TrimSpace(href))
		if resolved == nil {
			return
		}
		// Links to the page itself (anchors, footnote jumps) are not sources
		if resolved.Host == base.Host && resolved.Path == base.Path {
			return
		}
		key := resolved.String()
		if seen[key] {
			return
		}
		seen[key] = true

		citations = append(citations, model.Citation{
			URL:      key,
			Host:     strings.ToLower(resolved.Hostname()),
			Text:     strings.Join(strings.Fields(a.Text()), " "),
			Kind:     citationKind(a, href),
			SameHost: resolved.Host == base.Host,
		})
	})
	return citations
}

// resolveURL resolves href against base, keeping only http(s) targets
func resolveURL(base *url.URL, href string) *url.URL {
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	return resolved
}

// citationKind tells reference-list links from links in running text
func citationKind(a *goquery.Selection, href string) model.CitationKind {
	lower := strings.ToLower(href)
	if strings.Contains(lower, "cite") || strings.Contains(lower, "#ref") || strings.Contains(lower, "footnote") {
		return model.CitationKindReference
	}
	if class, ok := a.Attr("class"); ok && (strings.Contains(class, "reference") || strings.Contains(class, "footnote")) {
		return model.CitationKindReference
	}
	if a.Closest(referenceSelectors).Length() > 0 {
		return model.CitationKindReference
	}
	return model.CitationKindInline
}

func extractTitle(doc *goquery.Document, pageURL string) string {
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return titleFromURL(pageURL)
}

func extractPublished(doc *goquery.Document) (time.Time, bool) {
	candidates := []string{}
	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}

	for _, c := range candidates {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(c)); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// titleFromURL de-slugifies the last path segment
func titleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	return last
}
