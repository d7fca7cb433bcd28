package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/credence/internal/model"
)

const extractPage = `<html>
<head>
  <title>Fallback Title</title>
  <meta property="og:title" content="Council Approves Budget">
  <meta property="article:published_time" content="2024-03-05T09:30:00+01:00">
  <script>var tracking = "ignored";</script>
</head>
<body>
  <nav><a href="/home">Home</a> <a href="/politics">Politics</a></nav>
  <article>
    <h1>Council Approves Budget</h1>
    <p>The council approved the budget on Tuesday, according to the
       <a href="https://www.city.gov/minutes/2024-03">meeting minutes</a>.</p>
    <p>Figures come from the <a href="/data/budget.pdf#page=2">budget tables</a>
       and a <a href="https://www.bbc.co.uk/news/local">BBC report</a>.</p>
    <p>Repeat link: <a href="https://www.city.gov/minutes/2024-03#item4">minutes again</a>.
       <a href="javascript:void(0)">share</a> <a href="#comments">comments</a></p>
  </article>
  <ol class="references">
    <li><a href="https://doi.org/10.1000/xyz">Smith et al. 2023</a></li>
  </ol>
  <footer><a href="/about">About us</a></footer>
</body>
</html>`

func TestExtractPage_Article(t *testing.T) {
	page, err := ExtractPage(extractPage, "https://news.example/politics/council-budget")
	require.NoError(t, err)

	a := page.Article
	assert.Equal(t, "Council Approves Budget", a.Title)
	assert.Equal(t, "https://news.example/politics/council-budget", a.Source)
	assert.NotEmpty(t, a.ID)
	assert.Contains(t, a.Text, "The council approved the budget on Tuesday")
	assert.Contains(t, a.Text, "\n\n")
	assert.NotContains(t, a.Text, "tracking")
	assert.NotContains(t, a.Text, "About us")
	assert.NotContains(t, a.Text, "Politics")

	require.NotNil(t, a.PublishedAt)
	assert.True(t, a.PublishedAt.Equal(time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)))
}

func TestExtractPage_Citations(t *testing.T) {
	page, err := ExtractPage(extractPage, "https://news.example/politics/council-budget")
	require.NoError(t, err)

	urls := make([]string, 0, len(page.Citations))
	for _, c := range page.Citations {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{
		"https://www.city.gov/minutes/2024-03",
		"https://news.example/data/budget.pdf",
		"https://www.bbc.co.uk/news/local",
		"https://doi.org/10.1000/xyz",
	}, urls)

	minutes := page.Citations[0]
	assert.Equal(t, "www.city.gov", minutes.Host)
	assert.Equal(t, "meeting minutes", minutes.Text)
	assert.Equal(t, model.CitationKindInline, minutes.Kind)
	assert.False(t, minutes.SameHost)

	assert.True(t, page.Citations[1].SameHost)
	assert.Equal(t, model.CitationKindReference, page.Citations[3].Kind)
}

func TestExtractArticle_TitleFallbacks(t *testing.T) {
	tests := []struct {
		html     string
		url      string
		expected string
		desc     string
	}{
		{`<html><head><title> Page Title </title></head><body><p>Text.</p></body></html>`, "https://a.example/x", "Page Title", "title element"},
		{`<html><body><h1>Heading</h1><p>Text.</p></body></html>`, "https://a.example/x", "Heading", "h1"},
		{`<html><body><p>Text.</p></body></html>`, "https://a.example/news/city-council_vote.html", "city council vote", "URL slug"},
		{`<html><body><p>Text.</p></body></html>`, "https://a.example/", "a.example", "bare host"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			article, err := ExtractArticle(tt.html, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, article.Title)
		})
	}
}

func TestExtractArticle_PublishedFromTimeElement(t *testing.T) {
	html := `<html><body><article><time datetime="2023-11-02">2 Nov</time><p>Text.</p></article></body></html>`
	article, err := ExtractArticle(html, "https://a.example/x")
	require.NoError(t, err)
	require.NotNil(t, article.PublishedAt)
	assert.Equal(t, "2023-11-02", article.PublishedAt.Format("2006-01-02"))
}

func TestExtractArticle_NoParagraphs(t *testing.T) {
	html := `<html><body><div>Plain   text
	without paragraphs.</div></body></html>`
	article, err := ExtractArticle(html, "https://a.example/x")
	require.NoError(t, err)
	assert.Equal(t, "Plain text without paragraphs.", article.Text)
	assert.Nil(t, article.PublishedAt)
}

func TestResolveURL(t *testing.T) {
	page, err := ExtractPage(`<html><body><p>
<a href="ftp://files.example/a">ftp</a>
<a href="mailto:x@example.org">mail</a>
<a href="JavaScript:alert(1)">js</a>
<a href="">empty</a>
<a href="//cdn.example/report">protocol relative</a>
</p></body></html>`, "https://a.example/story")
	require.NoError(t, err)
	require.Len(t, page.Citations, 1)
	assert.Equal(t, "https://cdn.example/report", page.Citations[0].URL)
}
