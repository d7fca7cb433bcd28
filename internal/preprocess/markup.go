package preprocess

import (
	"strings"

	"golang.org/x/net/html"
)

// hiddenElements have bodies that never contain article prose
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"template": true,
}

// maskMarkup replaces tags, comments, doctypes and hidden element bodies
// with spaces. The result has the same byte length as the input so offsets
// computed on it index the original text directly.
func maskMarkup(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}

	buf := []byte(text)
	z := html.NewTokenizer(strings.NewReader(text))
	pos := 0
	hidden := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a truncated tag; anything left stays as text
			break
		}
		n := len(z.Raw())

		switch tt {
		case html.TextToken:
			if hidden > 0 {
				blank(buf, pos, pos+n)
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if hiddenElements[string(name)] {
				hidden++
			}
			blank(buf, pos, pos+n)
		case html.EndTagToken:
			name, _ := z.TagName()
			if hiddenElements[string(name)] && hidden > 0 {
				hidden--
			}
			blank(buf, pos, pos+n)
		default:
			blank(buf, pos, pos+n)
		}

		pos += n
	}

	return string(buf)
}

func blank(buf []byte, from, to int) {
	if to > len(buf) {
		to = len(buf)
	}
	for i := from; i < to; i++ {
		buf[i] = ' '
	}
}
