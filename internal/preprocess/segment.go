package preprocess

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type span struct {
	start, end int
}

// abbreviations never end a sentence when followed by a period
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "mt": true, "vs": true,
	"gen": true, "gov": true, "sen": true, "rep": true, "lt": true,
	"col": true, "capt": true, "sgt": true, "rev": true, "hon": true,
	"e.g": true, "i.e": true, "u.s": true, "u.k": true, "u.n": true,
	"a.m": true, "p.m": true, "fig": true, "approx": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true,
}

// numberAbbreviations continue the sentence only when a number follows, as in "No. 5"
var numberAbbreviations = map[string]bool{
	"no": true, "nos": true, "vol": true,
}

// trailingAbbreviations end a sentence only when a capitalized word follows
var trailingAbbreviations = map[string]bool{
	"etc": true, "inc": true, "ltd": true, "co": true, "corp": true,
}

var closers = []string{`"`, `'`, ")", "]", "”", "’", "»"}

// segment splits prose into raw sentence spans. Spans are not trimmed.
func segment(prose string) []span {
	var spans []span
	start := 0
	n := len(prose)

	for i := 0; i < n; {
		c := prose[i]

		if c == '\n' && blankLineFollows(prose, i+1) {
			spans = append(spans, span{start, i})
			start = i + 1
			i++
			continue
		}

		if c != '.' && c != '!' && c != '?' {
			i++
			continue
		}

		j := i + 1
		for j < n && (prose[j] == '.' || prose[j] == '!' || prose[j] == '?') {
			j++
		}
		j = skipClosers(prose, j)

		if !spaceOrEnd(prose, j) {
			i = j
			continue
		}
		if c == '.' && j == i+1 && !periodEndsSentence(prose, i) {
			i = j
			continue
		}

		spans = append(spans, span{start, j})
		start = j
		i = j
	}

	if start < n {
		spans = append(spans, span{start, n})
	}
	return spans
}

// blankLineFollows reports whether only horizontal whitespace separates i from the next newline
func blankLineFollows(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}

func skipClosers(s string, j int) int {
	for j < len(s) {
		matched := false
		for _, c := range closers {
			if strings.HasPrefix(s[j:], c) {
				j += len(c)
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	return j
}

func spaceOrEnd(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return unicode.IsSpace(r)
}

// periodEndsSentence decides whether the period at index dot is a sentence boundary
func periodEndsSentence(s string, dot int) bool {
	ws := dot
	for ws > 0 && (isASCIILetter(s[ws-1]) || s[ws-1] == '.') {
		ws--
	}
	word := strings.ToLower(s[ws:dot])

	next := nextRune(s, dot+1)

	if abbreviations[word] {
		return false
	}
	if numberAbbreviations[word] {
		return !unicode.IsDigit(next)
	}
	if len(word) == 1 && unicode.IsUpper(rune(s[ws])) {
		return false // initial, as in "J. Smith"
	}
	if trailingAbbreviations[word] {
		return unicode.IsUpper(next)
	}
	if unicode.IsLower(next) {
		return false
	}
	return true
}

// nextRune returns the first non-space rune at or after i, or 0 at end of text
func nextRune(s string, i int) rune {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			return r
		}
		i += size
	}
	return 0
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
