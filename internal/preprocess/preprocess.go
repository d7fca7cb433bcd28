package preprocess

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/credence/internal/model"
)

// Document is article text prepared for the detectors
type Document struct {
	Text      string           // Original text, unmodified
	Prose     string           // Text with markup blanked to spaces (same byte length as Text)
	Sentences []model.Sentence // Offsets index both Text and Prose
}

// ProseOf returns the masked prose of a sentence span
func (d *Document) ProseOf(s model.Sentence) string {
	return d.Prose[s.Start:s.End]
}

// ProseChars counts the characters of readable prose across all sentences
func (d *Document) ProseChars() int {
	total := 0
	for i, s := range d.Sentences {
		if i > 0 {
			total++
		}
		total += utf8.RuneCountInString(s.Text)
	}
	return total
}

// Preprocessor normalizes raw article text and segments it into sentences
type Preprocessor struct {
	maxChars int
}

// NewPreprocessor creates a preprocessor; maxChars <= 0 selects the default bound
func NewPreprocessor(maxChars int) *Preprocessor {
	if maxChars <= 0 {
		maxChars = model.DefaultMaxChars
	}
	return &Preprocessor{maxChars: maxChars}
}

// MaxChars returns the character bound enforced by Process
func (p *Preprocessor) MaxChars() int {
	return p.maxChars
}

// Process masks markup and splits the text into sentences.
// Returns *model.InputTooLargeError or *model.EmptyInputError.
func (p *Preprocessor) Process(text string) (*Document, error) {
	if size := utf8.RuneCountInString(text); size > p.maxChars {
		return nil, &model.InputTooLargeError{Size: size, Limit: p.maxChars}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &model.EmptyInputError{}
	}

	prose := maskMarkup(text)

	var sentences []model.Sentence
	for _, sp := range segment(prose) {
		start, end := trimSpan(prose, sp.start, sp.end)
		if start >= end || !hasWordChar(prose[start:end]) {
			continue
		}
		sentences = append(sentences, model.Sentence{
			Index: len(sentences),
			Start: start,
			End:   end,
			Text:  strings.Join(strings.Fields(prose[start:end]), " "),
		})
	}

	if len(sentences) == 0 {
		return nil, &model.EmptyInputError{}
	}

	return &Document{
		Text:      text,
		Prose:     prose,
		Sentences: sentences,
	}, nil
}

// trimSpan narrows [start, end) to exclude surrounding whitespace
func trimSpan(s string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}

func hasWordChar(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
