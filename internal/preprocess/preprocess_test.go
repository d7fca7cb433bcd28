package preprocess

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/credence/internal/model"
)

func sentenceTexts(doc *Document) []string {
	out := make([]string, len(doc.Sentences))
	for i, s := range doc.Sentences {
		out[i] = s.Text
	}
	return out
}

// mustProcess runs the preprocessor and fails the test on error
func mustProcess(t *testing.T, p *Preprocessor, text string) *Document {
	t.Helper()
	doc, err := p.Process(text)
	if err != nil {
		t.Fatalf("Process(%q) failed: %v", text, err)
	}
	return doc
}

func assertSentences(t *testing.T, doc *Document, want []string) {
	t.Helper()
	if got := sentenceTexts(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("sentences = %q, want %q", got, want)
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	p := NewPreprocessor(0)

	for _, text := range []string{"", "   ", "\n\t\n", "<p></p>", "<script>var x = 1;</script>", "... !!! ???"} {
		_, err := p.Process(text)
		var empty *model.EmptyInputError
		if !errors.As(err, &empty) {
			t.Errorf("expected EmptyInputError for %q, got %v", text, err)
		}
	}
}

func TestProcess_InputTooLarge(t *testing.T) {
	p := NewPreprocessor(10)

	_, err := p.Process("This sentence is longer than ten characters.")
	var tooLarge *model.InputTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected InputTooLargeError, got %v", err)
	}
	if tooLarge.Limit != 10 || tooLarge.Size != 44 {
		t.Errorf("expected size 44 over limit 10, got size %d limit %d", tooLarge.Size, tooLarge.Limit)
	}
}

func TestProcess_CountsCharactersNotBytes(t *testing.T) {
	// 5 characters, 10 bytes
	doc := mustProcess(t, NewPreprocessor(5), "ééééé")
	if len(doc.Sentences) != 1 {
		t.Errorf("expected 1 sentence, got %d", len(doc.Sentences))
	}
}

func TestProcess_SplitsSentences(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "The council met on Tuesday. Was the vote close? Nobody knows!")
	assertSentences(t, doc, []string{
		"The council met on Tuesday.",
		"Was the vote close?",
		"Nobody knows!",
	})
}

func TestProcess_Abbreviations(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0),
		"Dr. Smith met Mr. J. Jones in the U.S. capital at 3 p.m. on Jan. 4. They talked, e.g. about budgets.")
	assertSentences(t, doc, []string{
		"Dr. Smith met Mr. J. Jones in the U.S. capital at 3 p.m. on Jan. 4.",
		"They talked, e.g. about budgets.",
	})
}

func TestProcess_NumberAbbreviations(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{
			text: "Officials said no. The plan stalled.",
			want: []string{"Officials said no.", "The plan stalled."},
		},
		{
			text: "The answer was No. Nobody asked again.",
			want: []string{"The answer was No.", "Nobody asked again."},
		},
		{
			text: "He read Resolution No. 5 aloud. It passed.",
			want: []string{"He read Resolution No. 5 aloud.", "It passed."},
		},
		{
			text: "See vol. 3 of the archive. It is short.",
			want: []string{"See vol. 3 of the archive.", "It is short."},
		},
	}

	p := NewPreprocessor(0)
	for _, tt := range tests {
		assertSentences(t, mustProcess(t, p, tt.text), tt.want)
	}
}

func TestProcess_TrailingAbbreviation(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "They sold apples, pears, etc. The market closed early.")
	if len(doc.Sentences) != 2 {
		t.Errorf("expected 2 sentences, got %q", sentenceTexts(doc))
	}
}

func TestProcess_DecimalsAndLowercaseContinuation(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "Growth was 4.2 percent in the quarter. approx. the same as before.")
	if len(doc.Sentences) != 1 {
		t.Errorf("expected 1 sentence, got %q", sentenceTexts(doc))
	}
}

func TestProcess_RepeatedTerminatorsAndQuotes(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), `He shouted "Stop!!!" Then he left.`)
	assertSentences(t, doc, []string{`He shouted "Stop!!!"`, "Then he left."})
}

func TestProcess_ParagraphBreaks(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "Headline without punctuation\n\nFirst paragraph starts here.\n  \nSecond one")
	assertSentences(t, doc, []string{
		"Headline without punctuation",
		"First paragraph starts here.",
		"Second one",
	})
}

func TestProcess_NormalizesWhitespace(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "A   line\nwrapped\tacross   columns.")
	assertSentences(t, doc, []string{"A line wrapped across columns."})
}

func TestProcess_MasksMarkupPreservingOffsets(t *testing.T) {
	text := `<html><head><style>p { color: red; }</style><script>alert("Breaking!");</script></head>` +
		`<body><p>Officials <b>confirmed</b> the report.</p><!-- tracking --><p>Markets rose.</p></body></html>`

	doc := mustProcess(t, NewPreprocessor(0), text)

	if len(doc.Prose) != len(text) {
		t.Errorf("prose length %d differs from input length %d", len(doc.Prose), len(text))
	}
	for _, hidden := range []string{"alert", "color", "tracking"} {
		if strings.Contains(doc.Prose, hidden) {
			t.Errorf("prose still contains %q", hidden)
		}
	}
	assertSentences(t, doc, []string{"Officials confirmed the report.", "Markets rose."})

	first := doc.Sentences[0]
	if !strings.HasPrefix(text[first.Start:], "Officials") {
		t.Errorf("first sentence starts at %d, not at \"Officials\"", first.Start)
	}
	if !strings.HasSuffix(text[:first.End], "report.") {
		t.Errorf("first sentence ends at %d, not after \"report.\"", first.End)
	}
}

func TestProcess_PlainLessThanIsText(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "Inflation stayed < 3 percent for the year.")
	assertSentences(t, doc, []string{"Inflation stayed < 3 percent for the year."})
}

func TestProcess_SpansWithinBounds(t *testing.T) {
	p := NewPreprocessor(0)

	inputs := []string{
		"One. Two. Three.",
		"<div>Unclosed tag <b",
		"Trailing space.   ",
		"“Quoted.” Next sentence here.",
		"Ünïcödé wörds. Más texto aquí!",
	}
	for _, text := range inputs {
		doc := mustProcess(t, p, text)
		prev := 0
		for i, s := range doc.Sentences {
			if s.Index != i {
				t.Errorf("%q: sentence %d has index %d", text, i, s.Index)
			}
			if s.Start < prev || s.End > len(text) || s.Start >= s.End {
				t.Errorf("%q: bad span [%d,%d) after %d", text, s.Start, s.End, prev)
			}
			prev = s.End
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	p := NewPreprocessor(0)
	text := "BREAKING!!! Experts say it will happen. <i>Really</i>? Yes.\n\nMore text"

	first := mustProcess(t, p, text)
	for i := 0; i < 5; i++ {
		if again := mustProcess(t, p, text); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from the first", i)
		}
	}
}

func TestDocument_ProseChars(t *testing.T) {
	doc := mustProcess(t, NewPreprocessor(0), "<p>Short.</p> <p>Text.</p>")
	if got, want := doc.ProseChars(), len("Short. Text."); got != want {
		t.Errorf("ProseChars() = %d, want %d", got, want)
	}
}
