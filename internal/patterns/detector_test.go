package patterns

import (
	"testing"

	"github.com/ppiankov/credence/internal/preprocess"
)

const sensationalText = "BREAKING!!! Scientists SHOCKED by this one weird trick, experts say 90% of people don't know!!!"

const neutralText = "The 2023 annual report, published by the national statistics office, lists 4.2 million registered businesses according to Table 3 of the appendix."

func mustDetector(t *testing.T) *Detector {
	t.Helper()
	table, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules failed: %v", err)
	}
	return NewDetector(table)
}

func mustDoc(t *testing.T, text string) *preprocess.Document {
	t.Helper()
	doc, err := preprocess.NewPreprocessor(0).Process(text)
	if err != nil {
		t.Fatalf("Process(%q) failed: %v", text, err)
	}
	return doc
}

func TestDefaultRules_Valid(t *testing.T) {
	table, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules failed: %v", err)
	}
	if table.Version == "" {
		t.Error("default table has no version")
	}

	categories := make(map[string]bool)
	for _, r := range table.Rules {
		categories[r.Category] = true
	}
	for _, c := range []string{
		CategorySensationalism, CategoryExcessiveCaps, CategoryVagueSource,
		CategoryConspiracy, CategoryFalseUrgency, CategoryEmotionalManipulation,
		CategoryExtremeLanguage, CategoryClickbait, CategoryUnverifiableStatistic,
	} {
		if !categories[c] {
			t.Errorf("default table is missing category %s", c)
		}
	}
}

func TestDetect_SensationalArticle(t *testing.T) {
	d := mustDetector(t)
	matches := d.Detect(mustDoc(t, sensationalText))
	counts := CountByCategory(matches)

	want := map[string]int{
		CategorySensationalism:        4,
		CategoryExcessiveCaps:         2,
		CategoryClickbait:             1,
		CategoryVagueSource:           1,
		CategoryUnverifiableStatistic: 1,
	}
	for category, n := range want {
		if counts[category] != n {
			t.Errorf("%s: expected %d matches, got %d", category, n, counts[category])
		}
	}

	for _, m := range matches {
		if sensationalText[m.Start:m.End] != m.Text {
			t.Errorf("%s: text %q does not match span %q", m.RuleID, m.Text, sensationalText[m.Start:m.End])
		}
		if m.Severity <= 0 || m.Severity > 1 {
			t.Errorf("%s: severity %v outside (0, 1]", m.RuleID, m.Severity)
		}
	}
}

func TestDetect_NeutralArticle(t *testing.T) {
	matches := mustDetector(t).Detect(mustDoc(t, neutralText))
	if matches == nil {
		t.Fatal("expected an empty, non-nil slice")
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %+v", matches)
	}
	if TotalSeverity(matches) != 0 {
		t.Errorf("expected zero severity, got %v", TotalSeverity(matches))
	}
}

func TestDetect_Ordering(t *testing.T) {
	matches := mustDetector(t).Detect(mustDoc(t, sensationalText+" Act now before it's too late. Wake up!"))
	if len(matches) < 2 {
		t.Fatalf("expected matches, got %+v", matches)
	}

	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		ordered := prev.Start < cur.Start ||
			(prev.Start == cur.Start && prev.End < cur.End) ||
			(prev.Start == cur.Start && prev.End == cur.End && prev.RuleID <= cur.RuleID)
		if !ordered {
			t.Errorf("match %d (%+v) out of order after %+v", i, cur, prev)
		}
	}

	// BREAKING is hit by two rules with identical spans
	if matches[0].RuleID != "all-caps-word" || matches[1].RuleID != "sensational-keyword" {
		t.Errorf("expected all-caps-word then sensational-keyword, got %s then %s", matches[0].RuleID, matches[1].RuleID)
	}
}

func TestDetect_OffsetsThroughMarkup(t *testing.T) {
	text := "<p>Experts <em>say</em> the cover-up is real.</p>"
	matches := mustDetector(t).Detect(mustDoc(t, text))

	var vague, conspiracy bool
	for _, m := range matches {
		switch m.Category {
		case CategoryVagueSource:
			vague = true
			if m.Text != "Experts say" {
				t.Errorf("vague source text = %q", m.Text)
			}
			if got := text[m.Start:m.End]; got != "Experts <em>say" {
				t.Errorf("vague source span = %q", got)
			}
		case CategoryConspiracy:
			conspiracy = true
			if got := text[m.Start:m.End]; got != "cover-up" {
				t.Errorf("conspiracy span = %q", got)
			}
		}
	}
	if !vague || !conspiracy {
		t.Errorf("expected vague source and conspiracy matches, got %+v", matches)
	}
}

func TestDetect_SentenceIndex(t *testing.T) {
	matches := mustDetector(t).Detect(mustDoc(t, "Calm opening line. This is TERRIFYING news."))
	if len(matches) == 0 {
		t.Fatal("expected matches in the second sentence")
	}
	for _, m := range matches {
		if m.Sentence != 1 {
			t.Errorf("%s: sentence = %d, want 1", m.RuleID, m.Sentence)
		}
	}
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing version", "rules:\n  - {id: a, category: c, severity: 0.5, pattern: x}\n"},
		{"no rules", "version: v1\nrules: []\n"},
		{"missing id", "version: v1\nrules:\n  - {category: c, severity: 0.5, pattern: x}\n"},
		{"duplicate id", "version: v1\nrules:\n  - {id: a, category: c, severity: 0.5, pattern: x}\n  - {id: a, category: c, severity: 0.5, pattern: y}\n"},
		{"missing category", "version: v1\nrules:\n  - {id: a, severity: 0.5, pattern: x}\n"},
		{"zero severity", "version: v1\nrules:\n  - {id: a, category: c, severity: 0, pattern: x}\n"},
		{"severity above one", "version: v1\nrules:\n  - {id: a, category: c, severity: 1.5, pattern: x}\n"},
		{"bad regex", "version: v1\nrules:\n  - {id: a, category: c, severity: 0.5, pattern: '(unclosed'}\n"},
		{"not yaml", "version: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseRules_CustomTable(t *testing.T) {
	table, err := ParseRules([]byte("version: test\nrules:\n  - {id: miracle, category: hype, severity: 1, pattern: '(?i)miracle'}\n"))
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}

	d := NewDetector(table)
	matches := d.Detect(mustDoc(t, "A miracle cure. Another MIRACLE."))
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", matches)
	}
	if matches[0].Category != "hype" {
		t.Errorf("category = %q, want hype", matches[0].Category)
	}
	if d.Version() != "test" {
		t.Errorf("Version() = %q, want test", d.Version())
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules("testdata/does-not-exist.yaml"); err == nil {
		t.Error("expected error for a missing file")
	}
}
