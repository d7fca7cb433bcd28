package features

import (
	"encoding/json"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/credence/internal/claims"
	"github.com/ppiankov/credence/internal/emotion"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/patterns"
	"github.com/ppiankov/credence/internal/preprocess"
)

type calibrationFixture struct {
	Cases []struct {
		Name          string             `json:"name"`
		Text          string             `json:"text"`
		SchemaVersion int                `json:"schema_version"`
		Features      map[string]float64 `json:"features"`
	} `json:"cases"`
}

func mustDoc(t *testing.T, text string) *preprocess.Document {
	t.Helper()
	doc, err := preprocess.NewPreprocessor(0).Process(text)
	if err != nil {
		t.Fatalf("Process(%q) failed: %v", text, err)
	}
	return doc
}

func extract(t *testing.T, text string) Vector {
	t.Helper()
	doc := mustDoc(t, text)

	rules, err := patterns.DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules failed: %v", err)
	}
	lex, err := emotion.DefaultLexicon()
	if err != nil {
		t.Fatalf("DefaultLexicon failed: %v", err)
	}

	matches := patterns.NewDetector(rules).Detect(doc)
	profile := emotion.NewAnalyzer(lex).Analyze(doc)
	found := claims.NewHighlighter().Highlight(doc)

	vec, err := NewExtractor().Extract(doc, matches, profile, found)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return vec
}

func TestExtract_CalibrationFixture(t *testing.T) {
	data, err := os.ReadFile("testdata/calibration.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var fixture calibrationFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if len(fixture.Cases) == 0 {
		t.Fatal("fixture has no cases")
	}

	for _, tc := range fixture.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			vec := extract(t, tc.Text)

			if vec.SchemaVersion != tc.SchemaVersion {
				t.Errorf("schema version = %d, want %d", vec.SchemaVersion, tc.SchemaVersion)
			}
			if !reflect.DeepEqual(vec.Names, Names) {
				t.Errorf("names = %v, want %v", vec.Names, Names)
			}
			if len(tc.Features) != len(Names) {
				t.Fatalf("fixture lists %d features, schema has %d", len(tc.Features), len(Names))
			}
			for name, want := range tc.Features {
				got, ok := vec.Get(name)
				if !ok {
					t.Fatalf("missing feature %s", name)
				}
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("feature %s = %v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestExtract_ValuesNormalized(t *testing.T) {
	texts := []string{
		"SHOCKING!!! TOTALLY UNBELIEVABLE COVER-UP!!! Wake up, share this NOW before it gets deleted!!!",
		"Rates held steady.",
		"Officials said 3 million people will always remember. Nobody knows. 99% of doctors agree!",
	}
	for _, text := range texts {
		vec := extract(t, text)
		if len(vec.Values) != len(Names) {
			t.Fatalf("expected %d values, got %d", len(Names), len(vec.Values))
		}
		for i, v := range vec.Values {
			if v < 0 || v > 1 {
				t.Errorf("%s = %v out of [0, 1] in %q", vec.Names[i], v, text)
			}
		}
	}
}

func TestExtract_EmptyStagesGiveNeutralVector(t *testing.T) {
	vec, err := NewExtractor().Extract(mustDoc(t, "Rates held steady."), nil, model.NeutralEmotionProfile(1), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	m := vec.Map()
	want := map[string]float64{
		PatternDensity:   0,
		MeanValence:      0.5,
		UnsupportedRatio: 1,
		ClaimDensity:     0,
	}
	for name, v := range want {
		if m[name] != v {
			t.Errorf("%s = %v, want %v", name, m[name], v)
		}
	}
}

func TestExtract_CategoryCapsSaturate(t *testing.T) {
	matches := make([]model.PatternMatch, 10)
	for i := range matches {
		matches[i] = model.PatternMatch{Category: patterns.CategoryClickbait, Severity: 0.1}
	}

	vec, err := NewExtractor().Extract(mustDoc(t, "One sentence."), matches, model.NeutralEmotionProfile(1), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got, _ := vec.Get(CatClickbait); got != 1 {
		t.Errorf("%s = %v, want 1", CatClickbait, got)
	}
	if got, _ := vec.Get(PatternDensity); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("%s = %v, want 0.5", PatternDensity, got)
	}
}

func TestFromMap_KeySetMismatch(t *testing.T) {
	full := make(map[string]float64, len(Names))
	for _, n := range Names {
		full[n] = 0.5
	}
	if _, err := FromMap(SchemaVersion, full); err != nil {
		t.Fatalf("complete map rejected: %v", err)
	}

	missing := make(map[string]float64)
	for k, v := range full {
		missing[k] = v
	}
	delete(missing, CapsWordRatio)
	if _, err := FromMap(SchemaVersion, missing); err == nil || !strings.Contains(err.Error(), CapsWordRatio) {
		t.Errorf("expected error naming %s, got %v", CapsWordRatio, err)
	}

	extra := make(map[string]float64)
	for k, v := range full {
		extra[k] = v
	}
	extra["reading_level"] = 0.3
	if _, err := FromMap(SchemaVersion, extra); err == nil || !strings.Contains(err.Error(), "reading_level") {
		t.Errorf("expected error naming reading_level, got %v", err)
	}

	if _, err := FromMap(2, full); err == nil {
		t.Error("expected error for an unknown schema version")
	}
}

func TestVector_GetAndMap(t *testing.T) {
	vec := Vector{SchemaVersion: 1, Names: []string{"a", "b"}, Values: []float64{0.1, 0.2}}

	if v, ok := vec.Get("b"); !ok || v != 0.2 {
		t.Errorf("Get(b) = %v, %v", v, ok)
	}
	if _, ok := vec.Get("c"); ok {
		t.Error("Get(c) should miss")
	}
	if got := vec.Map(); !reflect.DeepEqual(got, map[string]float64{"a": 0.1, "b": 0.2}) {
		t.Errorf("Map() = %v", got)
	}
}

func TestNames_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, n := range Names {
		if seen[n] {
			t.Errorf("duplicate feature %s", n)
		}
		seen[n] = true
	}
	if len(Names) != 21 {
		t.Errorf("expected 21 features, got %d", len(Names))
	}
}
