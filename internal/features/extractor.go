package features

import (
	"math"
	"strings"
	"unicode"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/patterns"
	"github.com/ppiankov/credence/internal/preprocess"
)

// categoryCaps saturates each category count; counts at or above the cap map to 1
var categoryCaps = []struct {
	feature  string
	category string
	limit    float64
}{
	{CatSensationalism, patterns.CategorySensationalism, 5},
	{CatExcessiveCaps, patterns.CategoryExcessiveCaps, 3},
	{CatVagueSource, patterns.CategoryVagueSource, 3},
	{CatConspiracy, patterns.CategoryConspiracy, 2},
	{CatFalseUrgency, patterns.CategoryFalseUrgency, 2},
	{CatEmotionalManipulation, patterns.CategoryEmotionalManipulation, 4},
	{CatExtremeLanguage, patterns.CategoryExtremeLanguage, 6},
	{CatClickbait, patterns.CategoryClickbait, 2},
	{CatUnverifiableStatistic, patterns.CategoryUnverifiableStatistic, 2},
}

// Extractor turns detector outputs into a schema v1 feature vector
type Extractor struct{}

// NewExtractor creates a new feature extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SchemaVersion returns the schema version of produced vectors
func (e *Extractor) SchemaVersion() int {
	return SchemaVersion
}

// Extract computes the feature vector. It is pure: identical inputs yield identical vectors.
func (e *Extractor) Extract(doc *preprocess.Document, matches []model.PatternMatch, emotion model.EmotionProfile, claims []model.Claim) (Vector, error) {
	n := float64(len(doc.Sentences))
	if n == 0 {
		return Vector{}, &model.EmptyInputError{}
	}

	values := make(map[string]float64, len(Names))

	// Structure
	words, capsWords, exclaimed := 0, 0, 0
	for _, s := range doc.Sentences {
		fields := strings.Fields(s.Text)
		words += len(fields)
		for _, f := range fields {
			if isCapsWord(f) {
				capsWords++
			}
		}
		if strings.HasSuffix(strings.TrimRight(s.Text, `"')]”’»`), "!") {
			exclaimed++
		}
	}
	values[SentenceCount] = math.Min(n, 50) / 50
	values[MeanSentenceLength] = math.Min(float64(words)/n, 40) / 40
	values[ExclamationRatio] = float64(exclaimed) / n
	values[CapsWordRatio] = 0
	if words > 0 {
		values[CapsWordRatio] = float64(capsWords) / float64(words)
	}

	// Patterns
	values[PatternDensity] = math.Min(patterns.TotalSeverity(matches)/n, 2) / 2
	counts := patterns.CountByCategory(matches)
	for _, c := range categoryCaps {
		values[c.feature] = math.Min(float64(counts[c.category])/c.limit, 1)
	}

	// Emotion
	values[MeanIntensity] = clamp01(emotion.MeanIntensity)
	values[ChargedRatio] = clamp01(emotion.ChargedRatio)
	values[MeanValence] = clamp01((emotion.MeanValence + 1) / 2)

	// Claims
	statSentences := make(map[int]bool)
	attrSentences := make(map[int]bool)
	for _, c := range claims {
		switch c.Type {
		case model.ClaimTypeStatistic:
			statSentences[c.Sentence] = true
		case model.ClaimTypeAttribution:
			attrSentences[c.Sentence] = true
		}
	}
	supported := 0
	for _, s := range doc.Sentences {
		if statSentences[s.Index] || attrSentences[s.Index] {
			supported++
		}
	}
	values[ClaimDensity] = math.Min(float64(len(claims))/n, 3) / 3
	values[StatisticRatio] = float64(len(statSentences)) / n
	values[AttributionRatio] = float64(len(attrSentences)) / n
	values[UnsupportedRatio] = 1 - float64(supported)/n

	return FromMap(SchemaVersion, values)
}

// isCapsWord reports whether a word has 3+ letters, all uppercase
func isCapsWord(word string) bool {
	letters := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
