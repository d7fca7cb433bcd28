package features

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaVersion identifies the feature set, its order and its normalization.
// Any change to names, order or formulas requires a new version and a retrained model.
const SchemaVersion = 1

// Feature names, schema v1. Every value is normalized to [0, 1].
//
//	sentence_count               min(sentences, 50) / 50
//	mean_sentence_length         min(mean words per sentence, 40) / 40
//	pattern_density              min(Σ match severity / sentences, 2) / 2
//	cat_*                        min(category match count / cap, 1)
//	mean_intensity               mean sentence emotional intensity
//	charged_ratio                share of sentences above the high-charge threshold
//	mean_valence                 (mean sentence valence + 1) / 2
//	claim_density                min(claims / sentences, 3) / 3
//	statistic_ratio              sentences with a statistic claim / sentences
//	attribution_ratio            sentences with an attribution claim / sentences
//	unsupported_ratio            1 - sentences with a statistic or attribution claim / sentences
//	exclamation_ratio            sentences ending in "!" / sentences
//	caps_word_ratio              all-caps words (3+ letters) / words
const (
	SentenceCount            = "sentence_count"
	MeanSentenceLength       = "mean_sentence_length"
	PatternDensity           = "pattern_density"
	CatSensationalism        = "cat_sensationalism"
	CatExcessiveCaps         = "cat_excessive_caps"
	CatVagueSource           = "cat_vague_source"
	CatConspiracy            = "cat_conspiracy"
	CatFalseUrgency          = "cat_false_urgency"
	CatEmotionalManipulation = "cat_emotional_manipulation"
	CatExtremeLanguage       = "cat_extreme_language"
	CatClickbait             = "cat_clickbait"
	CatUnverifiableStatistic = "cat_unverifiable_statistic"
	MeanIntensity            = "mean_intensity"
	ChargedRatio             = "charged_ratio"
	MeanValence              = "mean_valence"
	ClaimDensity             = "claim_density"
	StatisticRatio           = "statistic_ratio"
	AttributionRatio         = "attribution_ratio"
	UnsupportedRatio         = "unsupported_ratio"
	ExclamationRatio         = "exclamation_ratio"
	CapsWordRatio            = "caps_word_ratio"
)

// Names lists schema v1 features in vector order
var Names = []string{
	SentenceCount,
	MeanSentenceLength,
	PatternDensity,
	CatSensationalism,
	CatExcessiveCaps,
	CatVagueSource,
	CatConspiracy,
	CatFalseUrgency,
	CatEmotionalManipulation,
	CatExtremeLanguage,
	CatClickbait,
	CatUnverifiableStatistic,
	MeanIntensity,
	ChargedRatio,
	MeanValence,
	ClaimDensity,
	StatisticRatio,
	AttributionRatio,
	UnsupportedRatio,
	ExclamationRatio,
	CapsWordRatio,
}

// Vector is an ordered, named feature vector
type Vector struct {
	SchemaVersion int       `json:"schema_version"`
	Names         []string  `json:"names"`
	Values        []float64 `json:"values"`
}

// Get returns a feature value by name
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as name -> value
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		m[n] = v.Values[i]
	}
	return m
}

// FromMap builds a schema-ordered vector. The map must hold exactly the
// schema's key set; missing or unknown keys are an error.
func FromMap(version int, values map[string]float64) (Vector, error) {
	if version != SchemaVersion {
		return Vector{}, fmt.Errorf("unsupported feature schema version %d", version)
	}

	var missing, extra []string
	for _, name := range Names {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	known := make(map[string]bool, len(Names))
	for _, name := range Names {
		known[name] = true
	}
	for name := range values {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		return Vector{}, fmt.Errorf("feature key set mismatch: missing [%s], unexpected [%s]",
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	}

	vec := Vector{
		SchemaVersion: version,
		Names:         append([]string(nil), Names...),
		Values:        make([]float64, len(Names)),
	}
	for i, name := range Names {
		vec.Values[i] = values[name]
	}
	return vec, nil
}
