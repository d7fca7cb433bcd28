package score

import "math"

// FusionVersion identifies DefaultWeights; bump it with any weight change
const FusionVersion = "fusion-v1"

// Weights are the fusion constants
type Weights struct {
	PatternWeight float64 // Max points removed for rhetoric pattern density
	DensityCap    float64 // Severity per sentence at which the pattern penalty saturates
	EmotionWeight float64 // Max points removed when every sentence is highly charged
}

// DefaultWeights is the version-controlled fusion tuning.
// Locked by the analyzer scenario tests; change only together with FusionVersion.
var DefaultWeights = Weights{
	PatternWeight: 25,
	DensityCap:    1.5,
	EmotionWeight: 15,
}

// FusionInput carries everything the fusion function reads
type FusionInput struct {
	ProbLow       float64 // Calibrated model probability of low credibility
	SeverityTotal float64 // Σ severity over all pattern matches
	Sentences     int
	ChargedRatio  float64
}

// Fusion is the decomposed fused score
type Fusion struct {
	Score          float64 `json:"score"`
	Baseline       float64 `json:"baseline"`
	PatternDensity float64 `json:"pattern_density"` // Severity per sentence
	PatternPenalty float64 `json:"pattern_penalty"`
	EmotionPenalty float64 `json:"emotion_penalty"`
}

// Fuse combines the model baseline with rule and emotion penalties:
//
//	baseline       = (1 - p_low) * 100
//	patternPenalty = PatternWeight * min(Σseverity / sentences / DensityCap, 1)
//	emotionPenalty = EmotionWeight * chargedRatio
//	score          = clamp(baseline - patternPenalty - emotionPenalty, 0, 100), rounded to 0.1
//
// For fixed model output the score never increases when pattern severity
// or charged ratio increase.
func Fuse(in FusionInput, w Weights) Fusion {
	baseline := (1 - clamp(in.ProbLow, 0, 1)) * 100

	density := 0.0
	if in.Sentences > 0 {
		density = in.SeverityTotal / float64(in.Sentences)
	}
	patternPenalty := 0.0
	if w.DensityCap > 0 {
		patternPenalty = w.PatternWeight * math.Min(density/w.DensityCap, 1)
	}
	emotionPenalty := w.EmotionWeight * clamp(in.ChargedRatio, 0, 1)

	score := clamp(baseline-patternPenalty-emotionPenalty, 0, 100)

	return Fusion{
		Score:          round1(score),
		Baseline:       baseline,
		PatternDensity: density,
		PatternPenalty: patternPenalty,
		EmotionPenalty: emotionPenalty,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
