package score

import (
	"math"

	"github.com/ppiankov/credence/internal/model"
)

// MinProseChars is the shortest prose that gets a definitive classification
const MinProseChars = 50

// PatternMetrics are the per-category readings the verdict is built from
type PatternMetrics struct {
	Sensational  int
	CapsRatio    float64 // All-caps words / words
	VagueSources int
	Conspiracy   int
	Emotional    int
	OneSided     float64 // Charged sentences without attribution, 0-1
	NoEvidence   float64 // Sentences without statistic or attribution claims, 0-1
	Extreme      int
	Clickbait    int
	FalseUrgency int
	Unverifiable int
}

// normalized returns the nine verdict components in [0, 1]
func (m PatternMetrics) normalized() []float64 {
	return []float64{
		math.Min(1, float64(m.Sensational)/5),
		math.Min(1, m.CapsRatio),
		math.Min(1, float64(m.VagueSources)/3),
		math.Min(1, float64(m.Conspiracy)/2),
		math.Min(1, float64(m.Emotional)/4),
		math.Min(1, m.OneSided),
		math.Min(1, m.NoEvidence),
		math.Min(1, float64(m.Extreme)/6),
		math.Min(1, float64(m.Clickbait)/2),
	}
}

var patternScoreWeights = []float64{0.15, 0.10, 0.15, 0.15, 0.10, 0.10, 0.10, 0.10, 0.05}

// PatternScore aggregates metrics into 0-1, higher = more suspicious
func PatternScore(m PatternMetrics) float64 {
	score := 0.0
	for i, v := range m.normalized() {
		score += v * patternScoreWeights[i]
	}
	return score
}

// PatternConsistency is 1 - min(1, 2 * variance) of the normalized metrics.
// Metrics that agree (all high or all low) give high consistency.
func PatternConsistency(m PatternMetrics) float64 {
	values := m.normalized()
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return 1 - math.Min(1, variance*2)
}

// Classify assigns the categorical verdict.
// probLow is the calibrated probability of low credibility.
func Classify(proseChars int, probLow, patternScore float64) model.Classification {
	if proseChars < MinProseChars {
		return model.ClassificationUnverified
	}

	predictsReal := probLow < 0.5
	modelConfidence := math.Max(probLow, 1-probLow)

	if !predictsReal && modelConfidence > 0.75 {
		if patternScore > 0.7 {
			return model.ClassificationFake
		}
		return model.ClassificationMisleading
	}
	if predictsReal && modelConfidence > 0.75 {
		if patternScore < 0.3 {
			return model.ClassificationReal
		}
		return model.ClassificationMisleading
	}
	if modelConfidence < 0.5 {
		return model.ClassificationUnverified
	}
	if patternScore > 0.5 {
		return model.ClassificationMisleading
	}
	return model.ClassificationReal
}

// Risk buckets a credibility score
func Risk(score float64) model.RiskLevel {
	switch {
	case score >= 75:
		return model.RiskLow
	case score >= 40:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// Confidence blends model confidence with pattern consistency (60/40), in [0, 1]
func Confidence(modelConfidence, consistency float64) float64 {
	return clamp(0.6*modelConfidence+0.4*consistency, 0, 1)
}
