package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/credence/internal/classifier"
	"github.com/ppiankov/credence/internal/features"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/patterns"
)

// Scorer turns stage outputs into a credibility result
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given fusion weights
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Input carries the outputs of every analysis stage
type Input struct {
	Prediction   classifier.Prediction
	ModelVersion string
	Features     features.Vector
	Patterns     []model.PatternMatch
	Claims       []model.Claim
	Emotion      model.EmotionProfile
	Sentences    int
	ProseChars   int
}

// Calculate computes the full credibility result
func (s *Scorer) Calculate(in Input) model.CredibilityResult {
	fusion := Fuse(FusionInput{
		ProbLow:       in.Prediction.ProbLow,
		SeverityTotal: patterns.TotalSeverity(in.Patterns),
		Sentences:     in.Sentences,
		ChargedRatio:  in.Emotion.ChargedRatio,
	}, s.weights)

	metrics := Metrics(in.Patterns, in.Features, in.Emotion)
	patternScore := PatternScore(metrics)
	classification := Classify(in.ProseChars, in.Prediction.ProbLow, patternScore)
	risk := Risk(fusion.Score)
	confidence := Confidence(in.Prediction.Confidence, PatternConsistency(metrics))
	indicators := KeyIndicators(metrics)

	patternMatches := in.Patterns
	if patternMatches == nil {
		patternMatches = []model.PatternMatch{}
	}
	claimSpans := in.Claims
	if claimSpans == nil {
		claimSpans = []model.Claim{}
	}

	return model.CredibilityResult{
		Score:             fusion.Score,
		Confidence:        round3(confidence),
		Classification:    classification,
		RiskLevel:         risk,
		Tone:              Tone(metrics, in.Emotion),
		Patterns:          patternMatches,
		Claims:            claimSpans,
		Emotion:           in.Emotion,
		SentenceCount:     in.Sentences,
		ModelVersion:      in.ModelVersion,
		SchemaVersion:     in.Features.SchemaVersion,
		ModelProbability:  in.Prediction.ProbLow,
		PatternScore:      round3(patternScore),
		Features:          in.Features.Map(),
		Signals:           s.signals(in, fusion, metrics),
		KeyIndicators:     indicators,
		Summary:           Summary(classification, fusion.Score, indicators),
		RecommendedAction: RecommendedAction(risk),
		Explanation:       Explanation(classification, fusion.Score, patternScore, metrics, indicators),
		Principles:        model.DefaultPrinciples(),
	}
}

// Metrics derives verdict metrics from matches and the feature vector
func Metrics(matches []model.PatternMatch, v features.Vector, emotion model.EmotionProfile) PatternMetrics {
	counts := patterns.CountByCategory(matches)
	attribution := feature(v, features.AttributionRatio)

	return PatternMetrics{
		Sensational:  counts[patterns.CategorySensationalism],
		CapsRatio:    feature(v, features.CapsWordRatio),
		VagueSources: counts[patterns.CategoryVagueSource],
		Conspiracy:   counts[patterns.CategoryConspiracy],
		Emotional:    counts[patterns.CategoryEmotionalManipulation],
		OneSided:     emotion.ChargedRatio * (1 - attribution),
		NoEvidence:   feature(v, features.UnsupportedRatio),
		Extreme:      counts[patterns.CategoryExtremeLanguage],
		Clickbait:    counts[patterns.CategoryClickbait],
		FalseUrgency: counts[patterns.CategoryFalseUrgency],
		Unverifiable: counts[patterns.CategoryUnverifiableStatistic],
	}
}

func (s *Scorer) signals(in Input, fusion Fusion, m PatternMetrics) []model.Signal {
	var signals []model.Signal

	baselineSeverity := model.SeverityInfo
	if in.Prediction.ProbLow >= 0.75 {
		baselineSeverity = model.SeverityCritical
	} else if in.Prediction.ProbLow >= 0.5 {
		baselineSeverity = model.SeverityWarning
	}
	signals = append(signals, model.Signal{
		Type:        model.SignalModelBaseline,
		Severity:    baselineSeverity,
		Description: fmt.Sprintf("Model %s estimates %.0f%% probability of low credibility", in.ModelVersion, in.Prediction.ProbLow*100),
		Data: map[string]interface{}{
			"formula":    "(1 - p_low) * 100",
			"p_low":      in.Prediction.ProbLow,
			"decision":   in.Prediction.Decision,
			"baseline":   fusion.Baseline,
			"model":      in.ModelVersion,
			"confidence": in.Prediction.Confidence,
		},
	})

	if len(in.Patterns) > 0 {
		severity := model.SeverityWarning
		if fusion.PatternPenalty >= s.weights.PatternWeight {
			severity = model.SeverityCritical
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalPatternDensity,
			Severity:    severity,
			Description: fmt.Sprintf("%d rhetoric pattern matches across %d sentences", len(in.Patterns), in.Sentences),
			Data: map[string]interface{}{
				"formula":     fmt.Sprintf("%.0f * min(Σseverity / sentences / %.2f, 1)", s.weights.PatternWeight, s.weights.DensityCap),
				"matches":     len(in.Patterns),
				"density":     fusion.PatternDensity,
				"penalty":     fusion.PatternPenalty,
				"by_category": patterns.CountByCategory(in.Patterns),
			},
		})
	}

	if in.Emotion.ChargedRatio > 0 {
		severity := model.SeverityInfo
		if in.Emotion.ChargedRatio > 0.5 {
			severity = model.SeverityWarning
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalEmotionalCharge,
			Severity:    severity,
			Description: fmt.Sprintf("%.0f%% of sentences are highly charged (dominant: %s)", in.Emotion.ChargedRatio*100, in.Emotion.DominantEmotion),
			Data: map[string]interface{}{
				"formula":        fmt.Sprintf("%.0f * charged_ratio", s.weights.EmotionWeight),
				"charged_ratio":  in.Emotion.ChargedRatio,
				"mean_intensity": in.Emotion.MeanIntensity,
				"penalty":        fusion.EmotionPenalty,
			},
		})
	}

	if in.Sentences > 0 {
		severity := model.SeverityInfo
		if m.NoEvidence > 0.7 {
			severity = model.SeverityWarning
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalClaimSupport,
			Severity:    severity,
			Description: fmt.Sprintf("%d claim spans; %.0f%% of sentences carry no statistic or attribution", len(in.Claims), m.NoEvidence*100),
			Data: map[string]interface{}{
				"claims":            len(in.Claims),
				"statistic_ratio":   feature(in.Features, features.StatisticRatio),
				"attribution_ratio": feature(in.Features, features.AttributionRatio),
				"unsupported_ratio": m.NoEvidence,
			},
		})
	}

	if in.ProseChars < MinProseChars {
		signals = append(signals, model.Signal{
			Type:        model.SignalShortText,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Only %d characters of prose; classification withheld", in.ProseChars),
			Data: map[string]interface{}{
				"prose_chars": in.ProseChars,
				"minimum":     MinProseChars,
			},
		})
	}

	return signals
}

// feature reads a vector value, zero when absent
func feature(v features.Vector, name string) float64 {
	value, _ := v.Get(name)
	return value
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
