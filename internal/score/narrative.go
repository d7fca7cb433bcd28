package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Emotional tone labels
const (
	ToneNeutral        = "Neutral and analytical"
	ToneModerate       = "Moderately emotional"
	ToneConspiratorial = "Conspiratorial and fear-inducing"
	ToneSensational    = "Sensationalized and attention-seeking"
	ToneManipulative   = "Highly emotional and manipulative"
)

// Tone labels the overall register of the article
func Tone(m PatternMetrics, emotion model.EmotionProfile) string {
	switch {
	case m.Conspiracy > 0 && (emotion.DominantEmotion == "fear" || m.Conspiracy > 1):
		return ToneConspiratorial
	case m.Sensational >= 3 || m.Clickbait > 0:
		return ToneSensational
	case emotion.ChargedRatio > 0.5 || m.Emotional >= 2:
		return ToneManipulative
	case emotion.MeanIntensity > 0.2 || emotion.ChargedRatio > 0:
		return ToneModerate
	default:
		return ToneNeutral
	}
}

// KeyIndicators lists the findings that drove the verdict. Never empty.
func KeyIndicators(m PatternMetrics) []string {
	var indicators []string

	if m.Sensational > 3 {
		indicators = append(indicators, "High use of sensational language")
	}
	if m.CapsRatio > 0.1 {
		indicators = append(indicators, "Excessive capitalization detected")
	}
	if m.VagueSources > 2 {
		indicators = append(indicators, "Multiple vague source references")
	}
	if m.Conspiracy > 0 {
		indicators = append(indicators, "Conspiracy framing language present")
	}
	if m.Emotional > 2 {
		indicators = append(indicators, "Emotional manipulation tactics detected")
	}
	if m.OneSided > 0.7 {
		indicators = append(indicators, "One-sided narrative without counterpoints")
	}
	if m.NoEvidence > 0.7 {
		indicators = append(indicators, "Lack of verifiable evidence or data")
	}
	if m.Extreme > 5 {
		indicators = append(indicators, "Overuse of extreme language")
	}
	if m.Clickbait > 0 {
		indicators = append(indicators, "Clickbait patterns in text")
	}
	if m.FalseUrgency > 0 {
		indicators = append(indicators, "Pressure to act or share urgently")
	}
	if m.Unverifiable > 0 {
		indicators = append(indicators, "Sweeping statistics without a cited source")
	}

	if len(indicators) == 0 {
		indicators = append(indicators, "Balanced language and structure", "Appropriate use of sources")
	}
	return indicators
}

// Summary is a 2-3 sentence overview of the assessment
func Summary(c model.Classification, score float64, indicators []string) string {
	var b strings.Builder

	switch c {
	case model.ClassificationReal:
		fmt.Fprintf(&b, "This article appears credible with a credibility score of %.1f/100. ", score)
	case model.ClassificationFake:
		fmt.Fprintf(&b, "This article shows strong indicators of misinformation with a credibility score of %.1f/100. ", score)
	case model.ClassificationMisleading:
		fmt.Fprintf(&b, "This article contains misleading elements with a credibility score of %.1f/100. ", score)
	default:
		fmt.Fprintf(&b, "This article cannot be reliably assessed with a credibility score of %.1f/100. ", score)
	}

	top := indicators
	if len(top) > 3 {
		top = top[:3]
	}
	switch len(top) {
	case 0:
	case 1:
		fmt.Fprintf(&b, "The primary factor is: %s. ", strings.ToLower(top[0]))
	default:
		fmt.Fprintf(&b, "Key factors include: %s. ", joinLower(top))
	}

	switch c {
	case model.ClassificationReal:
		b.WriteString("The content demonstrates balanced reporting and appropriate sourcing.")
	case model.ClassificationFake:
		b.WriteString("Multiple red flags suggest this content should be treated with extreme skepticism.")
	case model.ClassificationMisleading:
		b.WriteString("While some elements may be factual, the overall presentation raises concerns.")
	default:
		b.WriteString("Additional information would be needed for a more definitive assessment.")
	}

	return b.String()
}

// RecommendedAction gives reader guidance for a risk level
func RecommendedAction(risk model.RiskLevel) string {
	switch risk {
	case model.RiskHigh:
		return "Exercise extreme caution with this content. Verify claims through multiple independent and reputable sources before accepting or sharing. Consider this content potentially misleading or false."
	case model.RiskMedium:
		return "Approach this content with caution. Cross-reference key claims with other credible sources and look for additional evidence before drawing conclusions or sharing."
	default:
		return "This content appears credible based on linguistic analysis. However, always maintain critical thinking and verify important claims through additional sources when making significant decisions."
	}
}

// Explanation details the reasoning behind the verdict
func Explanation(c model.Classification, score, patternScore float64, m PatternMetrics, indicators []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The article received a classification of '%s' with a credibility score of %.1f/100. ", c, score)

	switch c {
	case model.ClassificationReal:
		b.WriteString("This classification indicates that the linguistic patterns and content structure align with credible journalism. ")
	case model.ClassificationFake:
		b.WriteString("This classification indicates strong linguistic patterns associated with misinformation and fabricated content. ")
	case model.ClassificationMisleading:
		b.WriteString("This classification indicates a mix of credible and suspicious elements, suggesting partial truth with potential distortion. ")
	default:
		b.WriteString("This classification indicates insufficient information or ambiguous patterns that prevent a definitive assessment. ")
	}

	fmt.Fprintf(&b, "The overall pattern analysis score is %.2f (on a scale where higher values indicate more suspicious patterns). ", patternScore)

	if len(indicators) > 0 {
		fmt.Fprintf(&b, "Specific findings include: %s. ", joinLower(indicators))
	}

	var notable []string
	if m.Sensational > 3 {
		notable = append(notable, fmt.Sprintf("sensational language (%d instances)", m.Sensational))
	}
	if m.VagueSources > 2 {
		notable = append(notable, fmt.Sprintf("vague source references (%d instances)", m.VagueSources))
	}
	if m.Emotional > 2 {
		notable = append(notable, fmt.Sprintf("emotional manipulation tactics (%d instances)", m.Emotional))
	}
	if m.Conspiracy > 0 {
		notable = append(notable, fmt.Sprintf("conspiracy framing language (%d instances)", m.Conspiracy))
	}
	if len(notable) > 0 {
		fmt.Fprintf(&b, "Notable patterns detected: %s. ", strings.Join(notable, ", "))
	}

	b.WriteString("This assessment is based exclusively on linguistic and structural analysis of the provided text, without external fact-checking or knowledge injection.")

	return b.String()
}

// joinLower renders "a", "a and b" or "a, b, and c"
func joinLower(items []string) string {
	lower := make([]string, len(items))
	for i, s := range items {
		lower[i] = strings.ToLower(s)
	}
	switch len(lower) {
	case 0:
		return ""
	case 1:
		return lower[0]
	case 2:
		return lower[0] + " and " + lower[1]
	default:
		return strings.Join(lower[:len(lower)-1], ", ") + ", and " + lower[len(lower)-1]
	}
}
