package model

import "time"

// CredibilityResult is the pure output of one analysis.
// Identical text analyzed with the same model version yields an identical result.
type CredibilityResult struct {
	Score          float64        `json:"score"`      // 0-100, higher = more credible
	Confidence     float64        `json:"confidence"` // 0-1
	Classification Classification `json:"classification"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Tone           string         `json:"tone"`

	Patterns []PatternMatch `json:"patterns"` // Ordered by start offset
	Claims   []Claim        `json:"claims"`   // Ordered by start offset, non-overlapping
	Emotion  EmotionProfile `json:"emotion"`

	SentenceCount    int                `json:"sentence_count"`
	ModelVersion     string             `json:"model_version"`
	SchemaVersion    int                `json:"schema_version"`
	ModelProbability float64            `json:"model_probability"` // Probability of low credibility
	PatternScore     float64            `json:"pattern_score"`     // 0-1, higher = more suspicious
	Features         map[string]float64 `json:"features"`

	Signals           []Signal   `json:"signals"`
	KeyIndicators     []string   `json:"key_indicators"`
	Summary           string     `json:"summary"`
	RecommendedAction string     `json:"recommended_action"`
	Explanation       string     `json:"explanation"`
	Principles        Principles `json:"principles"`
}

// Classification is the categorical verdict
type Classification string

const (
	ClassificationReal       Classification = "REAL"
	ClassificationFake       Classification = "FAKE"
	ClassificationMisleading Classification = "MISLEADING"
	ClassificationUnverified Classification = "UNVERIFIED"
)

// RiskLevel buckets the score for readers
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low Risk"
	RiskMedium RiskLevel = "Medium Risk"
	RiskHigh   RiskLevel = "High Risk"
)

// Report wraps a result with the identity and provenance of the analyzed article.
// Time and identity live here so the result itself stays deterministic.
type Report struct {
	ArticleID       string             `json:"article_id"`
	Title           string             `json:"title,omitempty"`
	Source          string             `json:"source,omitempty"`
	SourceAuthority AuthorityTier      `json:"source_authority"`
	AnalyzedAt      time.Time          `json:"analyzed_at"`
	Cached          bool               `json:"cached"`
	Result          *CredibilityResult `json:"result"`

	Citations []Citation `json:"citations,omitempty"` // Outbound links of fetched pages

	LLM *LLMSummary `json:"llm,omitempty"` // Optional narrative (separate, never affects score)
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Transparent scoring data (formulas, inputs)
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalModelBaseline   SignalType = "model_baseline"   // Classifier probability turned into a baseline
	SignalPatternDensity  SignalType = "pattern_density"  // Severity-weighted rhetoric matches per sentence
	SignalEmotionalCharge SignalType = "emotional_charge" // Share of highly charged sentences
	SignalClaimSupport    SignalType = "claim_support"    // Attributed/quantified sentences vs bare assertions
	SignalShortText       SignalType = "short_text"       // Too little prose for a reliable verdict
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Principles documents which core principles were applied
type Principles struct {
	NonNormative  bool `json:"non_normative"` // Flags rhetoric and claims, never rules on truth
	Transparent   bool `json:"transparent"`   // All scoring explainable
	Deterministic bool `json:"deterministic"` // Same text + model = same result
}

// DefaultPrinciples returns the standard principles
func DefaultPrinciples() Principles {
	return Principles{
		NonNormative:  true,
		Transparent:   true,
		Deterministic: true,
	}
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not classified (no source, or unparseable)
	TierPrimary   AuthorityTier = 1 // Wire services, official and academic publishers
	TierSecondary AuthorityTier = 2 // Established news outlets
	TierTertiary  AuthorityTier = 3 // Blogs, social media, unknown sites
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// LLMSummary contains optional LLM-generated narrative
// CRITICAL: This never affects scoring and is clearly separated
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"` // Citations restricted to the source and its live links; no truth rulings
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
