package model

import (
	"time"

	"github.com/google/uuid"
)

// Article is a submitted piece of news text. Immutable once submitted.
type Article struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Source      string     `json:"source,omitempty"`       // Source URL or outlet name
	Title       string     `json:"title,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NewArticle creates an article with a generated identifier
func NewArticle(text, source string) Article {
	return Article{
		ID:     uuid.NewString(),
		Text:   text,
		Source: source,
	}
}

// EnsureID returns a copy of the article with an identifier assigned
func (a Article) EnsureID() Article {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return a
}

// Sentence is a span of the original article text
type Sentence struct {
	Index int    `json:"index"`
	Start int    `json:"start"` // Byte offset into the original text
	End   int    `json:"end"`   // Exclusive byte offset
	Text  string `json:"text"`  // Whitespace-normalized prose of the span
}

// PatternMatch is one hit of a misinformation-rhetoric rule
type PatternMatch struct {
	RuleID   string  `json:"rule_id"`
	Category string  `json:"category"` // e.g., "sensationalism", "false-urgency"
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Sentence int     `json:"sentence"`
	Severity float64 `json:"severity"` // (0, 1]
	Text     string  `json:"text"`
}

// SentenceEmotion is the emotional reading of a single sentence
type SentenceEmotion struct {
	Sentence  int     `json:"sentence"`
	Valence   float64 `json:"valence"`   // -1 (negative) .. 1 (positive)
	Intensity float64 `json:"intensity"` // 0 .. 1
	Emotion   string  `json:"emotion"`   // Dominant emotion for the sentence, "neutral" when no hits
	Hits      int     `json:"hits"`
}

// EmotionProfile aggregates sentence emotions over the document
type EmotionProfile struct {
	Sentences       []SentenceEmotion  `json:"sentences"`
	MeanIntensity   float64            `json:"mean_intensity"`
	MeanValence     float64            `json:"mean_valence"`
	DominantEmotion string             `json:"dominant_emotion"`
	ChargedRatio    float64            `json:"charged_ratio"` // Fraction of sentences above the high-charge threshold
	EmotionWeights  map[string]float64 `json:"emotion_weights,omitempty"`
}

// EmotionNeutral labels sentences and documents without lexicon hits
const EmotionNeutral = "neutral"

// NeutralEmotionProfile returns the profile used when a stage produced nothing
func NeutralEmotionProfile(sentences int) EmotionProfile {
	profile := EmotionProfile{
		Sentences:       make([]SentenceEmotion, sentences),
		DominantEmotion: EmotionNeutral,
	}
	for i := range profile.Sentences {
		profile.Sentences[i] = SentenceEmotion{Sentence: i, Emotion: EmotionNeutral}
	}
	return profile
}
