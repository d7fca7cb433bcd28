package emotion

import (
	"math"
	"strings"
	"unicode"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/preprocess"
	"golang.org/x/text/cases"
)

const (
	capsAmplifier       = 1.5
	exclamationStep     = 0.25
	maxExclamationCount = 4
)

// Analyzer scores emotional charge sentence by sentence
type Analyzer struct {
	lexicon *Lexicon
}

// NewAnalyzer creates an analyzer over a validated lexicon
func NewAnalyzer(lexicon *Lexicon) *Analyzer {
	return &Analyzer{lexicon: lexicon}
}

// Version returns the lexicon version
func (a *Analyzer) Version() string {
	return a.lexicon.Version
}

// tally accumulates hits for one emotion
type tally struct {
	hits   int
	weight float64
	first  int // Position of the first hit, for tie-breaking
}

// Analyze builds the emotion profile of a document
func (a *Analyzer) Analyze(doc *preprocess.Document) model.EmotionProfile {
	n := len(doc.Sentences)
	if n == 0 {
		return model.NeutralEmotionProfile(0)
	}

	// Caser is stateful; one per call keeps the analyzer safe to share
	fold := cases.Fold()

	profile := model.EmotionProfile{
		Sentences:      make([]model.SentenceEmotion, n),
		EmotionWeights: make(map[string]float64),
	}
	docTally := make(map[string]*tally)
	position := 0
	charged := 0

	for i, s := range doc.Sentences {
		prose := doc.ProseOf(s)
		tokens := tokenize(prose)
		sentTally := make(map[string]*tally)

		raw, valenceSum, hits := 0.0, 0.0, 0
		for _, tok := range tokens {
			position++
			term, ok := a.lexicon.index[fold.String(tok)]
			if !ok {
				continue
			}
			w := term.Weight
			if isAllCaps(tok) {
				w *= capsAmplifier
			}
			raw += w
			valenceSum += term.Valence * w
			hits++

			record(sentTally, term.Emotion, w, position)
			record(docTally, term.Emotion, w, position)
			profile.EmotionWeights[term.Emotion] += w
		}

		se := model.SentenceEmotion{Sentence: s.Index, Emotion: model.EmotionNeutral, Hits: hits}
		if hits > 0 {
			excl := strings.Count(prose, "!")
			if excl > maxExclamationCount {
				excl = maxExclamationCount
			}
			amplified := raw * (1 + exclamationStep*float64(excl))
			se.Intensity = math.Min(1, amplified/math.Sqrt(float64(len(tokens))))
			se.Valence = clamp(valenceSum/raw, -1, 1)
			se.Emotion = dominant(sentTally)
		}

		if se.Intensity > a.lexicon.HighChargeThreshold {
			charged++
		}
		profile.MeanIntensity += se.Intensity
		profile.MeanValence += se.Valence
		profile.Sentences[i] = se
	}

	profile.MeanIntensity /= float64(n)
	profile.MeanValence /= float64(n)
	profile.ChargedRatio = float64(charged) / float64(n)
	profile.DominantEmotion = dominant(docTally)

	return profile
}

func record(t map[string]*tally, emotion string, weight float64, position int) {
	entry, ok := t[emotion]
	if !ok {
		entry = &tally{first: position}
		t[emotion] = entry
	}
	entry.hits++
	entry.weight += weight
}

// dominant picks the emotion with most hits, then the higher cumulative
// weight, then the earliest first occurrence
func dominant(t map[string]*tally) string {
	best := model.EmotionNeutral
	var bestTally *tally
	for emotion, cur := range t {
		if bestTally == nil ||
			cur.hits > bestTally.hits ||
			(cur.hits == bestTally.hits && cur.weight > bestTally.weight) ||
			(cur.hits == bestTally.hits && cur.weight == bestTally.weight && cur.first < bestTally.first) {
			best, bestTally = emotion, cur
		}
	}
	return best
}

// tokenize splits prose into words: runs of letters and digits, keeping
// inner apostrophes and hyphens ("don't", "jaw-dropping")
func tokenize(s string) []string {
	var tokens []string
	runes := []rune(s)
	start := -1
	for i, r := range runes {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		joiner := (r == '\'' || r == '’' || r == '-') && start >= 0 &&
			i+1 < len(runes) && (unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1]))
		switch {
		case inWord || joiner:
			if start < 0 {
				start = i
			}
		case start >= 0:
			tokens = append(tokens, string(runes[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}

// isAllCaps reports whether a word has at least two letters and none lowercase
func isAllCaps(word string) bool {
	letters := 0
	for _, r := range word {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
