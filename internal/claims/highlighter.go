package claims

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/preprocess"
)

// Rule marks spans of one claim type
type Rule struct {
	ID         string
	Type       model.ClaimType
	Confidence float64

	re *regexp.Regexp
}

// NewRule compiles a claim rule
func NewRule(id string, claimType model.ClaimType, pattern string, confidence float64) (Rule, error) {
	if id == "" || claimType == "" {
		return Rule{}, fmt.Errorf("claim rule: id and type are required")
	}
	if confidence <= 0 || confidence > 1 {
		return Rule{}, fmt.Errorf("claim rule %s: confidence %.2f outside (0, 1]", id, confidence)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("claim rule %s: %w", id, err)
	}
	return Rule{ID: id, Type: claimType, Confidence: confidence, re: re}, nil
}

func mustRule(id string, claimType model.ClaimType, pattern string, confidence float64) Rule {
	r, err := NewRule(id, claimType, pattern, confidence)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRules is the built-in claim rule table
var DefaultRules = []Rule{
	// Statistics
	mustRule("statistic:percent", model.ClaimTypeStatistic,
		`(?i)\b\d+(?:[.,]\d+)*\s?(?:%|percent\b|per\s+cent\b)`, 0.85),
	mustRule("statistic:magnitude", model.ClaimTypeStatistic,
		`(?i)\b\d+(?:[.,]\d+)*\s+(?:million|billion|trillion|thousand)\b`, 0.75),
	mustRule("statistic:currency", model.ClaimTypeStatistic,
		`[$€£]\d+(?:[.,]\d+)*(?:\s?(?i:million|billion|trillion)\b)?`, 0.75),
	mustRule("statistic:count", model.ClaimTypeStatistic,
		`(?i)\b\d+(?:[.,]\d+)*\s+(?:people|participants|patients|cases|deaths|dollars|residents|voters|jobs|times)\b`, 0.7),

	// Attribution
	mustRule("attribution:according-to", model.ClaimTypeAttribution,
		`(?i)\baccording\s+to\b[^,.;!?]{0,60}`, 0.7),
	mustRule("attribution:group", model.ClaimTypeAttribution,
		`(?i)\b(?:experts|scientists|officials|researchers|studies|sources|analysts|doctors)\s+(?:say|said|claim|claimed|found|show|showed|report|reported|warn|warned|believe)\b`, 0.65),
	mustRule("attribution:reported-speech", model.ClaimTypeAttribution,
		`\b\w+\s+(?i:said|says|stated|reported|announced|confirmed|claimed|told|testified)\b`, 0.6),

	// Absolute statements
	mustRule("absolute:universal", model.ClaimTypeAbsolute,
		`(?i)\b(?:always|never|everyone|everybody|nobody|no\s+one|guaranteed|proven|undeniabl[ey]|without\s+(?:a\s+)?doubt)\b`, 0.5),

	// Predictions
	mustRule("prediction:future", model.ClaimTypePrediction,
		`(?i)\b(?:will|won't|(?:is|are)\s+(?:going|expected|set|likely|poised)\s+to|could\s+soon)\s+\w+`, 0.55),
}

// Highlighter flags candidate claims worth scrutinizing
type Highlighter struct {
	rules []Rule
}

// NewHighlighter creates a highlighter; with no rules it uses DefaultRules
func NewHighlighter(rules ...Rule) *Highlighter {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Highlighter{rules: rules}
}

// Highlight returns non-overlapping claims ordered by start offset.
// When candidates overlap, the higher confidence wins, then the longer
// span, then the earlier start.
func (h *Highlighter) Highlight(doc *preprocess.Document) []model.Claim {
	var candidates []model.Claim

	for _, s := range doc.Sentences {
		prose := doc.ProseOf(s)
		for _, rule := range h.rules {
			for _, loc := range rule.re.FindAllStringIndex(prose, -1) {
				if loc[0] == loc[1] {
					continue
				}
				candidates = append(candidates, model.Claim{
					Type:       rule.Type,
					Start:      s.Start + loc[0],
					End:        s.Start + loc[1],
					Sentence:   s.Index,
					Confidence: rule.Confidence,
					Text:       strings.Join(strings.Fields(prose[loc[0]:loc[1]]), " "),
					Rule:       rule.ID,
				})
			}
		}
	}

	return resolveOverlaps(candidates)
}

// resolveOverlaps keeps the strongest candidates that do not share bytes
func resolveOverlaps(candidates []model.Claim) []model.Claim {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Rule < b.Rule
	})

	accepted := make([]model.Claim, 0, len(candidates))
	for _, c := range candidates {
		overlaps := false
		for _, a := range accepted {
			if c.Overlaps(a) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})

	return accepted
}

// CountByType tallies claims per type
func CountByType(claims []model.Claim) map[model.ClaimType]int {
	counts := make(map[model.ClaimType]int)
	for _, c := range claims {
		counts[c.Type]++
	}
	return counts
}
