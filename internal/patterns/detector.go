package patterns

import (
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/preprocess"
)

// Detector finds misinformation-rhetoric patterns in preprocessed text
type Detector struct {
	table *RuleTable
}

// NewDetector creates a detector over a validated rule table
func NewDetector(table *RuleTable) *Detector {
	return &Detector{table: table}
}

// Version returns the rule table version
func (d *Detector) Version() string {
	return d.table.Version
}

// Rules returns the number of loaded rules
func (d *Detector) Rules() int {
	return len(d.table.Rules)
}

// Detect evaluates every rule against every sentence.
// Matches are ordered by start offset, then end offset, then rule id.
func (d *Detector) Detect(doc *preprocess.Document) []model.PatternMatch {
	matches := make([]model.PatternMatch, 0)

	for _, s := range doc.Sentences {
		prose := doc.ProseOf(s)
		for _, rule := range d.table.Rules {
			for _, loc := range rule.re.FindAllStringIndex(prose, -1) {
				if loc[0] == loc[1] {
					continue
				}
				matches = append(matches, model.PatternMatch{
					RuleID:   rule.ID,
					Category: rule.Category,
					Start:    s.Start + loc[0],
					End:      s.Start + loc[1],
					Sentence: s.Index,
					Severity: rule.Severity,
					Text:     strings.Join(strings.Fields(prose[loc[0]:loc[1]]), " "),
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.RuleID < b.RuleID
	})

	return matches
}

// CountByCategory tallies matches per category
func CountByCategory(matches []model.PatternMatch) map[string]int {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Category]++
	}
	return counts
}

// TotalSeverity sums the severity of all matches
func TotalSeverity(matches []model.PatternMatch) float64 {
	total := 0.0
	for _, m := range matches {
		total += m.Severity
	}
	return total
}
