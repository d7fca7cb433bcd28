package model

// Claim is a span of the article that asserts something checkable.
// It flags text worth scrutinizing; it says nothing about truth value.
type Claim struct {
	Type       ClaimType `json:"type"`           // statistic, attribution, ...
	Start      int       `json:"start"`          // Byte offset into the original text
	End        int       `json:"end"`            // Exclusive byte offset
	Sentence   int       `json:"sentence"`       // Sentence index (0-based)
	Confidence float64   `json:"confidence"`     // How claim-like the span is (0-1)
	Text       string    `json:"text"`           // Original text of the span
	Rule       string    `json:"rule,omitempty"` // Which extraction rule matched (e.g., "statistic:percent")
}

// Len returns the span length in bytes
func (c Claim) Len() int {
	return c.End - c.Start
}

// Overlaps reports whether two claim spans share at least one byte
func (c Claim) Overlaps(other Claim) bool {
	return c.Start < other.End && other.Start < c.End
}

// ClaimType categorizes the nature of the claim.
// The set is open: rule tables may introduce new types.
type ClaimType string

const (
	ClaimTypeStatistic   ClaimType = "statistic"          // Numbers, percentages, amounts
	ClaimTypeAttribution ClaimType = "attribution"        // Reported speech, "according to"
	ClaimTypeAbsolute    ClaimType = "absolute-statement" // Always/never/proven
	ClaimTypePrediction  ClaimType = "prediction"         // Future-tense assertions
)
