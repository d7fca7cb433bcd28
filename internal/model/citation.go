package model

import "time"

// Citation is an outbound link found in the body of a fetched article.
// Citations are informational: they never enter the features or the score.
type Citation struct {
	URL       string        `json:"url"`
	Host      string        `json:"host"`
	Text      string        `json:"text,omitempty"` // Anchor text
	Kind      CitationKind  `json:"kind"`
	SameHost  bool          `json:"same_host"`
	Authority AuthorityTier `json:"authority"`
	Check     *LinkCheck    `json:"check,omitempty"` // Set when link checking is enabled
}

// CitationKind categorizes an outbound link
type CitationKind string

const (
	CitationKindReference CitationKind = "reference" // Footnote or reference-list link
	CitationKindInline    CitationKind = "inline"    // Link in running text
)

// LinkCheck is the result of probing a cited URL
type LinkCheck struct {
	StatusCode   int        `json:"status_code,omitempty"`
	Accessible   bool       `json:"accessible"`
	Dead         bool       `json:"dead"` // 404/410 or unreachable
	RedirectURL  string     `json:"redirect_url,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Stale        bool       `json:"stale"` // Last modified more than a year before the check
	Error        string     `json:"error,omitempty"`
}

// CitationSummary counts citations by authority tier and health
type CitationSummary struct {
	Total     int `json:"total"`
	External  int `json:"external"`
	Primary   int `json:"primary"`
	Secondary int `json:"secondary"`
	Tertiary  int `json:"tertiary"`
	Dead      int `json:"dead"`
	Stale     int `json:"stale"`
	Checked   int `json:"checked"`
}

// SummarizeCitations aggregates a citation list
func SummarizeCitations(citations []Citation) CitationSummary {
	var s CitationSummary
	for _, c := range citations {
		s.Total++
		if !c.SameHost {
			s.External++
		}
		switch c.Authority {
		case TierPrimary:
			s.Primary++
		case TierSecondary:
			s.Secondary++
		case TierTertiary:
			s.Tertiary++
		}
		if c.Check != nil {
			s.Checked++
			if c.Check.Dead {
				s.Dead++
			}
			if c.Check.Stale {
				s.Stale++
			}
		}
	}
	return s
}
