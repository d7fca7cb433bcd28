package source

import (
	"testing"

	"github.com/ppiankov/credence/internal/model"
)

type tierCase struct {
	src      string
	expected model.AuthorityTier
	desc     string
}

func runTierCases(t *testing.T, a *Authority, tests []tierCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := a.Tier(tt.src)
			if result != tt.expected {
				t.Errorf("Expected %v for %q, got %v", tt.expected, tt.src, result)
			}
		})
	}
}

func TestAuthority_PrimaryDomains(t *testing.T) {
	a := NewAuthority(&model.AuthorityConfig{
		PrimaryDomains:   []string{"reuters.com", "apnews.com", "WHO.int"},
		SecondaryDomains: []string{"bbc.co.uk"},
	})

	runTierCases(t, a, []tierCase{
		{"https://reuters.com/world/europe/story", model.TierPrimary, "exact host"},
		{"https://www.reuters.com/markets", model.TierPrimary, "www prefix"},
		{"https://apnews.com/article/abc", model.TierPrimary, "wire service"},
		{"https://news.who.int/item", model.TierPrimary, "subdomain, configured upper-case"},
		{"reuters.com", model.TierPrimary, "bare host"},
	})
}

func TestAuthority_SecondaryDomains(t *testing.T) {
	a := NewAuthority(&model.AuthorityConfig{
		SecondaryDomains: []string{"bbc.co.uk", "theguardian.com"},
	})

	runTierCases(t, a, []tierCase{
		{"https://www.bbc.co.uk/news/uk-123", model.TierSecondary, "broadcaster"},
		{"https://theguardian.com/politics/2024/jan/01/x", model.TierSecondary, "newspaper"},
	})
}

func TestAuthority_PathPatterns(t *testing.T) {
	a := NewAuthority(&model.AuthorityConfig{
		PathPatterns: []model.PathPattern{
			{Pattern: "/press-releases?/", Tier: "primary"},
			{Pattern: "/opinion/", Tier: "tertiary"},
			{Pattern: "([", Tier: "primary"},
		},
	})

	runTierCases(t, a, []tierCase{
		{"https://example.com/press-release/42", model.TierPrimary, "press release path"},
		{"https://example.org/press-releases/2024", model.TierPrimary, "plural path"},
		{"https://example.net/opinion/why", model.TierTertiary, "opinion path"},
		{"https://example.com/blog/post", model.TierTertiary, "no matching path pattern"},
	})

	if len(a.pathPatterns) != 2 {
		t.Errorf("Expected invalid pattern to be skipped, got %d patterns", len(a.pathPatterns))
	}
}

func TestAuthority_TLDHeuristics(t *testing.T) {
	a := NewAuthority(nil)

	runTierCases(t, a, []tierCase{
		{"https://whitehouse.gov/briefing-room", model.TierPrimary, ".gov host"},
		{"https://mit.edu/research", model.TierPrimary, ".edu host"},
		{"https://ox.ac.uk/news", model.TierPrimary, ".ac.uk host"},
	})
}

func TestAuthority_DomainMap(t *testing.T) {
	a := NewAuthority(&model.AuthorityConfig{
		PrimaryDomains: []string{"example.com"},
		DomainMap: map[string]string{
			"example.com":  "secondary",
			"Partisan.net": "3",
		},
	})

	runTierCases(t, a, []tierCase{
		{"https://example.com/article", model.TierSecondary, "map wins over domain lists"},
		{"https://partisan.net/post", model.TierTertiary, "numeric tier, case-folded host"},
	})
}

func TestAuthority_TertiaryDefault(t *testing.T) {
	a := NewAuthority(nil)

	runTierCases(t, a, []tierCase{
		{"https://randomsite.com/page", model.TierTertiary, "unknown domain"},
		{"https://blog.example.net/article", model.TierTertiary, "blog domain"},
		{"https://tourism-board.org/visit", model.TierTertiary, ".org without other signals"},
	})
}

func TestAuthority_Unknown(t *testing.T) {
	a := NewAuthority(nil)

	runTierCases(t, a, []tierCase{
		{"", model.TierUnknown, "empty source"},
		{"   ", model.TierUnknown, "blank source"},
		{"Reuters", model.TierUnknown, "outlet name"},
		{"The Daily Planet", model.TierUnknown, "outlet name with spaces"},
		{"://missing-scheme", model.TierUnknown, "malformed URL"},
	})
}

func TestAuthority_PortHandling(t *testing.T) {
	a := NewAuthority(&model.AuthorityConfig{
		PrimaryDomains: []string{"example.gov"},
	})

	runTierCases(t, a, []tierCase{
		{"https://example.gov:443/page", model.TierPrimary, "standard port"},
		{"http://example.gov:8080/page", model.TierPrimary, "non-standard port"},
	})
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		input    string
		expected model.AuthorityTier
	}{
		{"primary", model.TierPrimary},
		{"PRIMARY", model.TierPrimary},
		{" 1 ", model.TierPrimary},
		{"secondary", model.TierSecondary},
		{"2", model.TierSecondary},
		{"tertiary", model.TierTertiary},
		{"3", model.TierTertiary},
		{"bogus", model.TierTertiary},
		{"", model.TierTertiary},
	}

	for _, tt := range tests {
		if result := ParseTier(tt.input); result != tt.expected {
			t.Errorf("ParseTier(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestNewAuthority_NilConfig(t *testing.T) {
	a := NewAuthority(nil)
	if a == nil {
		t.Fatal("Expected authority to be created with default config")
	}
	if len(a.primary) == 0 || len(a.secondary) == 0 {
		t.Error("Expected default domain lists to be loaded")
	}
}
