package source

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Authority assigns an authority tier to an article source.
// The tier is provenance metadata for readers; it never feeds the score.
type Authority struct {
	domainMap    map[string]model.AuthorityTier
	primary      []string
	secondary    []string
	pathPatterns []pathPattern
}

type pathPattern struct {
	re   *regexp.Regexp
	tier model.AuthorityTier
}

// NewAuthority builds a classifier from configuration. A nil config uses the defaults.
// Path patterns that fail to compile are skipped.
func NewAuthority(cfg *model.AuthorityConfig) *Authority {
	if cfg == nil {
		cfg = &model.DefaultConfig().Authority
	}

	a := &Authority{
		domainMap: make(map[string]model.AuthorityTier, len(cfg.DomainMap)),
		primary:   normalizeDomains(cfg.PrimaryDomains),
		secondary: normalizeDomains(cfg.SecondaryDomains),
	}

	for host, tier := range cfg.DomainMap {
		a.domainMap[strings.ToLower(host)] = ParseTier(tier)
	}

	for _, p := range cfg.PathPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		a.pathPatterns = append(a.pathPatterns, pathPattern{re: re, tier: ParseTier(p.Tier)})
	}

	return a
}

// Tier classifies a source. Sources may be URLs, bare hosts ("reuters.com")
// or outlet names; anything without a recognizable host is TierUnknown.
func (a *Authority) Tier(src string) model.AuthorityTier {
	host, path, ok := splitSource(src)
	if !ok {
		return model.TierUnknown
	}

	if tier, found := a.domainMap[host]; found {
		return tier
	}
	if matchesDomain(host, a.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return model.TierSecondary
	}

	for _, p := range a.pathPatterns {
		if p.re.MatchString(path) {
			return p.tier
		}
	}

	// Government and academic hosts
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

// Annotate sets the authority tier on each citation
func (a *Authority) Annotate(citations []model.Citation) []model.Citation {
	for i := range citations {
		citations[i].Authority = a.Tier(citations[i].URL)
	}
	return citations
}

// ParseTier converts a tier name or number to an AuthorityTier
func ParseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}

// splitSource extracts a lower-case host (without port or "www.") and path
func splitSource(src string) (host, path string, ok bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", "", false
	}

	raw := src
	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, " \t") || !strings.Contains(raw, ".") {
			return "", "", false
		}
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return "", "", false
	}

	host = strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return host, parsed.Path, true
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}
