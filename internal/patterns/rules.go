package patterns

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Well-known rule categories
const (
	CategorySensationalism        = "sensationalism"
	CategoryExcessiveCaps         = "excessive-caps"
	CategoryVagueSource           = "vague-source"
	CategoryConspiracy            = "conspiracy-framing"
	CategoryFalseUrgency          = "false-urgency"
	CategoryEmotionalManipulation = "emotional-manipulation"
	CategoryExtremeLanguage       = "extreme-language"
	CategoryClickbait             = "clickbait"
	CategoryUnverifiableStatistic = "unverifiable-statistic"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rule is one rhetoric pattern
type Rule struct {
	ID          string  `yaml:"id"`
	Category    string  `yaml:"category"`
	Severity    float64 `yaml:"severity"`
	Pattern     string  `yaml:"pattern"`
	Description string  `yaml:"description,omitempty"`

	re *regexp.Regexp
}

// RuleTable is a versioned, immutable set of rules
type RuleTable struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// ParseRules decodes and validates a YAML rule table
func ParseRules(data []byte) (*RuleTable, error) {
	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if err := table.compile(); err != nil {
		return nil, err
	}
	return &table, nil
}

// LoadRules reads a rule table from disk
func LoadRules(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}
	table, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// DefaultRules returns the embedded rule table
func DefaultRules() (*RuleTable, error) {
	return ParseRules(defaultRulesYAML)
}

// compile validates every rule and compiles its pattern
func (t *RuleTable) compile() error {
	if t.Version == "" {
		return fmt.Errorf("rule table: missing version")
	}
	if len(t.Rules) == 0 {
		return fmt.Errorf("rule table: no rules")
	}

	seen := make(map[string]bool, len(t.Rules))
	for i := range t.Rules {
		r := &t.Rules[i]
		if r.ID == "" {
			return fmt.Errorf("rule %d: missing id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("rule %s: duplicate id", r.ID)
		}
		seen[r.ID] = true

		if r.Category == "" {
			return fmt.Errorf("rule %s: missing category", r.ID)
		}
		if r.Severity <= 0 || r.Severity > 1 {
			return fmt.Errorf("rule %s: severity %.2f outside (0, 1]", r.ID, r.Severity)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: compile pattern: %w", r.ID, err)
		}
		r.re = re
	}
	return nil
}
