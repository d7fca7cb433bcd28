package emotion

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Term is a lexicon entry
type Term struct {
	Term    string  `yaml:"term"`
	Emotion string  `yaml:"emotion"`
	Weight  float64 `yaml:"weight"`
	Valence float64 `yaml:"valence"`
}

// Lexicon is a versioned, immutable emotion lexicon
type Lexicon struct {
	Version             string  `yaml:"version"`
	HighChargeThreshold float64 `yaml:"high_charge_threshold"`
	Terms               []Term  `yaml:"terms"`

	index map[string]Term // Case-folded term -> entry
}

// ParseLexicon decodes and validates a YAML lexicon
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.build(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// LoadLexicon reads a lexicon from disk
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lex, nil
}

// DefaultLexicon returns the embedded lexicon
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexiconYAML)
}

// Lookup returns the entry for a word, matching case-insensitively
func (l *Lexicon) Lookup(word string) (Term, bool) {
	t, ok := l.index[cases.Fold().String(word)]
	return t, ok
}

func (l *Lexicon) build() error {
	if l.Version == "" {
		return fmt.Errorf("lexicon: missing version")
	}
	if l.HighChargeThreshold <= 0 || l.HighChargeThreshold >= 1 {
		return fmt.Errorf("lexicon: high_charge_threshold %.2f outside (0, 1)", l.HighChargeThreshold)
	}

	fold := cases.Fold()
	l.index = make(map[string]Term, len(l.Terms))
	for i, t := range l.Terms {
		if t.Term == "" || len(strings.Fields(t.Term)) != 1 {
			return fmt.Errorf("term %d: must be a single word", i)
		}
		if t.Emotion == "" {
			return fmt.Errorf("term %s: missing emotion", t.Term)
		}
		if t.Weight <= 0 || t.Weight > 1 {
			return fmt.Errorf("term %s: weight %.2f outside (0, 1]", t.Term, t.Weight)
		}
		if t.Valence < -1 || t.Valence > 1 {
			return fmt.Errorf("term %s: valence %.2f outside [-1, 1]", t.Term, t.Valence)
		}
		key := fold.String(t.Term)
		if _, dup := l.index[key]; dup {
			return fmt.Errorf("term %s: duplicate entry", t.Term)
		}
		l.index[key] = t
	}
	return nil
}
