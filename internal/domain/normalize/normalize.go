// Package normalize canonicalizes team names ahead of fuzzy matching.
//
// Canonical form: lowercase, hyphens and underscores folded to spaces,
// organizational suffix tokens (fc, cf, sc, ...) dropped as whole words,
// whitespace collapsed and trimmed. Normalization is pure and idempotent:
// normalizing an already-normalized name returns it unchanged.
package normalize

import "strings"

// defaultSuffixes are the organizational tokens dropped during
// normalization. Overridable via WithSuffixes.
var defaultSuffixes = []string{ //nolint:gochecknoglobals // package default, copied into each Normalizer
	"fc", "cf", "sc", "ac", "rc", "bv", "sv", "vv", "if", "fk",
	"sk", "uk", "as", "ss", "us", "cd", "sd", "rcd", "ud",
}

// separators folds the word separators sources disagree on into spaces.
var separators = strings.NewReplacer("-", " ", "_", " ") //nolint:gochecknoglobals // stateless, safe for concurrent use

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithSuffixes replaces the default suffix token set. Tokens are matched
// lowercase as whole words; empty tokens are ignored.
func WithSuffixes(tokens []string) Option {
	return func(n *Normalizer) {
		n.suffixes = make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			n.suffixes[t] = struct{}{}
		}
	}
}

// Normalizer canonicalizes team names. Safe for concurrent use once built.
type Normalizer struct {
	suffixes map[string]struct{}
}

// New creates a Normalizer with configuration options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	WithSuffixes(defaultSuffixes)(n)

	// Apply all options
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize returns the canonical form of a team name.
func (n *Normalizer) Normalize(name string) string {
	lowered := separators.Replace(strings.ToLower(name))

	fields := strings.Fields(lowered)
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := n.suffixes[f]; drop {
			continue
		}
		kept = append(kept, f)
	}

	return strings.Join(kept, " ")
}
