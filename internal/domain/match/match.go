// Package match pairs predictions with official results by fuzzy team-name
// similarity.
package match

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/normalize"
)

// DefaultThreshold is the minimum combined similarity (0-100) accepted as a
// pairing.
const DefaultThreshold = 80

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithThreshold sets the acceptance threshold. Values outside [0, 100] are
// ignored.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold >= 0 && threshold <= 100 {
			m.threshold = threshold
		}
	}
}

// WithNormalizer sets the team-name normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(m *Matcher) {
		if n != nil {
			m.normalizer = n
		}
	}
}

// WithObserver registers a callback invoked once per Find with the best
// combined score and whether it cleared the threshold. Callers use it to
// feed metrics without coupling this package to the metrics layer.
func WithObserver(fn func(combined float64, accepted bool)) Option {
	return func(m *Matcher) {
		m.observer = fn
	}
}

// Matcher pairs a prediction's team names with the closest official result.
// Safe for concurrent use once built.
type Matcher struct {
	threshold  float64
	normalizer *normalize.Normalizer
	metric     *metrics.Levenshtein
	observer   func(combined float64, accepted bool)
}

// New creates a Matcher with configuration options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		threshold:  DefaultThreshold,
		normalizer: normalize.New(),
		metric:     metrics.NewLevenshtein(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Similarity returns the token-sort similarity of two team names on a 0-100
// scale: both names are normalized, their words sorted and rejoined, then
// compared by normalized Levenshtein distance. Identical names score 100.
func (m *Matcher) Similarity(a, b string) float64 {
	return strutil.Similarity(m.tokenSort(a), m.tokenSort(b), m.metric) * 100
}

// Find returns the index of the best-scoring result for the prediction's
// team pair and whether that score clears the threshold. Each result is
// tried across its long and short name variants and scored by the mean of
// the home and away similarities. Candidates only replace the running best
// on a strictly greater score, so the earliest of equal-scoring results
// wins. Returns (-1, false) when nothing clears the threshold.
func (m *Matcher) Find(predHome, predAway string, results []model.MatchResult) (int, bool) {
	best := -1
	bestScore := 0.0

	for i := range results {
		if score := m.score(predHome, predAway, &results[i]); score > bestScore {
			best = i
			bestScore = score
		}
	}

	accepted := best >= 0 && bestScore >= m.threshold
	if m.observer != nil {
		m.observer(bestScore, accepted)
	}
	if !accepted {
		return -1, false
	}
	return best, true
}

// score computes the best combined similarity between the prediction's team
// pair and one result across its name variants.
func (m *Matcher) score(predHome, predAway string, r *model.MatchResult) float64 {
	best := 0.0
	for _, home := range variants(r.HomeTeam, r.ShortHome) {
		homeScore := m.Similarity(predHome, home)
		for _, away := range variants(r.AwayTeam, r.ShortAway) {
			combined := (homeScore + m.Similarity(predAway, away)) / 2
			if combined > best {
				best = combined
			}
		}
	}
	return best
}

// tokenSort normalizes a name and rewrites it with its words in sorted
// order, making the comparison insensitive to word order.
func (m *Matcher) tokenSort(name string) string {
	words := strings.Fields(m.normalizer.Normalize(name))
	sort.Strings(words)
	return strings.Join(words, " ")
}

// variants returns the non-empty name variants in preference order.
func variants(long, short string) []string {
	out := make([]string, 0, 2)
	if long != "" {
		out = append(out, long)
	}
	if short != "" {
		out = append(out, short)
	}
	return out
}
