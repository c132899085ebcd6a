package testrun

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/pkg/logger"
)

// Constants for name perturbation cases.
const (
	caseVerbatim   = 0
	caseNoSuffix   = 1
	caseHyphenated = 2
	caseSwapped    = 3
	caseUppercased = 4
	caseShortName  = 5
	perturbDivisor = 6
)

// maxGoals is the exclusive upper bound for generated goal counts.
const maxGoals = 4

// Phantom pairing for the deliberately unpairable prediction. Alien enough
// that no pool club clears the matcher's threshold.
const (
	phantomHome = "Phantom Wanderers"
	phantomAway = "Mirage City"
)

// defaultSources is the roster of prediction sources a synthetic day covers.
var defaultSources = []string{ //nolint:gochecknoglobals // fixed roster, read-only
	"forebet", "predictz", "onemillion", "vitibet", "freesupertips", "oracle",
}

// perturbSuffixes are the organizational tokens the no-suffix perturbation
// may strip. Kept to tokens the engine's normalizer also drops, so stripping
// one cannot push a name outside the matcher's tolerance.
var perturbSuffixes = map[string]struct{}{ //nolint:gochecknoglobals // fixed token set, read-only
	"fc": {}, "cf": {}, "ac": {}, "as": {},
}

// club is one roster entry: the official name plus the short form feeds
// commonly print, empty when none is in common use.
type club struct {
	name  string
	short string
}

// clubPool is the roster synthetic fixtures draw from. Names carry the
// organizational suffixes and spellings real feeds disagree on.
var clubPool = []club{ //nolint:gochecknoglobals // fixed roster, read-only
	{"Arsenal FC", "Arsenal"},
	{"Chelsea FC", "Chelsea"},
	{"Liverpool FC", "Liverpool"},
	{"Everton FC", "Everton"},
	{"Manchester United FC", "Man United"},
	{"Manchester City FC", "Man City"},
	{"Newcastle United FC", "Newcastle"},
	{"Leeds United FC", "Leeds"},
	{"Aston Villa FC", "Aston Villa"},
	{"Tottenham Hotspur FC", "Spurs"},
	{"West Ham United FC", "West Ham"},
	{"Real Madrid CF", "Real Madrid"},
	{"FC Barcelona", "Barcelona"},
	{"Sevilla FC", "Sevilla"},
	{"Valencia CF", "Valencia"},
	{"AC Milan", "Milan"},
	{"Inter Milan", "Inter"},
	{"Juventus FC", "Juventus"},
	{"AS Roma", "Roma"},
	{"Bayern Munich", "Bayern"},
	{"Borussia Dortmund", "Dortmund"},
	{"FC Porto", "Porto"},
	{"SL Benfica", "Benfica"},
	{"Celtic FC", "Celtic"},
}

// generateDay builds the fixtures, predictions and expected verdicts for one
// synthetic day. The last fixture is generated without scores, one source
// bets on it, and another source bets on a pairing that exists nowhere in
// the results, so both unmatched paths are always exercised.
func generateDay(ctx context.Context, config *Config, stats *Stats) (*Day, error) {
	if config.Picks < 1 || config.Picks > MaxPicks {
		return nil, fmt.Errorf("picks must be between 1 and %d, got %d", MaxPicks, config.Picks)
	}
	if config.Fixtures <= config.Picks {
		return nil, fmt.Errorf("need more fixtures than picks, got %d fixtures for %d picks", config.Fixtures, config.Picks)
	}
	if config.Fixtures > len(clubPool)/2 {
		return nil, fmt.Errorf("at most %d fixtures, got %d", len(clubPool)/2, config.Fixtures)
	}

	logger.Get().Info(ctx, "generating synthetic day",
		logger.String("date", config.Date),
		logger.Int("fixtures", config.Fixtures),
		logger.Int("picks", config.Picks))

	day := &Day{
		Date:        config.Date,
		Sources:     defaultSources,
		Predictions: make(map[string][]model.Prediction, len(defaultSources)),
	}

	// Pair off a shuffled roster.
	order := shuffledInts(len(clubPool))
	for i := 0; i < config.Fixtures; i++ {
		home := clubPool[order[2*i]]
		away := clubPool[order[2*i+1]]
		fixture := model.MatchResult{
			HomeTeam:  home.name,
			AwayTeam:  away.name,
			ShortHome: home.short,
			ShortAway: away.short,
		}
		if i < config.Fixtures-1 {
			hs, as := randIndex(maxGoals), randIndex(maxGoals)
			fixture.HomeScore = &hs
			fixture.AwayScore = &as
		}
		day.Fixtures = append(day.Fixtures, fixture)
	}

	for si, source := range day.Sources {
		preds := make([]model.Prediction, 0, config.Picks)
		targets := shuffledInts(config.Fixtures - 1)[:config.Picks]
		for pi, idx := range targets {
			fixture := &day.Fixtures[idx]
			if si == 0 && pi == len(targets)-1 {
				// One pick lands on the scoreless fixture: it pairs
				// fine but can never be graded.
				fixture = &day.Fixtures[config.Fixtures-1]
			}

			pred, want := makePick(source, fixture)
			if si == 1 && pi == len(targets)-1 {
				// One pick names teams that exist nowhere in the
				// results, so pairing itself must fail.
				pred.HomeTeam, pred.AwayTeam = phantomHome, phantomAway
				want = model.StatusUnmatched
			}

			preds = append(preds, pred)
			day.Expectations = append(day.Expectations, Expectation{
				Source:   source,
				HomeTeam: pred.HomeTeam,
				AwayTeam: pred.AwayTeam,
				Call:     pred.Call,
				Want:     want,
			})
		}
		day.Predictions[source] = preds
	}

	stats.FixturesGenerated = len(day.Fixtures)
	for _, preds := range day.Predictions {
		stats.PredictionsGenerated += len(preds)
	}

	logger.Get().Info(ctx, "generated synthetic day",
		logger.Int("fixtures", stats.FixturesGenerated),
		logger.Int("predictions", stats.PredictionsGenerated))

	return day, nil
}

// makePick builds one prediction for the fixture with perturbed team names
// and a call whose verdict is known up front.
func makePick(source string, fixture *model.MatchResult) (model.Prediction, model.VerdictStatus) {
	pred := model.Prediction{
		Source:   source,
		HomeTeam: perturbName(fixture.HomeTeam, fixture.ShortHome),
		AwayTeam: perturbName(fixture.AwayTeam, fixture.ShortAway),
	}

	outcome := fixture.FinalOutcome()
	if outcome == model.OutcomeUnknown {
		// No derivable outcome, so the call cannot matter.
		pred.Call = model.OutcomeHome
		return pred, model.StatusUnmatched
	}

	if randIndex(2) == 0 {
		pred.Call = outcome
		return pred, model.StatusCorrect
	}
	pred.Call = wrongCall(outcome)
	return pred, model.StatusIncorrect
}

// wrongCall returns one of the two outcomes that differ from the real one.
func wrongCall(outcome model.Outcome) model.Outcome {
	others := make([]model.Outcome, 0, 2)
	for _, o := range []model.Outcome{model.OutcomeHome, model.OutcomeDraw, model.OutcomeAway} {
		if o != outcome {
			others = append(others, o)
		}
	}
	return others[randIndex(len(others))]
}

// perturbName rewrites a team name the way a scraped site might print it.
// Every rewrite stays inside the matcher's tolerance, so the prediction is
// guaranteed to pair with its own fixture.
func perturbName(name, short string) string {
	switch randIndex(perturbDivisor) {
	case caseNoSuffix:
		return dropOrgTokens(name)
	case caseHyphenated:
		return strings.ReplaceAll(name, " ", "-")
	case caseSwapped:
		return reverseTokens(name)
	case caseUppercased:
		return strings.ToUpper(name)
	case caseShortName:
		if short != "" {
			return short
		}
		return name
	case caseVerbatim:
		return name
	default:
		return name
	}
}

// dropOrgTokens strips organizational suffix tokens while keeping the
// casing of what remains.
func dropOrgTokens(name string) string {
	fields := strings.Fields(name)
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := perturbSuffixes[strings.ToLower(f)]; drop {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return name
	}
	return strings.Join(kept, " ")
}

// reverseTokens reverses the word order of a name.
func reverseTokens(name string) string {
	fields := strings.Fields(name)
	for i, j := 0, len(fields)-1; i < j; i, j = i+1, j-1 {
		fields[i], fields[j] = fields[j], fields[i]
	}
	return strings.Join(fields, " ")
}

// randIndex returns a uniform random index in [0, n) using crypto/rand.
func randIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// shuffledInts returns the integers 0..n-1 in random order.
func shuffledInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := randIndex(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
