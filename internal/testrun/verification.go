package testrun

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/types"
)

// verifyVerdicts checks every expected verdict against the published scores
// snapshot, then cross-checks the per-source summaries.
func verifyVerdicts(day *Day, doc snapshot.ScoresDoc, stats *Stats) error {
	log.Printf("🔍 Verifying %d expected verdicts...", len(day.Expectations))

	before := stats.VerdictMismatches

	type key struct{ source, home, away string }
	details := make(map[key]snapshot.DetailRec, len(doc.Details))
	for _, rec := range doc.Details {
		details[key{rec.SourceID, rec.HomeTeam, rec.AwayTeam}] = rec
	}

	for _, want := range day.Expectations {
		stats.VerdictsChecked++
		rec, ok := details[key{want.Source, want.HomeTeam, want.AwayTeam}]
		if !ok {
			stats.VerdictMismatches++
			log.Printf("⚠️ No verdict published for expectation:\n%s", spew.Sdump(want))
			continue
		}
		if rec.Correct != want.Want.Code() || rec.Prediction != want.Call.Code() {
			stats.VerdictMismatches++
			log.Printf("⚠️ Verdict mismatch:\nexpected:\n%sgot:\n%s", spew.Sdump(want), spew.Sdump(rec))
		}
	}

	// Summaries must agree with counts derived from the expectations.
	for _, source := range day.Sources {
		var want snapshot.SummaryRec
		for _, e := range day.Expectations {
			if e.Source != source {
				continue
			}
			switch e.Want {
			case model.StatusCorrect:
				want.Total++
				want.Correct++
			case model.StatusIncorrect:
				want.Total++
			case model.StatusUnmatched:
				want.Unmatched++
			}
		}
		stats.VerdictsChecked++
		if got := doc.Summary[source]; got != want {
			stats.VerdictMismatches++
			log.Printf("⚠️ Summary mismatch for %s:\nexpected:\n%sgot:\n%s",
				source, spew.Sdump(want), spew.Sdump(got))
		}
	}

	if n := stats.VerdictMismatches - before; n > 0 {
		return fmt.Errorf("%d verdict mismatches", n)
	}

	log.Printf("✅ All %d verdicts match their expectations", len(day.Expectations))
	return nil
}

// cellPair is one source's expected rendered cells.
type cellPair struct {
	day     string
	average string
}

// expectedCells derives each source's expected cells from its summary. With
// a single graded day the average equals the day's percentage.
func expectedCells(day *Day, doc snapshot.ScoresDoc) map[string]cellPair {
	out := make(map[string]cellPair, len(day.Sources))
	for _, source := range day.Sources {
		sum := doc.Summary[source]
		if sum.Total == 0 {
			out[source] = cellPair{day: noCell, average: noCell}
			continue
		}
		pct := float64(sum.Correct) / float64(sum.Total) * percentBase
		out[source] = cellPair{
			day:     fmt.Sprintf("%.0f%%", pct),
			average: fmt.Sprintf("%.1f%%", pct),
		}
	}
	return out
}

// verifyLeaderboard checks the published table cell by cell against values
// recomputed from the scores snapshot.
func verifyLeaderboard(day *Day, doc snapshot.ScoresDoc, view types.LeaderboardView, stats *Stats) error {
	log.Println("🏆 Verifying leaderboard...")

	before := stats.CellMismatches

	wantHeader := []string{"Site", day.Date, "Average"}
	stats.CellsChecked++
	if !equalStrings(view.Header, wantHeader) {
		stats.CellMismatches++
		log.Printf("⚠️ Leaderboard header mismatch:\nexpected:\n%sgot:\n%s",
			spew.Sdump(wantHeader), spew.Sdump(view.Header))
	}

	stats.CellsChecked++
	if len(view.Rows) != len(day.Sources) {
		stats.CellMismatches++
		log.Printf("⚠️ Leaderboard has %d rows, expected %d:\n%s",
			len(view.Rows), len(day.Sources), spew.Sdump(view.Rows))
	}

	expected := expectedCells(day, doc)
	for _, row := range view.Rows {
		stats.CellsChecked++
		if len(row) != len(wantHeader) {
			stats.CellMismatches++
			log.Printf("⚠️ Leaderboard row has %d cells, expected %d:\n%s",
				len(row), len(wantHeader), spew.Sdump(row))
			continue
		}
		want, ok := expected[row[0]]
		if !ok {
			stats.CellMismatches++
			log.Printf("⚠️ Leaderboard row for unexpected source:\n%s", spew.Sdump(row))
			continue
		}
		stats.CellsChecked += 2
		if row[1] != want.day {
			stats.CellMismatches++
			log.Printf("⚠️ Day cell mismatch for %s: expected %q, got %q", row[0], want.day, row[1])
		}
		if row[2] != want.average {
			stats.CellMismatches++
			log.Printf("⚠️ Average cell mismatch for %s: expected %q, got %q", row[0], want.average, row[2])
		}
	}

	verifyRowOrder(view, stats)

	if n := stats.CellMismatches - before; n > 0 {
		return fmt.Errorf("%d leaderboard mismatches", n)
	}

	log.Printf("✅ Leaderboard matches across %d rows", len(view.Rows))
	return nil
}

// verifyScoresConsistency cross-checks a scores snapshot against itself:
// detail codes must be well formed, each detail's correctness must follow
// from its call and result, and summary counters must add up.
func verifyScoresConsistency(doc snapshot.ScoresDoc, stats *Stats) error {
	log.Println("🔍 Verifying scores consistency...")

	before := stats.VerdictMismatches

	counts := make(map[string]snapshot.SummaryRec, len(doc.Summary))
	for _, rec := range doc.Details {
		stats.VerdictsChecked++
		c := counts[rec.SourceID]
		switch rec.Correct {
		case model.StatusCorrect.Code():
			c.Total++
			c.Correct++
			if rec.Prediction != rec.Result {
				stats.VerdictMismatches++
				log.Printf("⚠️ Correct verdict whose call and result differ:\n%s", spew.Sdump(rec))
			}
		case model.StatusIncorrect.Code():
			c.Total++
			if rec.Prediction == rec.Result {
				stats.VerdictMismatches++
				log.Printf("⚠️ Incorrect verdict whose call and result agree:\n%s", spew.Sdump(rec))
			}
		case model.StatusUnmatched.Code():
			c.Unmatched++
			if rec.Result != model.StatusUnmatched.Code() {
				stats.VerdictMismatches++
				log.Printf("⚠️ Unmatched verdict carrying a result:\n%s", spew.Sdump(rec))
			}
		default:
			stats.VerdictMismatches++
			log.Printf("⚠️ Unknown correctness code:\n%s", spew.Sdump(rec))
		}
		counts[rec.SourceID] = c
	}

	for source, want := range counts {
		stats.VerdictsChecked++
		if got := doc.Summary[source]; got != want {
			stats.VerdictMismatches++
			log.Printf("⚠️ Summary for %s disagrees with its details:\nexpected:\n%sgot:\n%s",
				source, spew.Sdump(want), spew.Sdump(got))
		}
	}
	for source, got := range doc.Summary {
		if _, ok := counts[source]; ok {
			continue
		}
		stats.VerdictsChecked++
		if got != (snapshot.SummaryRec{}) {
			stats.VerdictMismatches++
			log.Printf("⚠️ Summary for %s counts predictions missing from details:\n%s",
				source, spew.Sdump(got))
		}
	}

	if n := stats.VerdictMismatches - before; n > 0 {
		return fmt.Errorf("%d scores inconsistencies", n)
	}

	log.Printf("✅ Scores are consistent across %d predictions", len(doc.Details))
	return nil
}

// verifyLeaderboardShape checks the published table is well formed: a
// header framed by Site and Average, rectangular rows whose cells parse,
// and rows ranked by non-increasing average.
func verifyLeaderboardShape(view types.LeaderboardView, stats *Stats) error {
	log.Println("🏆 Verifying leaderboard shape...")

	before := stats.CellMismatches

	stats.CellsChecked++
	if len(view.Header) < 2 || view.Header[0] != "Site" || view.Header[len(view.Header)-1] != "Average" {
		stats.CellMismatches++
		log.Printf("⚠️ Malformed leaderboard header:\n%s", spew.Sdump(view.Header))
	}

	for _, row := range view.Rows {
		stats.CellsChecked++
		if len(row) != len(view.Header) {
			stats.CellMismatches++
			log.Printf("⚠️ Row width %d does not match header width %d:\n%s",
				len(row), len(view.Header), spew.Sdump(row))
			continue
		}
		for _, cell := range row[1:] {
			stats.CellsChecked++
			if cell != noCell && parseAverage(cell) == noAverage {
				stats.CellMismatches++
				log.Printf("⚠️ Unparseable cell %q in row for %s", cell, row[0])
			}
		}
	}

	verifyRowOrder(view, stats)

	if n := stats.CellMismatches - before; n > 0 {
		return fmt.Errorf("%d leaderboard problems", n)
	}

	log.Printf("✅ Leaderboard is well formed with %d rows", len(view.Rows))
	return nil
}

// verifyRowOrder checks rows are ranked by non-increasing average, with the
// no-data dash below every real average.
func verifyRowOrder(view types.LeaderboardView, stats *Stats) {
	var prev float64
	for i, row := range view.Rows {
		if len(row) < 2 {
			continue
		}
		avg := parseAverage(row[len(row)-1])
		if i > 0 {
			stats.CellsChecked++
			if avg > prev {
				stats.CellMismatches++
				log.Printf("⚠️ Leaderboard not sorted: row %d outranks row %d", i+1, i)
			}
		}
		prev = avg
	}
}

// displayStandings prints the ranked table.
func displayStandings(view types.LeaderboardView) {
	if len(view.Rows) == 0 {
		return
	}

	log.Printf("🏆 Final standings:")
	for i, row := range view.Rows {
		if len(row) < 2 {
			continue
		}
		log.Printf("   %d. %s - Average: %s", i+1, row[0], row[len(row)-1])
	}
}

// parseAverage converts a rendered percentage cell back to its number. The
// no-data dash and anything unparseable rank below every real average.
func parseAverage(cell string) float64 {
	if cell == noCell {
		return noAverage
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(cell, "%"), 64)
	if err != nil {
		return noAverage
	}
	return v
}

// equalStrings reports whether two string slices match exactly.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
