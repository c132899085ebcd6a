// Package leaderboard rebuilds the historical per-source accuracy table.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/pitchside/tally/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// noData is the sort key for rows without a single graded verdict; it sits
// below any real average, 0% included.
const noData = -1

// noDataCell is the rendered form of an empty cell or average.
const noDataCell = "—"

// defaultSources is the source order used when no option overrides it.
var defaultSources = []string{ //nolint:gochecknoglobals // package default, copied into each Aggregator
	"forebet", "predictz", "onemillion", "vitibet", "freesupertips", "oracle",
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithSources sets the configured source order. Rows keep this order on
// tied averages and verdicts from unlisted sources are skipped.
func WithSources(sources []string) Option {
	return func(a *Aggregator) {
		if len(sources) > 0 {
			a.sources = append([]string(nil), sources...)
		}
	}
}

// Cell is one source's accuracy on one date.
type Cell struct {
	Pct     float64 // correct/total on a 0-100 scale
	HasData bool    // false when the source had no graded verdicts that date
}

// Row is one source's line in the table. Cells align with Table.Dates.
// Average keeps full precision; rendering rounds it.
type Row struct {
	Source  string
	Cells   []Cell
	Average float64
	HasData bool
}

// sortKey orders rows for ranking. Rows without data rank below any
// numeric average.
func (r Row) sortKey() float64 {
	if !r.HasData {
		return noData
	}
	return r.Average
}

// Table is the rebuilt leaderboard: one column per date with at least one
// verdict, one row per configured source, ranked by average descending.
type Table struct {
	Dates []string
	Rows  []Row
}

// Header returns the rendered header: Site, one column per date, Average.
func (t Table) Header() []string {
	header := make([]string, 0, len(t.Dates)+2)
	header = append(header, "Site")
	header = append(header, t.Dates...)
	header = append(header, "Average")
	return header
}

// Records returns the rendered body rows matching Header's layout. Daily
// cells round to whole percent, averages to one decimal; cells without
// data render as a dash.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Cells)+2)
		rec = append(rec, row.Source)
		for _, cell := range row.Cells {
			if !cell.HasData {
				rec = append(rec, noDataCell)
				continue
			}
			rec = append(rec, fmt.Sprintf("%.0f%%", cell.Pct))
		}
		if row.HasData {
			rec = append(rec, fmt.Sprintf("%.1f%%", row.Average))
		} else {
			rec = append(rec, noDataCell)
		}
		records = append(records, rec)
	}
	return records
}

// Aggregator rebuilds the table from verdict history. Safe for concurrent
// use once built.
type Aggregator struct {
	sources []string
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: defaultSources,
	}

	// Apply all options
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Rebuild computes the table from the full verdict history. There is no
// incremental path: callers pass the complete history on every call and the
// table is derived from scratch, so a corrected ledger always wins.
func (a *Aggregator) Rebuild(history []model.Verdict) Table {
	type key struct {
		date   string
		source string
	}
	type tally struct {
		total   int
		correct int
	}

	known := make(map[string]struct{}, len(a.sources))
	for _, s := range a.sources {
		known[s] = struct{}{}
	}

	counts := make(map[key]*tally)
	dateSet := make(map[string]struct{})

	for _, v := range history {
		if _, ok := known[v.Source]; !ok {
			continue
		}
		dateSet[v.Date] = struct{}{}

		// Unmatched verdicts claim the date column but grade nothing.
		if v.Status == model.StatusUnmatched {
			continue
		}

		k := key{date: v.Date, source: v.Source}
		t := counts[k]
		if t == nil {
			t = &tally{}
			counts[k] = t
		}
		t.total++
		if v.Status == model.StatusCorrect {
			t.correct++
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([]Row, 0, len(a.sources))
	for _, src := range a.sources {
		row := Row{Source: src, Cells: make([]Cell, len(dates))}
		var pcts []float64
		for i, d := range dates {
			t, ok := counts[key{date: d, source: src}]
			if !ok || t.total == 0 {
				continue
			}
			pct := float64(t.correct) / float64(t.total) * 100
			row.Cells[i] = Cell{Pct: pct, HasData: true}
			pcts = append(pcts, pct)
		}
		if len(pcts) > 0 {
			row.Average = stat.Mean(pcts, nil)
			row.HasData = true
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].sortKey() > rows[j].sortKey()
	})

	return Table{Dates: dates, Rows: rows}
}
