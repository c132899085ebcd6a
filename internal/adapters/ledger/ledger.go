// Package ledger maintains the historical prediction record as CSV flat
// files.
//
// ledger.csv holds one row per collected prediction: the morning run appends
// prediction rows with empty Result/Correct cells, the evening run fills
// them in place. A source whose morning fetch failed leaves a block of
// marker rows so the gap stays visible in the record. leaderboard.csv is a
// rendered view, rewritten whole on every rebuild.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pitchside/tally/internal/domain/leaderboard"
	"github.com/pitchside/tally/internal/domain/model"
)

const (
	ledgerFile      = "ledger.csv"
	leaderboardFile = "leaderboard.csv"

	// ScrapeFailedMarker sits in the Home Team cell of marker rows.
	ScrapeFailedMarker = "SCRAPE_FAILED"

	// markerRows is the size of a failed source's marker block, matching
	// the cap on real picks so failures occupy the same space.
	markerRows = 5

	// maxRowsPerSource caps a source's morning block.
	maxRowsPerSource = 5

	dirPerm = 0o755
)

// Column layout of ledger.csv.
var ledgerHeaders = []string{"Date", "Site", "Home Team", "Away Team", "Prediction", "Result", "Correct"} //nolint:gochecknoglobals // fixed schema

const (
	colDate = iota
	colSite
	colHome
	colAway
	colPrediction
	colResult
	colCorrect
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithDir sets the directory the CSV files live in.
func WithDir(dir string) Option {
	return func(l *Ledger) {
		if dir != "" {
			l.dir = dir
		}
	}
}

// Ledger is the CSV-backed prediction record. Safe for concurrent use; all
// file access is serialized.
type Ledger struct {
	mu  sync.Mutex
	dir string
}

// New creates a Ledger with configuration options.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		dir: "./data",
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// RecordPredictions appends one source's morning block with empty Result
// and Correct cells.
func (l *Ledger) RecordPredictions(ctx context.Context, date, source string, preds []model.Prediction) error {
	if date == "" || source == "" {
		return fmt.Errorf("%w: prediction rows need date and source", ErrInvalidRow)
	}
	if len(preds) > maxRowsPerSource {
		preds = preds[:maxRowsPerSource]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load()
	if err != nil {
		return err
	}
	for _, p := range preds {
		rows = append(rows, []string{date, source, p.HomeTeam, p.AwayTeam, p.Call.Code(), "", ""})
	}
	return l.save(rows)
}

// RecordFailure appends the marker block for a source whose morning fetch
// produced nothing.
func (l *Ledger) RecordFailure(ctx context.Context, date, source string) error {
	if date == "" || source == "" {
		return fmt.Errorf("%w: marker rows need date and source", ErrInvalidRow)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load()
	if err != nil {
		return err
	}
	for i := 0; i < markerRows; i++ {
		rows = append(rows, []string{date, source, ScrapeFailedMarker, "", "", "", ""})
	}
	return l.save(rows)
}

// ApplyVerdicts fills Result and Correct on the matching prediction rows,
// keyed by (date, source, home, away) with the first occurrence winning.
// Verdicts without a matching row are skipped. Returns the number of rows
// updated.
func (l *Ledger) ApplyVerdicts(ctx context.Context, date string, verdicts []model.Verdict) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load()
	if err != nil {
		return 0, err
	}

	type rowKey struct {
		date, source, home, away string
	}
	lookup := make(map[rowKey]int, len(rows))
	for i, row := range rows {
		if len(row) <= colCorrect {
			continue
		}
		k := rowKey{date: row[colDate], source: row[colSite], home: row[colHome], away: row[colAway]}
		if _, exists := lookup[k]; !exists {
			lookup[k] = i
		}
	}

	updated := 0
	for _, v := range verdicts {
		i, ok := lookup[rowKey{date: date, source: v.Source, home: v.HomeTeam, away: v.AwayTeam}]
		if !ok {
			continue
		}
		rows[i][colResult] = resultCell(v)
		rows[i][colCorrect] = v.Status.Code()
		updated++
	}

	if err := l.save(rows); err != nil {
		return 0, err
	}
	return updated, nil
}

// History reads the ledger back as scored verdicts for leaderboard
// rebuilds. Marker blocks and rows the evening run has not graded yet are
// skipped.
func (l *Ledger) History(ctx context.Context) ([]model.Verdict, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load()
	if err != nil {
		return nil, err
	}

	verdicts := make([]model.Verdict, 0, len(rows))
	for _, row := range rows {
		if len(row) <= colCorrect {
			continue
		}
		if row[colDate] == "" || row[colHome] == ScrapeFailedMarker {
			continue
		}
		status, ok := model.ParseVerdictStatus(row[colCorrect])
		if !ok {
			continue // pending or malformed row
		}

		call, _ := model.ParseOutcome(row[colPrediction])
		result, _ := model.ParseOutcome(row[colResult])
		verdicts = append(verdicts, model.Verdict{
			Date:     row[colDate],
			Source:   row[colSite],
			HomeTeam: row[colHome],
			AwayTeam: row[colAway],
			Call:     call,
			Result:   result,
			Status:   status,
		})
	}
	return verdicts, nil
}

// Count reports the number of data rows in the ledger.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.load()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WriteLeaderboard renders the table to leaderboard.csv, replacing any
// previous rendering.
func (l *Ledger) WriteLeaderboard(ctx context.Context, table leaderboard.Table) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([][]string, 0, len(table.Rows)+1)
	records = append(records, table.Header())
	records = append(records, table.Records()...)
	return l.writeCSV(leaderboardFile, records)
}

// resultCell renders a verdict's Result column the way the scores snapshot
// does: unmatched predictions show the marker, graded ones the 1X2 code.
func resultCell(v model.Verdict) string {
	if v.Status == model.StatusUnmatched {
		return model.StatusUnmatched.Code()
	}
	return v.Result.Code()
}

// load reads the ledger's data rows, without the header. A missing file is
// an empty ledger.
func (l *Ledger) load() ([][]string, error) {
	f, err := os.Open(filepath.Join(l.dir, ledgerFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// save atomically rewrites the ledger with its header and the given rows.
func (l *Ledger) save(rows [][]string) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, ledgerHeaders)
	records = append(records, rows...)
	return l.writeCSV(ledgerFile, records)
}

// writeCSV writes records to a temp file and renames it into place.
func (l *Ledger) writeCSV(name string, records [][]string) error {
	if err := os.MkdirAll(l.dir, dirPerm); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
