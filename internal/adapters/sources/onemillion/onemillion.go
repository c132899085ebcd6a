// Package onemillion scrapes 1X2 predictions from
// onemillionpredictions.com.
//
// The site publishes odds rather than an outright tip. Rows are a Ninja
// Table with cells td.ninja_clmn_nm_teams (home and away split by a <br>)
// and td.ninja_clmn_nm_1/_x/_2 holding the decimal odds. The pick is the
// column with the lowest odds; ties prefer home, then draw.
package onemillion

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pitchside/tally/internal/adapters/sources"
	"github.com/pitchside/tally/internal/domain/model"
)

const (
	siteName = "onemillion"
	siteURL  = "https://onemillionpredictions.com/"
	maxPicks = 5
)

// Fetcher fetches a page body.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Option applies a configuration option to the Scraper.
type Option func(*Scraper)

// WithURL overrides the page URL, mainly for tests.
func WithURL(u string) Option {
	return func(s *Scraper) {
		if u != "" {
			s.url = u
		}
	}
}

// Scraper collects onemillion's implied picks.
type Scraper struct {
	client Fetcher
	url    string
}

// New creates an onemillion scraper with configuration options.
func New(client Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		client: client,
		url:    siteURL,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the source identifier.
func (s *Scraper) Name() string { return siteName }

// Fetch loads the front page and returns up to five picks.
func (s *Scraper) Fetch(ctx context.Context) ([]model.Prediction, error) {
	page, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}

	preds, err := parse(page)
	if err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: %s", sources.ErrNoPredictions, siteName)
	}
	if len(preds) > maxPicks {
		preds = preds[:maxPicks]
	}
	return preds, nil
}

// parse extracts predictions from the page. League separator rows carry no
// numeric odds and are dropped, as is any row missing one of the four
// cells.
func parse(page []byte) ([]model.Prediction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", siteName, err)
	}

	var preds []model.Prediction
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		teamsCell := row.Find("td.ninja_clmn_nm_teams").First()
		homeOdds := row.Find("td.ninja_clmn_nm_1").First()
		drawOdds := row.Find("td.ninja_clmn_nm_x").First()
		awayOdds := row.Find("td.ninja_clmn_nm_2").First()
		if teamsCell.Length() == 0 || homeOdds.Length() == 0 || drawOdds.Length() == 0 || awayOdds.Length() == 0 {
			return
		}

		teams := cellLines(teamsCell)
		if len(teams) < 2 {
			return
		}

		call, ok := pickFromOdds(homeOdds.Text(), drawOdds.Text(), awayOdds.Text())
		if !ok {
			return
		}

		preds = append(preds, model.Prediction{
			Source:   siteName,
			HomeTeam: teams[0],
			AwayTeam: teams[1],
			Call:     call,
		})
	})
	return preds, nil
}

// cellLines splits a cell's text on its <br> tags. goquery's Text flattens
// the cell without separators, so the node tree is walked instead.
func cellLines(cell *goquery.Selection) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	cell.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "br" {
			flush()
			return
		}
		current.WriteString(node.Text())
	})
	flush()

	return lines
}

// pickFromOdds returns the outcome with the lowest decimal odds. Any
// unparseable cell disqualifies the row.
func pickFromOdds(home, draw, away string) (model.Outcome, bool) {
	o1, err1 := strconv.ParseFloat(strings.TrimSpace(home), 64)
	ox, errX := strconv.ParseFloat(strings.TrimSpace(draw), 64)
	o2, err2 := strconv.ParseFloat(strings.TrimSpace(away), 64)
	if err1 != nil || errX != nil || err2 != nil {
		return model.OutcomeUnknown, false
	}

	switch {
	case o1 <= ox && o1 <= o2:
		return model.OutcomeHome, true
	case ox <= o1 && ox <= o2:
		return model.OutcomeDraw, true
	default:
		return model.OutcomeAway, true
	}
}
