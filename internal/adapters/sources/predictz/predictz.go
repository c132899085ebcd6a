// Package predictz scrapes 1X2 predictions from predictz.com.
//
// Matches sit in tr.pzcnt rows grouped per competition. The predicted
// outcome is a div.neonboxvsml badge holding H, D or A; the first cell
// holds the fixture as "Team A v Team B".
package predictz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pitchside/tally/internal/adapters/sources"
	"github.com/pitchside/tally/internal/domain/model"
)

const (
	siteName = "predictz"
	siteURL  = "https://www.predictz.com/"
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

// Scraper collects predictz's top picks.
type Scraper struct {
	client Fetcher
	url    string
}

// New creates a predictz scraper with configuration options.
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

// parse extracts predictions from the page. Rows without a badge, with an
// unknown badge letter or without a " v " separated fixture are dropped.
func parse(page []byte) ([]model.Prediction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", siteName, err)
	}

	var preds []model.Prediction
	doc.Find("tr.pzcnt").Each(func(_ int, row *goquery.Selection) {
		badge := row.Find("div.neonboxvsml").First()
		if badge.Length() == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		call, ok := badgeOutcome(badge.Text())
		if !ok {
			return
		}

		fixture := strings.TrimSpace(cells.First().Text())
		home, away, ok := strings.Cut(fixture, " v ")
		if !ok {
			return
		}
		home = strings.TrimSpace(home)
		away = strings.TrimSpace(away)
		if home == "" || away == "" {
			return
		}

		preds = append(preds, model.Prediction{
			Source:   siteName,
			HomeTeam: home,
			AwayTeam: away,
			Call:     call,
		})
	})
	return preds, nil
}

// badgeOutcome maps the H/D/A badge letter to an outcome.
func badgeOutcome(badge string) (model.Outcome, bool) {
	switch strings.ToUpper(strings.TrimSpace(badge)) {
	case "H":
		return model.OutcomeHome, true
	case "D":
		return model.OutcomeDraw, true
	case "A":
		return model.OutcomeAway, true
	default:
		return model.OutcomeUnknown, false
	}
}
