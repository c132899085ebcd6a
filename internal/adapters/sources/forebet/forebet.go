// Package forebet scrapes 1X2 predictions from forebet.com.
//
// The front page renders match rows as div.rcnt, each carrying
// span.homeTeam, span.awayTeam and span.forepr with the predicted outcome
// already in 1/X/2 form.
package forebet

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
	siteName = "forebet"
	siteURL  = "https://www.forebet.com/"
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

// Scraper collects forebet's top picks.
type Scraper struct {
	client Fetcher
	url    string
}

// New creates a forebet scraper with configuration options.
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

// parse extracts predictions from the page. Rows missing a team or with a
// prediction outside 1/X/2 are dropped.
func parse(page []byte) ([]model.Prediction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", siteName, err)
	}

	var preds []model.Prediction
	doc.Find("div.rcnt").Each(func(_ int, row *goquery.Selection) {
		home := strings.TrimSpace(row.Find("span.homeTeam").First().Text())
		away := strings.TrimSpace(row.Find("span.awayTeam").First().Text())
		tip := strings.ToUpper(strings.TrimSpace(row.Find("span.forepr").First().Text()))

		if home == "" || away == "" {
			return
		}
		call, ok := model.ParseOutcome(tip)
		if !ok {
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
