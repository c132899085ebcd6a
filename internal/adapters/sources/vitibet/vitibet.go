// Package vitibet scrapes 1X2 predictions from vitibet.com's quick tips
// table.
//
// The tip sits in a td whose class encodes the outcome:
//
//	barvapodtipek1   home win
//	barvapodtipek2   away win
//	barvapodtipek0   draw
//	barvapodtipek10  home win or draw, leaning home
//	barvapodtipek02  draw or away win, leaning away
//
// Teams are in the third and fourth cells of the row.
package vitibet

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
	siteName  = "vitibet"
	siteURL   = "https://www.vitibet.com/index.php?clanek=quicktips&sekce=fotbal&lang=en"
	maxPicks  = 5
	tipPrefix = "barvapodtipek"

	homeCell = 2
	awayCell = 3
	minCells = 4
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

// Scraper collects vitibet's quick tips.
type Scraper struct {
	client Fetcher
	url    string
}

// New creates a vitibet scraper with configuration options.
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

// Fetch loads the quick tips page and returns up to five picks.
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

// parse extracts predictions from the page. Rows without a tip cell or a
// mappable tip class are dropped.
func parse(page []byte) ([]model.Prediction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", siteName, err)
	}

	var preds []model.Prediction
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minCells {
			return
		}

		call, ok := tipOutcome(cells)
		if !ok {
			return
		}

		home := strings.TrimSpace(cells.Eq(homeCell).Text())
		away := strings.TrimSpace(cells.Eq(awayCell).Text())
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

// tipOutcome finds the tip cell among the row's cells and maps its class
// suffix to an outcome.
func tipOutcome(cells *goquery.Selection) (model.Outcome, bool) {
	var call model.Outcome
	found := false

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		classes, ok := cell.Attr("class")
		if !ok || !strings.Contains(classes, tipPrefix) {
			return true
		}
		for _, cls := range strings.Fields(classes) {
			if !strings.HasPrefix(cls, tipPrefix) {
				continue
			}
			call, found = suffixOutcome(strings.TrimPrefix(cls, tipPrefix))
			return false
		}
		return false
	})

	return call, found
}

// suffixOutcome maps the class suffix to 1/X/2. Double chances lean
// towards the win they include.
func suffixOutcome(suffix string) (model.Outcome, bool) {
	switch suffix {
	case "1", "10":
		return model.OutcomeHome, true
	case "2", "02":
		return model.OutcomeAway, true
	case "0", "x", "X":
		return model.OutcomeDraw, true
	default:
		return model.OutcomeUnknown, false
	}
}
