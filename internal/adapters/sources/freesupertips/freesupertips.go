// Package freesupertips scrapes 1X2 predictions from freesupertips.com.
//
// This source takes two hops: the listing page links featured matches as
// a.Prediction anchors, and each match page carries its main tip in
// div.IndividualTipPrediction > h4 as prose ("Atalanta to Win", "Draw").
// Tips for other markets (BTTS, goals, handicaps) are skipped, and match
// links are followed until five 1X2 picks are collected. A thin day with
// fewer than five is still a success.
package freesupertips

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
	siteName   = "freesupertips"
	listingURL = "https://www.freesupertips.com/predictions/"
	baseURL    = "https://www.freesupertips.com"
	maxPicks   = 5
)

// Markers of tips that are not 1X2 calls.
var non1X2Patterns = []string{ //nolint:gochecknoglobals // fixed vocabulary
	"both teams to score", "btts",
	"over ", "under ",
	"asian handicap", "handicap",
	"clean sheet",
	"first goalscorer", "last goalscorer", "anytime scorer",
	"correct score",
	"half time", "half-time",
	"total goals",
}

// Fetcher fetches a page body.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Option applies a configuration option to the Scraper.
type Option func(*Scraper)

// WithListingURL overrides the listing page URL, mainly for tests.
func WithListingURL(u string) Option {
	return func(s *Scraper) {
		if u != "" {
			s.listingURL = u
		}
	}
}

// WithBaseURL overrides the base used to resolve relative match links.
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// Scraper collects freesupertips' featured 1X2 picks.
type Scraper struct {
	client     Fetcher
	listingURL string
	baseURL    string
}

// New creates a freesupertips scraper with configuration options.
func New(client Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		client:     client,
		listingURL: listingURL,
		baseURL:    baseURL,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the source identifier.
func (s *Scraper) Name() string { return siteName }

// matchLink is one featured match on the listing page.
type matchLink struct {
	home, away, url string
}

// Fetch walks the listing and match pages and returns up to five picks.
func (s *Scraper) Fetch(ctx context.Context) ([]model.Prediction, error) {
	page, err := s.client.Get(ctx, s.listingURL)
	if err != nil {
		return nil, err
	}

	links, err := s.parseListing(page)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %s: no match links on listing page", sources.ErrNoPredictions, siteName)
	}

	var preds []model.Prediction
	for _, link := range links {
		if len(preds) >= maxPicks {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// A single bad match page costs one candidate, not the run.
		tip, err := s.matchTip(ctx, link.url)
		if err != nil || tip == "" {
			continue
		}
		if !is1X2(tip) {
			continue
		}
		call, ok := parseTip(tip, link.home, link.away)
		if !ok {
			continue
		}

		preds = append(preds, model.Prediction{
			Source:   siteName,
			HomeTeam: link.home,
			AwayTeam: link.away,
			Call:     call,
		})
	}

	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: %s", sources.ErrNoPredictions, siteName)
	}
	return preds, nil
}

// parseListing extracts the featured match links. Team names come from the
// anchor's div.Team pair, falling back to the "-vs-" link slug.
func (s *Scraper) parseListing(page []byte) ([]matchLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s listing: %w", siteName, err)
	}

	var links []matchLink
	doc.Find("a.Prediction").Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}
		url := href
		if !strings.HasPrefix(href, "http") {
			url = s.baseURL + href
		}

		var home, away string
		teams := anchor.Find("div.Team")
		if teams.Length() >= 2 {
			home = strings.TrimSpace(teams.Eq(0).Text())
			away = strings.TrimSpace(teams.Eq(1).Text())
		} else {
			home, away = teamsFromSlug(href)
		}
		if home == "" || away == "" {
			return
		}

		links = append(links, matchLink{home: home, away: away, url: url})
	})
	return links, nil
}

// matchTip loads one match page and returns its headline tip text.
func (s *Scraper) matchTip(ctx context.Context, url string) (string, error) {
	page, err := s.client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse %s match page: %w", siteName, err)
	}
	return strings.TrimSpace(doc.Find("div.IndividualTipPrediction h4").First().Text()), nil
}

// teamsFromSlug recovers team names from a link like
// "/predictions/team-a-vs-team-b-predictions-preview/".
func teamsFromSlug(href string) (string, string) {
	slug := href
	if i := strings.LastIndex(href, "/predictions/"); i >= 0 {
		slug = href[i+len("/predictions/"):]
	}
	slug = strings.TrimRight(slug, "/")

	homeSlug, awaySlug, ok := strings.Cut(slug, "-vs-")
	if !ok {
		return "", ""
	}
	awaySlug, _, _ = strings.Cut(awaySlug, "-predictions")

	return titleWords(homeSlug), titleWords(awaySlug)
}

// titleWords turns "sheffield-wednesday" into "Sheffield Wednesday".
func titleWords(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// is1X2 reports whether the tip is an outright result call rather than a
// goals or specials market.
func is1X2(tip string) bool {
	t := strings.ToLower(strings.TrimSpace(tip))
	for _, pattern := range non1X2Patterns {
		if strings.Contains(t, pattern) {
			return false
		}
	}
	return true
}

// parseTip maps prose like "Atalanta to Win" or "Draw" to an outcome. A
// tip naming both teams, or neither, is unusable.
func parseTip(tip, home, away string) (model.Outcome, bool) {
	t := strings.ToLower(strings.TrimSpace(tip))
	if strings.Contains(t, "draw") {
		return model.OutcomeDraw, true
	}

	// Words the names share ("united", "fc") identify neither side, so
	// only each team's distinctive words count as a mention.
	homeWords := wordSet(strings.ToLower(home))
	awayWords := wordSet(strings.ToLower(away))
	dropShared(homeWords, awayWords)

	tipWords := wordSet(t)
	homeHit := overlaps(homeWords, tipWords)
	awayHit := overlaps(awayWords, tipWords)

	switch {
	case homeHit && awayHit:
		return model.OutcomeUnknown, false
	case homeHit:
		return model.OutcomeHome, true
	case awayHit:
		return model.OutcomeAway, true
	}

	// Substring fallback for names the word split mangles, using only
	// words long enough to be distinctive.
	if containsLongWord(t, homeWords) {
		return model.OutcomeHome, true
	}
	if containsLongWord(t, awayWords) {
		return model.OutcomeAway, true
	}

	return model.OutcomeUnknown, false
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func dropShared(a, b map[string]struct{}) {
	for w := range a {
		if _, ok := b[w]; ok {
			delete(a, w)
			delete(b, w)
		}
	}
}

func overlaps(a, b map[string]struct{}) bool {
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}

func containsLongWord(tip string, team map[string]struct{}) bool {
	for w := range team {
		if len(w) > 3 && strings.Contains(tip, w) {
			return true
		}
	}
	return false
}
