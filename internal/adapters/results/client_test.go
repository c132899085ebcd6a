package results

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
	"github.com/sony/gobreaker"
)

const fixtureResponse = `{
  "matches": [
    {
      "utcDate": "2026-08-25T14:00:00Z",
      "status": "FINISHED",
      "homeTeam": {"name": "Arsenal FC", "shortName": "Arsenal"},
      "awayTeam": {"name": "Chelsea FC", "shortName": "Chelsea"},
      "score": {"winner": "HOME_TEAM", "fullTime": {"home": 2, "away": 0}},
      "competition": {"name": "Premier League"}
    },
    {
      "utcDate": "2026-08-25T16:30:00Z",
      "status": "FINISHED",
      "homeTeam": {"name": "Everton FC", "shortName": ""},
      "awayTeam": {"name": "Fulham FC", "shortName": "Fulham"},
      "score": {"winner": null, "fullTime": {"home": 1, "away": 1}},
      "competition": {"name": "Premier League"}
    },
    {
      "utcDate": "2026-08-25T19:00:00Z",
      "status": "TIMED",
      "homeTeam": {"name": "Leeds United FC", "shortName": "Leeds"},
      "awayTeam": {"name": "Burnley FC", "shortName": "Burnley"},
      "score": {"winner": null, "fullTime": {"home": null, "away": null}},
      "competition": {"name": "Premier League"}
    },
    {
      "utcDate": "2026-08-24T20:00:00Z",
      "status": "FINISHED",
      "homeTeam": {"name": "Real Madrid CF", "shortName": "Real Madrid"},
      "awayTeam": {"name": "Sevilla FC", "shortName": "Sevilla"},
      "score": {"winner": "AWAY_TEAM", "fullTime": {"home": 0, "away": 1}},
      "competition": {"name": "La Liga"}
    }
  ]
}`

func TestFetchFinished(t *testing.T) {
	convey.Convey("Given a results API serving a mixed day of matches", t, func() {
		var gotToken, gotFrom, gotTo string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.Header.Get("X-Auth-Token")
			gotFrom = r.URL.Query().Get("dateFrom")
			gotTo = r.URL.Query().Get("dateTo")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(fixtureResponse))
		}))
		defer srv.Close()

		client := New(WithBaseURL(srv.URL), WithToken("secret-token"))

		convey.Convey("When fetching the target day", func() {
			matches, err := client.FetchFinished(context.Background(), "2026-08-25")

			convey.Convey("Then the request carries the token and a one-day window", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(gotToken, convey.ShouldEqual, "secret-token")
				convey.So(gotFrom, convey.ShouldEqual, "2026-08-24")
				convey.So(gotTo, convey.ShouldEqual, "2026-08-26")
			})

			convey.Convey("Then only finished matches on the day survive", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(matches), convey.ShouldEqual, 2)
			})

			convey.Convey("Then winner matches map to a decided outcome", func() {
				convey.So(err, convey.ShouldBeNil)
				first := matches[0]
				convey.So(first.HomeTeam, convey.ShouldEqual, "Arsenal FC")
				convey.So(first.ShortHome, convey.ShouldEqual, "Arsenal")
				convey.So(first.Winner, convey.ShouldEqual, model.OutcomeHome)
				convey.So(*first.HomeScore, convey.ShouldEqual, 2)
				convey.So(*first.AwayScore, convey.ShouldEqual, 0)
				convey.So(first.Competition, convey.ShouldEqual, "Premier League")
			})

			convey.Convey("Then a missing winner leaves the scores to decide", func() {
				convey.So(err, convey.ShouldBeNil)
				second := matches[1]
				convey.So(second.Winner, convey.ShouldEqual, model.OutcomeUnknown)
				convey.So(second.FinalOutcome(), convey.ShouldEqual, model.OutcomeDraw)
			})

			convey.Convey("Then an empty short name falls back to the full name", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(matches[1].ShortHome, convey.ShouldEqual, "Everton FC")
				convey.So(matches[1].ShortAway, convey.ShouldEqual, "Fulham")
			})
		})

		convey.Convey("When fetching with a wider window", func() {
			wide := New(WithBaseURL(srv.URL), WithToken("secret-token"), WithWindowDays(2))
			_, err := wide.FetchFinished(context.Background(), "2026-08-25")

			convey.Convey("Then the query spans two days either side", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(gotFrom, convey.ShouldEqual, "2026-08-23")
				convey.So(gotTo, convey.ShouldEqual, "2026-08-27")
			})
		})
	})
}

func TestFetchFinishedEmptyDay(t *testing.T) {
	convey.Convey("Given a results API with no matches", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"matches": []}`))
		}))
		defer srv.Close()

		client := New(WithBaseURL(srv.URL), WithToken("secret-token"))

		convey.Convey("When fetching", func() {
			matches, err := client.FetchFinished(context.Background(), "2026-08-25")

			convey.Convey("Then an empty day is not an error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(matches, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestFetchFinishedErrors(t *testing.T) {
	convey.Convey("Given a results client", t, func() {
		convey.Convey("When no token is configured", func() {
			client := New(WithBaseURL("http://localhost:0"))
			_, err := client.FetchFinished(context.Background(), "2026-08-25")

			convey.Convey("Then it fails before touching the network", func() {
				convey.So(errors.Is(err, ErrMissingToken), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the date is malformed", func() {
			client := New(WithBaseURL("http://localhost:0"), WithToken("secret-token"))
			_, err := client.FetchFinished(context.Background(), "25/08/2026")

			convey.Convey("Then it reports an invalid date", func() {
				convey.So(errors.Is(err, ErrInvalidDate), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the API rate limits", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message": "You reached your request limit."}`))
			}))
			defer srv.Close()

			client := New(WithBaseURL(srv.URL), WithToken("secret-token"))
			_, err := client.FetchFinished(context.Background(), "2026-08-25")

			convey.Convey("Then the rate limit surfaces as its own error", func() {
				convey.So(errors.Is(err, ErrRateLimited), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the API returns a server error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := New(WithBaseURL(srv.URL), WithToken("secret-token"))
			_, err := client.FetchFinished(context.Background(), "2026-08-25")

			convey.Convey("Then the failure is wrapped", func() {
				convey.So(errors.Is(err, ErrFetchResults), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the API keeps failing", func() {
			var hits atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := New(WithBaseURL(srv.URL), WithToken("secret-token"))
			var lastErr error
			for i := 0; i < 5; i++ {
				_, lastErr = client.FetchFinished(context.Background(), "2026-08-25")
			}

			convey.Convey("Then the breaker opens and stops hitting the API", func() {
				convey.So(errors.Is(lastErr, gobreaker.ErrOpenState), convey.ShouldBeTrue)
				convey.So(hits.Load(), convey.ShouldEqual, 4)
			})
		})
	})
}
