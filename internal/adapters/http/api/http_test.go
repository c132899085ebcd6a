package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitchside/tally/internal/adapters/http/api"
	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/domain/runguard"
	"github.com/pitchside/tally/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockService struct {
	lastMode string
	lastDate string

	report  api.RunReport
	runErr  error
	view    api.LeaderboardView
	viewErr error
	doc     api.ScoresDoc
	docErr  error
	stats   map[string]interface{}
}

func (m *mockService) run(mode, date string) (api.RunReport, error) {
	m.lastMode = mode
	m.lastDate = date
	if m.runErr != nil {
		return api.RunReport{}, m.runErr
	}
	report := m.report
	report.Mode = mode
	report.Date = date
	return report, nil
}

func (m *mockService) RunMorning(ctx context.Context, date string) (api.RunReport, error) {
	return m.run("morning", date)
}

func (m *mockService) RunEvening(ctx context.Context, date string) (api.RunReport, error) {
	return m.run("evening", date)
}

func (m *mockService) Leaderboard(ctx context.Context) (api.LeaderboardView, error) {
	if m.viewErr != nil {
		return api.LeaderboardView{}, m.viewErr
	}
	return m.view, nil
}

func (m *mockService) Scores(ctx context.Context, date string) (api.ScoresDoc, error) {
	if m.docErr != nil {
		return api.ScoresDoc{}, m.docErr
	}
	return m.doc, nil
}

func (m *mockService) GetStats() map[string]interface{} {
	return m.stats
}

func newMockService() *mockService {
	return &mockService{
		report: api.RunReport{
			RunID:  "run-1",
			Status: types.RunStatusOK,
			Steps:  []api.StepReport{{Name: "fetch_forebet", OK: true, DurationMS: 12}},
		},
		view: api.LeaderboardView{
			Header: []string{"Site", "2026-08-24", "Average"},
			Rows:   [][]string{{"forebet", "80%", "80.0%"}},
		},
		doc: api.ScoresDoc{
			Date:    "2026-08-24",
			Summary: map[string]snapshot.SummaryRec{"forebet": {Total: 5, Correct: 4}},
		},
		stats: map[string]interface{}{"ledger_rows": 42},
	}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		svc := newMockService()
		server := api.NewServer(svc, svc, "")
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("Then the health endpoint should report ok", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("And the metrics endpoint should serve the registry", func() {
			req := httptest.NewRequest("GET", "/metrics", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint should be accessible", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "ledger_rows")
		})

		Convey("And the run endpoints should trigger runs", func() {
			req := httptest.NewRequest("POST", "/run/morning?date=2026-08-24", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(svc.lastMode, ShouldEqual, "morning")
		})

		Convey("And the leaderboard endpoint should be accessible", func() {
			req := httptest.NewRequest("GET", "/leaderboard", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the scores endpoint should be accessible", func() {
			req := httptest.NewRequest("GET", "/scores/2026-08-24", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the dashboard endpoint should serve HTML with refresh control", func() {
			req := httptest.NewRequest("GET", "/dashboard", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(body, ShouldContainSubstring, "id=\"refresh-interval\"")
			So(body, ShouldContainSubstring, "id=\"refresh-control\"")
		})

		Convey("And unknown routes should return not found", func() {
			req := httptest.NewRequest("GET", "/unknown", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRunsHandler_Trigger(t *testing.T) {
	Convey("Given a runs handler without auth", t, func() {
		svc := newMockService()
		handler := api.NewRunsHandler(svc, "")

		Convey("When triggering a morning run with an explicit date", func() {
			req := httptest.NewRequest("POST", "/run/morning?date=2026-08-24", nil)
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then the run should execute for that date", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(svc.lastMode, ShouldEqual, "morning")
				So(svc.lastDate, ShouldEqual, "2026-08-24")

				var report api.RunReport
				So(json.NewDecoder(w.Body).Decode(&report), ShouldBeNil)
				So(report.RunID, ShouldEqual, "run-1")
				So(report.Mode, ShouldEqual, "morning")
				So(report.Status, ShouldEqual, types.RunStatusOK)
				So(len(report.Steps), ShouldEqual, 1)
			})
		})

		Convey("When triggering an evening run without a date", func() {
			req := httptest.NewRequest("POST", "/run/evening", nil)
			w := httptest.NewRecorder()
			handler.HandleEveningRun(w, req)

			Convey("Then it should default to the current date", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(svc.lastMode, ShouldEqual, "evening")
				So(svc.lastDate, ShouldNotBeEmpty)
				So(svc.lastDate, ShouldHaveLength, len("2006-01-02"))
			})
		})

		Convey("When the date is malformed", func() {
			req := httptest.NewRequest("POST", "/run/morning?date=25-08-2026", nil)
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When the same run is already in flight", func() {
			svc.runErr = fmt.Errorf("%w: morning 2026-08-24", runguard.ErrInFlight)
			req := httptest.NewRequest("POST", "/run/morning?date=2026-08-24", nil)
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then it should return conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(w.Body.String(), ShouldContainSubstring, "run_in_flight")
			})
		})

		Convey("When the run fails to start for another reason", func() {
			svc.runErr = fmt.Errorf("ledger unavailable")
			req := httptest.NewRequest("POST", "/run/morning", nil)
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When using a non-POST method", func() {
			req := httptest.NewRequest("GET", "/run/morning", nil)
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then it should return not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a runs handler with an auth token", t, func() {
		svc := newMockService()
		handler := api.NewRunsHandler(svc, "secret")

		Convey("When the Authorization header is missing", func() {
			req := httptest.NewRequest("POST", "/run/morning", nil)
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then it should return unauthorized", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the bearer token is wrong", func() {
			req := httptest.NewRequest("POST", "/run/morning", nil)
			req.Header.Set("Authorization", "Bearer nope")
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then it should return unauthorized", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the bearer token matches", func() {
			req := httptest.NewRequest("POST", "/run/morning?date=2026-08-24", nil)
			req.Header.Set("Authorization", "Bearer secret")
			w := httptest.NewRecorder()
			handler.HandleMorningRun(w, req)

			Convey("Then the run should execute", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(svc.lastDate, ShouldEqual, "2026-08-24")
			})
		})
	})
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		svc := newMockService()
		handler := api.NewLeaderboardHandler(svc)

		Convey("When requesting the leaderboard", func() {
			req := httptest.NewRequest("GET", "/leaderboard", nil)
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, req)

			Convey("Then it should return the rendered view", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var view api.LeaderboardView
				So(json.NewDecoder(w.Body).Decode(&view), ShouldBeNil)
				So(view.Header, ShouldResemble, []string{"Site", "2026-08-24", "Average"})
				So(len(view.Rows), ShouldEqual, 1)
				So(view.Rows[0][0], ShouldEqual, "forebet")
			})
		})

		Convey("When the read fails", func() {
			svc.viewErr = fmt.Errorf("ledger unreadable")
			req := httptest.NewRequest("GET", "/leaderboard", nil)
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, req)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestScoresHandler_HandleGetScores(t *testing.T) {
	Convey("Given a scores handler", t, func() {
		svc := newMockService()
		handler := api.NewScoresHandler(svc)

		Convey("When requesting scores for an existing date", func() {
			req := httptest.NewRequest("GET", "/scores/2026-08-24", nil)
			w := httptest.NewRecorder()
			handler.HandleGetScores(w, req)

			Convey("Then it should return the snapshot", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var doc api.ScoresDoc
				So(json.NewDecoder(w.Body).Decode(&doc), ShouldBeNil)
				So(doc.Date, ShouldEqual, "2026-08-24")
				So(doc.Summary["forebet"].Correct, ShouldEqual, 4)
			})
		})

		Convey("When no snapshot exists for the date", func() {
			svc.docErr = fmt.Errorf("scores 2026-01-01: %w", snapshot.ErrNotFound)
			req := httptest.NewRequest("GET", "/scores/2026-01-01", nil)
			w := httptest.NewRecorder()
			handler.HandleGetScores(w, req)

			Convey("Then it should return not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the date is malformed", func() {
			req := httptest.NewRequest("GET", "/scores/yesterday", nil)
			w := httptest.NewRecorder()
			handler.HandleGetScores(w, req)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the path has no date", func() {
			req := httptest.NewRequest("GET", "/scores/", nil)
			w := httptest.NewRecorder()
			handler.HandleGetScores(w, req)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		svc := newMockService()
		handler := api.NewStatsHandler(svc)

		Convey("When handling a stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			handler.HandleStats(w, req)

			Convey("Then it should return the stats map", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["ledger_rows"], ShouldEqual, 42)
			})
		})
	})
}
