package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/olyrank/internal/adapters/http/api"
	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/engine"
	. "github.com/smartystreets/goconvey/convey"
)

var errDivisionNotFound = errors.New("division not found")

type query struct {
	division, state, team string
	season                int
	category              string
	n                     int
}

type mockDependencies struct {
	standings []api.Standing
	team      *repository.TeamRatings
	meta      api.Summary
	err       error
	last      query
}

func (m *mockDependencies) TopN(_ context.Context, division string, season int, category string, n int) ([]api.Standing, error) {
	m.last = query{division: division, season: season, category: category, n: n}
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.standings) {
		return m.standings, nil
	}
	return m.standings[:n], nil
}

func (m *mockDependencies) Rank(_ context.Context, division, state, team string, season int, category string) (api.Standing, error) {
	m.last = query{division: division, state: state, team: team, season: season, category: category}
	if m.err != nil {
		return api.Standing{}, m.err
	}
	for _, s := range m.standings {
		if s.State == state && s.Team == team {
			return s, nil
		}
	}
	return api.Standing{}, repository.ErrNotFound
}

func (m *mockDependencies) Team(_ context.Context, division, state, team string) (*repository.TeamRatings, error) {
	m.last = query{division: division, state: state, team: team}
	if m.err != nil {
		return nil, m.err
	}
	if m.team == nil {
		return nil, fmt.Errorf("%w: %s/%s", repository.ErrNotFound, state, team)
	}
	return m.team, nil
}

func (m *mockDependencies) Meta(_ context.Context, division string) (api.Summary, error) {
	m.last = query{division: division}
	if m.err != nil {
		return api.Summary{}, m.err
	}
	return m.meta, nil
}

func (m *mockDependencies) GetStats() map[string]interface{} {
	return map[string]interface{}{"runs": 1, "divisions": 2}
}

func newDeps() *mockDependencies {
	return &mockDependencies{
		standings: []api.Standing{
			{Rank: 1, State: "OH", Team: "Solon Varsity", Rating: 1650.25},
			{Rank: 2, State: "OH", Team: "Mason Varsity", Rating: 1580},
			{Rank: 3, State: "MI", Team: "Troy JV", Rating: 1420.5},
		},
		meta: api.Summary{
			Division:     "C",
			RunID:        "run-1",
			LatestSeason: 2024,
			Registries:   engine.Registries{Tournaments: []string{"Solon Invitational"}},
		},
	}
}

func serve(deps api.Dependencies, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.NewServer(deps, 100).Register(context.Background(), mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, target, http.NoBody))
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newDeps()

		Convey("Then health serves prometheus metrics", func() {
			w := serve(deps, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats returns the provider's map", func() {
			w := serve(deps, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["runs"], ShouldEqual, float64(1))
		})

		Convey("Then unknown paths are not found", func() {
			So(serve(deps, http.MethodGet, "/unknown").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then writes are rejected", func() {
			So(serve(deps, http.MethodPost, "/leaderboard/C?limit=1").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard with three teams", t, func() {
		deps := newDeps()

		Convey("When the top two are requested", func() {
			w := serve(deps, http.MethodGet, "/leaderboard/C?limit=2")

			Convey("Then they are returned in rank order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				var got []api.Standing
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].Team, ShouldEqual, "Solon Varsity")
				So(deps.last.division, ShouldEqual, "C")
				So(deps.last.season, ShouldEqual, 0)
				So(deps.last.category, ShouldEqual, "")
			})
		})

		Convey("When a season and category are selected", func() {
			w := serve(deps, http.MethodGet, "/leaderboard/B?limit=3&season=2023&category=Codebusters")

			Convey("Then they are passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last, ShouldResemble, query{division: "B", season: 2023, category: "Codebusters", n: 3})
			})
		})

		Convey("When the limit is missing, invalid or too large", func() {
			Convey("Then the request is rejected", func() {
				So(serve(deps, http.MethodGet, "/leaderboard/C").Code, ShouldEqual, http.StatusBadRequest)
				So(serve(deps, http.MethodGet, "/leaderboard/C?limit=0").Code, ShouldEqual, http.StatusBadRequest)
				So(serve(deps, http.MethodGet, "/leaderboard/C?limit=abc").Code, ShouldEqual, http.StatusBadRequest)

				w := serve(deps, http.MethodGet, "/leaderboard/C?limit=101")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When the season is not a year", func() {
			w := serve(deps, http.MethodGet, "/leaderboard/C?limit=1&season=last")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the division is unknown upstream", func() {
			deps.err = fmt.Errorf("wrapped: %w", errDivisionNotFound)
			w := serve(deps, http.MethodGet, "/leaderboard/Z?limit=1")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the upstream fails", func() {
			deps.err = errors.New("boom")
			w := serve(deps, http.MethodGet, "/leaderboard/C?limit=1")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given a leaderboard with three teams", t, func() {
		deps := newDeps()

		Convey("When a team with a space in its name is requested", func() {
			w := serve(deps, http.MethodGet, "/rank/C/MI/Troy%20JV?season=2024")

			Convey("Then its standing is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got api.Standing
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Rank, ShouldEqual, 3)
				So(deps.last.team, ShouldEqual, "Troy JV")
				So(deps.last.season, ShouldEqual, 2024)
			})
		})

		Convey("When the team is unknown", func() {
			w := serve(deps, http.MethodGet, "/rank/C/OH/Nobody%20Varsity")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "not_found")
		})
	})
}

func TestTeamHandler(t *testing.T) {
	Convey("Given a stored team", t, func() {
		deps := newDeps()
		deps.team = &repository.TeamRatings{
			Seasons: map[int]*repository.Season{2024: {Events: map[string]*repository.Record{
				"Codebusters": {Rating: 1612.5, History: []repository.HistoryEntry{{Date: "2024-01-20", Place: 1, Rating: 1612.5}}},
			}}},
			Meta: repository.Meta{Games: 4, Events: 1},
		}

		Convey("When it is requested", func() {
			w := serve(deps, http.MethodGet, "/teams/C/OH/Solon%20Varsity")

			Convey("Then every season is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got repository.TeamRatings
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Seasons[2024].Events["Codebusters"].Rating, ShouldEqual, 1612.5)
				So(got.Meta.Games, ShouldEqual, 4)
				So(deps.last.state, ShouldEqual, "OH")
			})
		})

		Convey("When another team is requested from an empty division", func() {
			deps.team = nil
			So(serve(deps, http.MethodGet, "/teams/C/OH/Mason%20Varsity").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMetaHandler(t *testing.T) {
	Convey("Given a published division", t, func() {
		deps := newDeps()

		Convey("When its meta is requested", func() {
			w := serve(deps, http.MethodGet, "/meta/C")

			Convey("Then registries and the latest season are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got api.Summary
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.LatestSeason, ShouldEqual, 2024)
				So(got.Registries.Tournaments, ShouldResemble, []string{"Solon Invitational"})
			})
		})

		Convey("When the division is unknown", func() {
			deps.err = errDivisionNotFound
			So(serve(deps, http.MethodGet, "/meta/Z").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
