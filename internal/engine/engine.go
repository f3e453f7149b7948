// Package engine folds a division's tournaments, in date order, into a
// rating store: resolve identities, rank, update, reclassify and persist.
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/domain/dedupe"
	"github.com/okian/olyrank/internal/domain/identity"
	"github.com/okian/olyrank/internal/domain/importance"
	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/domain/ranking"
	"github.com/okian/olyrank/internal/domain/rating"
	"github.com/okian/olyrank/internal/domain/reclass"
	"github.com/okian/olyrank/internal/domain/registry"
	"github.com/okian/olyrank/pkg/logger"
	"github.com/okian/olyrank/pkg/metrics"
)

const dateLayout = "2006-01-02"

// State is everything threaded from one tournament to the next.
type State struct {
	Store      repository.Store
	Registries *registry.Set
}

// Engine rates one division. It is single-writer; Process calls must not
// overlap and must arrive in non-decreasing date order.
type Engine struct {
	division string
	params   rating.Params
	loop     *reclass.Loop
	state    *State
	seasons  int
	logger   logger.Logger

	resultsURL string

	seen          dedupe.Deduper
	timeline      map[int][]TimelineEntry
	lastDate      time.Time
	processed     int
	nationalsLoss float64
}

// New creates an engine with an empty store and fresh registries.
func New(division string, p rating.Params, rp reclass.Params, opts ...Option) *Engine {
	e := &Engine{
		division: division,
		params:   p,
		loop:     reclass.New(rp, p),
		state: &State{
			Store: repository.NewMemoryStore(
				repository.WithStartingRating(p.StartingRating),
				repository.WithFloor(p.Floor),
			),
			Registries: registry.NewSet(),
		},
		logger:   logger.Get().Named("engine"),
		seen:     dedupe.NewInMemoryDeduper(),
		timeline: make(map[int][]TimelineEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State exposes the engine's store and registries.
func (e *Engine) State() *State {
	return e.state
}

// Run processes records, oldest first, within the configured season window
// and returns the division output. Any error aborts the division.
func (e *Engine) Run(ctx context.Context, records []*model.TournamentRecord) (*Output, error) {
	start := time.Now()

	window := SeasonWindow(records, e.seasons)
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Date.Before(window[j].Date)
	})

	for _, rec := range window {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: division %s: %w", ErrAborted, e.division, err)
		}
		if err := e.Process(ctx, rec); err != nil {
			e.logger.Error(ctx, "division run aborted",
				logger.String("division", e.division),
				logger.String("tournament", rec.Name),
				logger.Error(err))
			return nil, fmt.Errorf("%w: division %s: %w", ErrAborted, e.division, err)
		}
	}

	out := e.Output()
	elapsed := time.Since(start)
	metrics.RecordDivisionRunDuration(e.division, float64(elapsed.Milliseconds()))
	metrics.UpdateStoreRecords(e.division, e.state.Store.Count())
	e.logger.Info(ctx, "division rated",
		logger.String("division", e.division),
		logger.String("run_id", out.RunID),
		logger.Int("tournaments", e.processed),
		logger.Int("skipped_seasons", len(records)-len(window)),
		logger.Int("records", e.state.Store.Count()),
		logger.Float64("nationals_loss", e.nationalsLoss),
		logger.Duration("elapsed", elapsed))
	return out, nil
}

// Process folds one tournament into the state.
func (e *Engine) Process(ctx context.Context, rec *model.TournamentRecord) error {
	if rec.Date.Before(e.lastDate) {
		return fmt.Errorf("%w: %s on %s after %s", ErrOutOfOrder, rec.Name,
			rec.Date.Format(dateLayout), e.lastDate.Format(dateLayout))
	}

	res, err := identity.Resolve(rec, e.state.Registries)
	if err != nil {
		metrics.RecordFatalInputError(e.division)
		return err
	}
	e.lastDate = rec.Date

	if len(rec.Teams) == 0 || len(rec.Events) == 0 {
		e.logger.Debug(ctx, "empty tournament", logger.String("tournament", rec.Name))
		return nil
	}

	name := model.NormalizeTournamentName(rec.Name)
	tid, _ := e.state.Registries.Tournaments.GetOrCreateID(name)
	tier := importance.Classify(name, rec.Filename, rec.RawText)
	date := rec.Date.Format(dateLayout)
	e.addTimeline(ctx, rec, tid, date)

	overall, events := ranking.Build(rec, res)
	if tier == importance.National {
		e.recordNationalsLoss(ctx, rec, overall)
	}

	t := tournament{rec: rec, id: tid, date: date, tier: tier}
	for _, r := range append([]ranking.Ranking{overall}, events...) {
		if err := e.apply(ctx, t, r); err != nil {
			return fmt.Errorf("%s %s: %w", rec.Name, r.Category, err)
		}
	}

	e.processed++
	metrics.RecordTournamentProcessed(e.division)
	metrics.RecordNoShows(e.division, len(res.NoShows))
	metrics.RecordDroppedSquads(e.division, len(res.Dropped))
	e.logger.Debug(ctx, "tournament rated",
		logger.String("division", e.division),
		logger.String("tournament", rec.Name),
		logger.String("date", date),
		logger.String("tier", tier.String()),
		logger.Int("teams", len(res.Identities)),
		logger.Int("events", len(events)),
		logger.Int("no_shows", len(res.NoShows)),
		logger.Int("new_teams", res.NewTeams))
	return nil
}

type tournament struct {
	rec  *model.TournamentRecord
	id   int
	date string
	tier importance.Tier
}

func (e *Engine) apply(ctx context.Context, t tournament, r ranking.Ranking) error {
	scope := "event"
	if r.Category == model.Overall {
		scope = "overall"
	}
	if !r.Rateable() {
		metrics.RecordRankingSkipped(e.division, "too_few_teams")
		e.logger.Debug(ctx, "ranking skipped",
			logger.String("tournament", t.rec.Name),
			logger.String("category", r.Category),
			logger.Int("entries", len(r.Entries)))
		return nil
	}

	entries := make([]reclass.Entry, len(r.Entries))
	for i, re := range r.Entries {
		current, prior := e.state.Store.Peek(e.key(re.Team, t.rec.Season, r.Category))
		entries[i] = reclass.Entry{Team: re.Team, Place: re.Place, Rating: current, PriorResults: prior}
	}

	out := e.loop.Evaluate(t.tier, entries)
	if out.State == reclass.Reclassified {
		for k := range out.Converted {
			metrics.RecordReclassification(e.division)
			e.logger.Info(ctx, "squad reclassified",
				logger.String("division", e.division),
				logger.String("team", k),
				logger.String("tournament", t.rec.Name),
				logger.String("category", r.Category))
		}
	}
	if out.Updates == nil {
		metrics.RecordRankingSkipped(e.division, "reclassified_too_few_teams")
		return nil
	}

	opponents := len(out.Updates) - 1
	for i, u := range out.Updates {
		ent := out.Entries[i]
		name := ent.Team.Name()
		e.state.Registries.Teams.GetOrCreateID(name)

		rec := e.state.Store.GetOrInitialize(e.key(ent.Team, t.rec.Season, r.Category))
		entry := repository.HistoryEntry{
			Date:       t.date,
			Tournament: t.id,
			Place:      ent.Place,
			Link:       e.link(t.rec.Filename),
		}
		if out.Converted[ent.Team.Key()] {
			entry.Note = reclass.Note
		}
		if err := e.state.Store.Apply(rec, u.NewRating, entry); err != nil {
			return err
		}
		e.state.Store.RecordParticipation(ent.Team.State, name, t.rec.Season, r.Category, opponents)

		metrics.RecordRatingUpdate(e.division, scope, math.Abs(u.Delta))
		if u.Capped {
			metrics.RecordCappedLoss(e.division)
		}
	}
	return nil
}

func (e *Engine) key(id identity.Identity, season int, category string) repository.Key {
	return repository.Key{State: id.State, Team: id.Name(), Season: season, Category: category}
}

func (e *Engine) addTimeline(ctx context.Context, rec *model.TournamentRecord, tid int, date string) {
	if e.seen.SeenAndRecord(ctx, fmt.Sprintf("%s-%d", date, tid)) {
		return
	}
	e.timeline[rec.Season] = append(e.timeline[rec.Season], TimelineEntry{
		Date:       date,
		Tournament: tid,
		Link:       e.link(rec.Filename),
	})
}

// link joins a result file stem onto the configured results base URL.
func (e *Engine) link(filename string) string {
	if e.resultsURL == "" || filename == "" {
		return filename
	}
	return strings.TrimSuffix(e.resultsURL, "/") + "/" + filename
}

// SeasonWindow keeps records from the n most recent seasons. n <= 0 keeps all.
func SeasonWindow(records []*model.TournamentRecord, n int) []*model.TournamentRecord {
	out := make([]*model.TournamentRecord, 0, len(records))
	if n <= 0 {
		return append(out, records...)
	}
	latest := 0
	for _, r := range records {
		latest = max(latest, r.Season)
	}
	for _, r := range records {
		if r.Season >= latest-(n-1) {
			out = append(out, r)
		}
	}
	return out
}
