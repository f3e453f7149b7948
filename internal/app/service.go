// Package service provides the core business service: it recomputes
// division ratings through the worker pool and serves the resulting
// leaderboards to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/olyrank/internal/adapters/mq/queue"
	"github.com/okian/olyrank/internal/adapters/mq/worker"
	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/adapters/sink"
	"github.com/okian/olyrank/internal/domain/dedupe"
	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/domain/rating"
	"github.com/okian/olyrank/internal/domain/reclass"
	"github.com/okian/olyrank/internal/engine"
	"github.com/okian/olyrank/pkg/logger"
	"github.com/okian/olyrank/pkg/metrics"
)

// Loader reads a division's tournament records.
type Loader interface {
	Load(ctx context.Context, division string) ([]*model.TournamentRecord, error)
}

// Restorer reads back a previously written division output.
type Restorer interface {
	Read(ctx context.Context, division string) (*engine.Output, error)
}

type boardKey struct {
	division string
	season   int
	category string
}

type division struct {
	output  *engine.Output
	summary engine.Summary
	boards  map[boardKey]*repository.Leaderboard
	latest  int
}

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	loader   Loader
	restorer Restorer
	sinks    []sink.Sink

	params           rating.Params
	reclassParams    reclass.Params
	seasonsToInclude int
	resultsURL       string
	workerCount      int
	queueSize        int

	divisions map[string]*division
	runs      int
	lastRunID string
	lastRun   time.Time

	logger logger.Logger
}

// New constructs a Service with default rating parameters.
func New(opts ...Option) *Service {
	s := &Service{
		params:        rating.DefaultParams(),
		reclassParams: reclass.DefaultParams(),
		workerCount:   runtime.NumCPU(),
		queueSize:     16,
		divisions:     make(map[string]*division),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

func (s *Service) run(ctx context.Context, job queue.Job) (*engine.Output, error) {
	e := engine.New(job.Division, s.params, s.reclassParams,
		engine.WithSeasonsToInclude(s.seasonsToInclude),
		engine.WithResultsBaseURL(s.resultsURL),
		engine.WithLogger(s.logger.Named("engine-"+job.Division)),
	)
	return e.Run(ctx, job.Records)
}

// Compute loads, recomputes and publishes every division. Divisions run in
// parallel on the worker pool; a failing division does not stop the others
// and its previously published leaderboard stays in place.
func (s *Service) Compute(ctx context.Context, divisions []string) error {
	if s.loader == nil {
		return ErrNoLoader
	}
	runID := uuid.NewString()
	start := time.Now()
	s.logger.Info(ctx, "compute started",
		logger.String("runId", runID),
		logger.Int("divisions", len(divisions)),
	)

	seen := dedupe.NewInMemoryDeduper()
	var wanted []string
	for _, d := range divisions {
		if d == "" || seen.SeenAndRecord(ctx, d) {
			continue
		}
		wanted = append(wanted, d)
	}
	if len(wanted) == 0 {
		return ErrNoDivisions
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(max(s.queueSize, len(wanted))))
	results := make(chan worker.Result, len(wanted))
	pool := worker.NewPool(min(s.workerCount, len(wanted)), q, worker.RunnerFunc(s.run), results)
	pool.Start(ctx)

	var errs []error
	pending := make(map[string]bool, len(wanted))
	for _, d := range wanted {
		records, err := s.loader.Load(ctx, d)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: division %s: %w", ErrCompute, d, err))
			continue
		}
		if err := q.Enqueue(ctx, queue.NewJob(d, records)); err != nil {
			errs = append(errs, fmt.Errorf("%w: division %s: %w", ErrCompute, d, err))
			continue
		}
		pending[d] = true
	}
	_ = q.Close()
	pool.Wait()
	close(results)

	for r := range results {
		delete(pending, r.Division)
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%w: division %s: %w", ErrCompute, r.Division, r.Err))
			continue
		}
		if err := sink.Write(ctx, r.Output, s.sinks...); err != nil {
			errs = append(errs, fmt.Errorf("%w: division %s: %w", ErrPublish, r.Division, err))
			continue
		}
		s.install(r.Output)
	}
	// Workers drop jobs and results once ctx is done.
	for _, d := range wanted {
		if !pending[d] {
			continue
		}
		cause := ctx.Err()
		if cause == nil {
			cause = ErrNoResult
		}
		errs = append(errs, fmt.Errorf("%w: division %s: %w", ErrCompute, d, cause))
	}

	s.mu.Lock()
	s.runs++
	s.lastRunID = runID
	s.lastRun = time.Now()
	s.mu.Unlock()

	err := errors.Join(errs...)
	fields := []logger.Field{
		logger.String("runId", runID),
		logger.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.logger.Error(ctx, "compute finished with errors", append(fields, logger.Error(err))...)
		return err
	}
	s.logger.Info(ctx, "compute finished", fields...)
	return nil
}

// Restore installs previously persisted outputs. Divisions without a
// snapshot are skipped.
func (s *Service) Restore(ctx context.Context, divisions []string) error {
	if s.restorer == nil {
		return nil
	}
	for _, d := range divisions {
		out, err := s.restorer.Read(ctx, d)
		if errors.Is(err, sink.ErrNotFound) {
			s.logger.Warn(ctx, "no snapshot to restore", logger.String("division", d))
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: division %s: %w", ErrRestore, d, err)
		}
		s.install(out)
		s.logger.Info(ctx, "restored division", logger.String("division", d))
	}
	return nil
}

// install builds every leaderboard of out and swaps the division in.
func (s *Service) install(out *engine.Output) {
	ctx := context.Background()
	d := &division{
		output:  out,
		summary: out.Summary(),
		boards:  make(map[boardKey]*repository.Leaderboard),
	}
	d.latest = d.summary.LatestSeason
	records := 0
	for state, teams := range out.Teams {
		for name, tr := range teams {
			for season, sr := range tr.Seasons {
				for category, rec := range sr.Events {
					k := boardKey{division: out.Division, season: season, category: category}
					b, ok := d.boards[k]
					if !ok {
						b = repository.NewLeaderboard()
						d.boards[k] = b
					}
					b.Upsert(ctx, state, name, rec.Rating)
					records++
				}
			}
		}
	}
	metrics.UpdateStoreRecords(out.Division, records)

	s.mu.Lock()
	s.divisions[out.Division] = d
	s.mu.Unlock()
}

func (s *Service) board(div string, season int, category string) (*repository.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.divisions[div]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDivisionNotFound, div)
	}
	if season == 0 {
		season = d.latest
	}
	if category == "" {
		category = model.Overall
	}
	b, ok := d.boards[boardKey{division: div, season: season, category: category}]
	if !ok {
		return nil, fmt.Errorf("%w: %s season %d category %q", ErrBoardNotFound, div, season, category)
	}
	return b, nil
}

// TopN returns the n best standings. season 0 selects the latest season and
// an empty category the overall rating.
func (s *Service) TopN(ctx context.Context, div string, season int, category string, n int) ([]repository.Standing, error) {
	b, err := s.board(div, season, category)
	if err != nil {
		return nil, err
	}
	return b.TopN(ctx, n)
}

// Rank returns a team's standing on the selected leaderboard.
func (s *Service) Rank(ctx context.Context, div, state, team string, season int, category string) (repository.Standing, error) {
	b, err := s.board(div, season, category)
	if err != nil {
		return repository.Standing{}, err
	}
	return b.Rank(ctx, state, team)
}

// Team returns every season and category stored for a team.
func (s *Service) Team(_ context.Context, div, state, team string) (*repository.TeamRatings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.divisions[div]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDivisionNotFound, div)
	}
	tr, ok := d.output.Teams[state][team]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", repository.ErrNotFound, state, team)
	}
	return tr, nil
}

// Meta returns the registries and timeline of a division.
func (s *Service) Meta(_ context.Context, div string) (engine.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.divisions[div]
	if !ok {
		return engine.Summary{}, fmt.Errorf("%w: %s", ErrDivisionNotFound, div)
	}
	return d.summary, nil
}

// Divisions lists published divisions in order.
func (s *Service) Divisions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.divisions))
	for d := range s.divisions {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make(map[string]int, len(s.divisions))
	for name, d := range s.divisions {
		n := 0
		for _, byName := range d.output.Teams {
			n += len(byName)
		}
		teams[name] = n
	}
	stats := map[string]interface{}{
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"sinks":       len(s.sinks),
		"runs":        s.runs,
		"divisions":   len(s.divisions),
		"teams":       teams,
	}
	if s.runs > 0 {
		stats["lastRunId"] = s.lastRunID
		stats["lastRun"] = s.lastRun.UTC().Format(time.RFC3339)
	}
	return stats
}

// Stop releases sinks that hold resources.
func (s *Service) Stop() {
	for _, sk := range s.sinks {
		if closer, ok := sk.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Error(context.Background(), "error closing sink",
					logger.String("sink", sk.Name()), logger.Error(err))
			}
		}
	}
}
