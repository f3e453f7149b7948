package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/engine"
	"github.com/okian/olyrank/pkg/logger"
)

// badgerMeta is stored under div/<D>/meta.
type badgerMeta struct {
	RunID         string                         `json:"runId"`
	Registries    engine.Registries              `json:"registries"`
	Timeline      map[int][]engine.TimelineEntry `json:"tournamentTimeline"`
	NationalsLoss float64                        `json:"nationalsLoss"`
	Tournaments   int                            `json:"tournamentsProcessed"`
}

// badgerLogger adapts logger.Logger to badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// BadgerSink stores division snapshots in badger:
// div/<D>/team/<state>/<name> holds TeamRatings and div/<D>/meta the rest.
type BadgerSink struct {
	db     *badger.DB
	logger logger.Logger
}

// OpenBadger opens (or creates) the database at path.
func OpenBadger(path string, opts ...BadgerOption) (*BadgerSink, error) {
	s := badgerSettings{logger: logger.Get().Named("sink.badger")}
	for _, opt := range opts {
		opt(&s)
	}

	var bopts badger.Options
	if s.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if path == "" {
			return nil, fmt.Errorf("%w: path is required for a persistent database", ErrOpen)
		}
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
		}
		bopts = badger.DefaultOptions(path)
	}
	bopts = bopts.
		WithSyncWrites(s.syncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: s.logger})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return &BadgerSink{db: db, logger: s.logger}, nil
}

func (s *BadgerSink) Name() string { return "badger" }

func divisionPrefix(division string) string {
	return "div/" + division + "/"
}

func teamPrefix(division string) string {
	return divisionPrefix(division) + "team/"
}

func teamKey(division, state, team string) []byte {
	return []byte(teamPrefix(division) + state + "/" + team)
}

func metaKey(division string) []byte {
	return []byte(divisionPrefix(division) + "meta")
}

// Write replaces everything stored for the division.
func (s *BadgerSink) Write(ctx context.Context, out *engine.Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(divisionPrefix(out.Division))); err != nil {
		return fmt.Errorf("%w: drop %s: %w", ErrWrite, out.Division, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	teams := 0
	for state, byName := range out.Teams {
		for name, tr := range byName {
			val, err := json.Marshal(tr)
			if err != nil {
				return fmt.Errorf("%w: %s %s: %w", ErrWrite, state, name, err)
			}
			if err := wb.Set(teamKey(out.Division, state, name), val); err != nil {
				return fmt.Errorf("%w: %w", ErrWrite, err)
			}
			teams++
		}
	}
	meta, err := json.Marshal(badgerMeta{
		RunID:         out.RunID,
		Registries:    out.Registries,
		Timeline:      out.Timeline,
		NationalsLoss: out.NationalsLoss,
		Tournaments:   out.Tournaments,
	})
	if err != nil {
		return fmt.Errorf("%w: meta: %w", ErrWrite, err)
	}
	if err := wb.Set(metaKey(out.Division), meta); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	s.logger.Info(ctx, "division snapshot stored",
		logger.String("division", out.Division),
		logger.String("run_id", out.RunID),
		logger.Int("teams", teams))
	return nil
}

// Read rebuilds a division output from the database.
func (s *BadgerSink) Read(ctx context.Context, division string) (*engine.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := &engine.Output{
		Division: division,
		Teams:    make(map[string]map[string]*repository.TeamRatings),
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(division))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, division)
		}
		if err != nil {
			return err
		}
		var meta badgerMeta
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &meta) }); err != nil {
			return err
		}
		out.RunID = meta.RunID
		out.Registries = meta.Registries
		out.Timeline = meta.Timeline
		out.NationalsLoss = meta.NationalsLoss
		out.Tournaments = meta.Tournaments

		prefix := []byte(teamPrefix(division))
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			state, name, ok := strings.Cut(strings.TrimPrefix(string(item.Key()), string(prefix)), "/")
			if !ok {
				continue
			}
			var tr repository.TeamRatings
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &tr) }); err != nil {
				return err
			}
			if out.Teams[state] == nil {
				out.Teams[state] = make(map[string]*repository.TeamRatings)
			}
			out.Teams[state][name] = &tr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database.
func (s *BadgerSink) Close() error {
	return s.db.Close()
}
