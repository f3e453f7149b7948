package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/engine"
	"github.com/okian/olyrank/pkg/logger"
)

// StatesPerGroup is how many states share one group file.
const StatesPerGroup = 10

// FileMeta is the content of meta.json.
type FileMeta struct {
	RunID         string                         `json:"runId"`
	Teams         []string                       `json:"teams"`
	Events        []string                       `json:"events"`
	Tournaments   []string                       `json:"tournaments"`
	States        map[string]string              `json:"states"`
	StateToGroup  map[string]int                 `json:"stateToGroup"`
	StateGroups   [][]string                     `json:"stateGroups"`
	Timeline      map[int][]engine.TimelineEntry `json:"tournamentTimeline"`
	NationalsLoss float64                        `json:"nationalsLoss"`
}

// FileSink writes <dir>/states<division>/group-N.json and meta.json.
type FileSink struct {
	dir    string
	logger logger.Logger
}

// NewFileSink creates a FileSink rooted at dir.
func NewFileSink(dir string, opts ...FileOption) *FileSink {
	s := &FileSink{dir: dir, logger: logger.Get().Named("sink.files")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileSink) Name() string { return "files" }

// Dir returns the output directory of a division.
func (s *FileSink) Dir(division string) string {
	return filepath.Join(s.dir, "states"+division)
}

// Write replaces the division's files. Only the 50 states and DC are
// written; other codes are dropped.
func (s *FileSink) Write(ctx context.Context, out *engine.Output) error {
	dir := s.Dir(out.Division)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, dir, err)
	}

	codes := make([]string, 0, len(out.Teams))
	for code := range out.Teams {
		codes = append(codes, code)
	}
	states := model.KnownStates(codes)

	meta := FileMeta{
		RunID:         out.RunID,
		Teams:         out.Registries.Teams,
		Events:        out.Registries.Events,
		Tournaments:   out.Registries.Tournaments,
		States:        make(map[string]string, len(states)),
		StateToGroup:  make(map[string]int, len(states)),
		Timeline:      out.Timeline,
		NationalsLoss: out.NationalsLoss,
	}
	for i := 0; i < len(states); i += StatesPerGroup {
		group := states[i:min(i+StatesPerGroup, len(states))]
		for _, code := range group {
			meta.States[code] = model.StateName(code)
			meta.StateToGroup[code] = len(meta.StateGroups)
		}
		meta.StateGroups = append(meta.StateGroups, group)
	}

	g, gctx := errgroup.WithContext(ctx)
	for n, group := range meta.StateGroups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc := make(map[string]map[string]*repository.TeamRatings, len(group))
			for _, code := range group {
				doc[code] = out.Teams[code]
			}
			return writeJSON(filepath.Join(dir, fmt.Sprintf("group-%d.json", n)), doc)
		})
	}
	g.Go(func() error {
		return writeJSON(filepath.Join(dir, "meta.json"), meta)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info(ctx, "division files written",
		logger.String("division", out.Division),
		logger.String("dir", dir),
		logger.Int("groups", len(meta.StateGroups)),
		logger.Int("dropped_states", len(codes)-len(states)))
	return nil
}

// writeJSON writes through a temp file so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // public output files
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return nil
}
