// Package loader reads SciolyFF YAML result files into tournament records.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/pkg/logger"
	"github.com/okian/olyrank/pkg/metrics"
)

// Loader reads one results directory.
type Loader struct {
	dir         string
	concurrency int
	logger      logger.Logger
}

// New creates a Loader for dir.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:         dir,
		concurrency: 8,
		logger:      logger.Get().Named("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Files returns the division's result files under the directory, sorted by
// name. A file belongs to division D when named *_d.yaml or *_d.yml.
func (l *Loader) Files(division string) ([]string, error) {
	suffixes := []string{
		"_" + strings.ToLower(division) + ".yaml",
		"_" + strings.ToLower(division) + ".yml",
	}
	var files []string
	err := filepath.WalkDir(l.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadResults, l.dir, err)
	}
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})
	return files, nil
}

// Load parses every result file of the division in parallel. Records keep
// the file order.
func (l *Loader) Load(ctx context.Context, division string) ([]*model.TournamentRecord, error) {
	files, err := l.Files(division)
	if err != nil {
		return nil, err
	}

	records := make([]*model.TournamentRecord, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrReadResults, path, err)
			}
			rec, err := Parse(filepath.Base(path), data)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("loader", "parse")
		return nil, err
	}

	metrics.RecordFilesLoaded(division, len(records))
	l.logger.Info(ctx, "results loaded",
		logger.String("division", division),
		logger.String("dir", l.dir),
		logger.Int("files", len(records)))
	return records, nil
}
