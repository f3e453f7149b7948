package engine

import (
	"strings"

	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStore replaces the in-memory rating store.
func WithStore(s repository.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.state.Store = s
		}
	}
}

// WithSeasonsToInclude keeps only the n most recent seasons in Run.
// n <= 0 keeps every season.
func WithSeasonsToInclude(n int) Option {
	return func(e *Engine) {
		e.seasons = n
	}
}

// WithResultsBaseURL prefixes history and timeline links, which otherwise
// hold the bare result file stem.
func WithResultsBaseURL(base string) Option {
	return func(e *Engine) {
		e.resultsURL = strings.TrimSpace(base)
	}
}
