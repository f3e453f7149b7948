package service

import (
	"github.com/okian/olyrank/internal/adapters/sink"
	"github.com/okian/olyrank/internal/domain/rating"
	"github.com/okian/olyrank/internal/domain/reclass"
	"github.com/okian/olyrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many divisions are recomputed in parallel.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the job queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoader sets where tournament records come from.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		s.loader = l
	}
}

// WithRestorer sets where Restore reads snapshots from.
func WithRestorer(r Restorer) Option {
	return func(s *Service) {
		s.restorer = r
	}
}

// WithSinks appends output sinks. Nil sinks are ignored.
func WithSinks(sinks ...sink.Sink) Option {
	return func(s *Service) {
		for _, sk := range sinks {
			if sk != nil {
				s.sinks = append(s.sinks, sk)
			}
		}
	}
}

// WithRatingParams overrides the rating constants.
func WithRatingParams(p rating.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithReclassParams overrides the reclassification thresholds.
func WithReclassParams(p reclass.Params) Option {
	return func(s *Service) {
		s.reclassParams = p
	}
}

// WithSeasonsToInclude keeps only the n most recent seasons; 0 keeps all.
func WithSeasonsToInclude(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.seasonsToInclude = n
		}
	}
}

// WithResultsBaseURL sets the prefix joined with result file stems in
// history and timeline links.
func WithResultsBaseURL(base string) Option {
	return func(s *Service) {
		s.resultsURL = base
	}
}
