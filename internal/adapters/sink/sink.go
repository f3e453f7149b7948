// Package sink persists division outputs: JSON files grouped by state for
// static consumers, and an optional badger snapshot that the API can
// restore from.
package sink

import (
	"context"
	"time"

	"github.com/okian/olyrank/internal/engine"
	"github.com/okian/olyrank/pkg/metrics"
)

// Sink receives a finished division output.
type Sink interface {
	Name() string
	Write(ctx context.Context, out *engine.Output) error
}

// Write sends out to every sink and records per-sink metrics. It stops at
// the first failure.
func Write(ctx context.Context, out *engine.Output, sinks ...Sink) error {
	for _, s := range sinks {
		start := time.Now()
		err := s.Write(ctx, out)
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordSinkWrite(s.Name(), status, float64(time.Since(start).Milliseconds()))
		if err != nil {
			return err
		}
	}
	return nil
}
