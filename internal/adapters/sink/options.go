package sink

import "github.com/okian/olyrank/pkg/logger"

// FileOption applies a configuration option to the FileSink.
type FileOption func(*FileSink)

// WithFileLogger sets the file sink's logger.
func WithFileLogger(l logger.Logger) FileOption {
	return func(s *FileSink) {
		if l != nil {
			s.logger = l
		}
	}
}

// BadgerOption applies a configuration option to the BadgerSink.
type BadgerOption func(*badgerSettings)

type badgerSettings struct {
	inMemory   bool
	syncWrites bool
	logger     logger.Logger
}

// WithInMemory keeps the badger database in memory.
func WithInMemory() BadgerOption {
	return func(s *badgerSettings) {
		s.inMemory = true
	}
}

// WithSyncWrites fsyncs every write.
func WithSyncWrites(enabled bool) BadgerOption {
	return func(s *badgerSettings) {
		s.syncWrites = enabled
	}
}

// WithBadgerLogger sets the badger sink's logger. Badger's internal
// messages are forwarded to it at debug level.
func WithBadgerLogger(l logger.Logger) BadgerOption {
	return func(s *badgerSettings) {
		if l != nil {
			s.logger = l
		}
	}
}
