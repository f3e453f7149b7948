package engine

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrOutOfOrder = errors.New("tournament dated before the last processed tournament")
	ErrAborted    = errors.New("division run aborted")
)
