package sink

import "errors"

// Sentinel kinds for sink errors.
var (
	ErrWrite    = errors.New("sink write failed")
	ErrOpen     = errors.New("sink open failed")
	ErrNotFound = errors.New("division not stored")
)
