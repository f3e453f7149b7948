package loader

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrReadResults = errors.New("read results failed")
	ErrParseResult = errors.New("parse result file failed")
)
