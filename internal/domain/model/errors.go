package model

import "errors"

// Sentinel kinds for record validation.
var (
	ErrMissingState  = errors.New("missing state code")
	ErrInvalidRecord = errors.New("invalid tournament record")
)
