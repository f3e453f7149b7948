package repository

import "errors"

// Sentinel kinds for store and leaderboard errors.
var (
	ErrNotFound     = errors.New("team not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrHistoryOrder = errors.New("history entry predates last entry")
)
