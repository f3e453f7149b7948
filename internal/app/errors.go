package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoLoader         = errors.New("no loader configured")
	ErrNoDivisions      = errors.New("no divisions requested")
	ErrCompute          = errors.New("compute failed")
	ErrNoResult         = errors.New("division produced no result")
	ErrPublish          = errors.New("publish failed")
	ErrRestore          = errors.New("restore failed")
	ErrDivisionNotFound = errors.New("division not found")
	ErrBoardNotFound    = errors.New("leaderboard not found")
)
