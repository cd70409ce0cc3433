package engine

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called while a run is in
	// progress. Runs are never queued; the caller simply gets rejected.
	ErrAlreadyRunning = errors.New("a run is already in progress")

	// ErrNotCompleted is returned when Rollback is requested for a
	// deployment that has not completed.
	ErrNotCompleted = errors.New("rollback requires a completed deployment")

	// ErrNoStages is returned when a deployment has nothing to run.
	ErrNoStages = errors.New("deployment has no stages")
)
