package collector

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called on a running collector.
	ErrAlreadyRunning = errors.New("collector already running")

	// ErrNotRunning is returned when Stop is called on a stopped collector.
	ErrNotRunning = errors.New("collector not running")

	// ErrShutdownTimeout is returned when the collection loop does not exit in time.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

	// ErrNoEntities is returned when there is nothing to collect from.
	ErrNoEntities = errors.New("no entities configured")

	// ErrAllFailed is returned when every entity in a round failed.
	ErrAllFailed = errors.New("all entities failed")
)
