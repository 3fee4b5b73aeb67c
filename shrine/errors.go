package shrine

import (
	"errors"
	"fmt"
)

var (
	// ErrActorUnavailable is returned when a call cannot be delivered to the worker or
	// its reply can no longer arrive: the shrine was torn down, the summoner failed,
	// or the caller stopped waiting. Callers should treat the shrine as gone.
	ErrActorUnavailable = errors.New("shrine: actor unavailable")

	// ErrWorkItemFailed wraps the error returned (or panic raised) by a single
	// dispatched closure. It never affects other calls.
	ErrWorkItemFailed = errors.New("shrine: work item failed")

	ErrNilSummoner     = errors.New("shrine: summoner must not be nil")
	ErrInvalidCapacity = errors.New("shrine: queue capacity must not be negative")

	errReplyLost    = errors.New("worker exited before replying")
	errShuttingDown = errors.New("shrine is shutting down")
)

// PanicError carries a panic recovered on the worker thread.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func workItemFailed(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrWorkItemFailed, err)
}
