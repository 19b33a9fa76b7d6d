package board

import (
	"errors"
	"fmt"
)

// Persist failures, classified by how the queue reconciles them
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTransport       = errors.New("transport failure")
	ErrTimeout         = errors.New("persist timed out")
)

var (
	// ErrNotApplied means the command did not change local state and was not sent
	ErrNotApplied = errors.New("mutation does not apply to local state")
	// ErrAborted is reported for queued commands dropped by a rollback or refetch
	ErrAborted = errors.New("mutation aborted before it was sent")
)

// PersistError is a failed persist request with its classification
type PersistError struct {
	Kind    error
	Status  int
	Code    string
	Message string
}

func (e *PersistError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%v (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *PersistError) Unwrap() error {
	return e.Kind
}

// NeedsRefetch reports whether local state can no longer be trusted and must be reloaded.
// Everything else is repaired by rolling the lane back.
func NeedsRefetch(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnauthenticated)
}
