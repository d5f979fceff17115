package types

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when a run is cancelled between chunks.
var ErrAborted = errors.New("pipeline aborted")

// SourceResolutionError means the transcript could not be read or fetched.
type SourceResolutionError struct {
	Source string
	Err    error
}

func (e *SourceResolutionError) Error() string {
	return fmt.Sprintf("could not read or fetch source %q: %v", e.Source, e.Err)
}

func (e *SourceResolutionError) Unwrap() error { return e.Err }

// ModelInvocationError means a cleaning call failed. Chunk is the zero-based
// sequence index of the chunk being cleaned.
type ModelInvocationError struct {
	Chunk int
	Err   error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("cleaning service unavailable (chunk %d): %v", e.Chunk+1, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// PersistenceError means the final document could not be written.
type PersistenceError struct {
	Destination string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not save output to %s: %v", e.Destination, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrorKind classifies err for user-facing messages and reports.
func ErrorKind(err error) string {
	var (
		srcErr   *SourceResolutionError
		modelErr *ModelInvocationError
		persErr  *PersistenceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &srcErr):
		return "source"
	case errors.As(err, &modelErr):
		return "model"
	case errors.As(err, &persErr):
		return "persistence"
	case errors.Is(err, ErrAborted):
		return "aborted"
	default:
		return "unknown"
	}
}
