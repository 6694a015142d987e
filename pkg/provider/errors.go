package provider

import (
	"errors"
	"fmt"
)

// StatusError is returned when a round trip comes back with a non-success
// status. It aborts the whole call; no partial result is returned.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// ErrNoCandidates is returned when a response is structurally expected to
// contain a candidate and does not. Distinct from a non-success status.
var ErrNoCandidates = errors.New("response contained no candidates")

// ErrToolLoop is returned when the tool-continuation loop exceeds its round
// limit.
var ErrToolLoop = errors.New("tool loop exceeded round limit")

// ErrMissingExecutor is returned when the model requests a tool but no
// executor was supplied.
var ErrMissingExecutor = errors.New("missing tool executor")
