package accrual

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when a batch has no eligible movements at all.
// An empty batch has no defined date range, so the run fails fast instead of
// producing a degenerate timeline.
var ErrEmptyInput = errors.New("accrual: no eligible daily movements in batch")

// IntegrityViolationError reports every invariant violated at one stage
// boundary. The whole list is collected before failing so that a single run
// surfaces all defects of the failing stage, not just the first one found.
type IntegrityViolationError struct {
	Stage      string
	Violations []string
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf("stage %s failed integrity validation:\n%s",
		e.Stage, strings.Join(e.Violations, "\n"))
}

// AsIntegrityViolation unwraps err into an *IntegrityViolationError if it is
// one, following wrapped chains.
func AsIntegrityViolation(err error) (*IntegrityViolationError, bool) {
	var ive *IntegrityViolationError
	if errors.As(err, &ive) {
		return ive, true
	}
	return nil, false
}
