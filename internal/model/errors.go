package model

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent matches every *MalformedEventError via errors.Is.
var ErrMalformedEvent = errors.New("malformed event")

// MalformedEventError reports a raw record the normalizer could not use.
// Sources are expected to log and skip these; layout never sees them.
type MalformedEventError struct {
	CalendarID string
	ID         string
	Field      string
	Err        error
}

func (e *MalformedEventError) Error() string {
	id := e.ID
	if id == "" {
		id = "?"
	}
	if e.Err != nil {
		return fmt.Sprintf("model: malformed event %s/%s: %s: %v", e.CalendarID, id, e.Field, e.Err)
	}
	return fmt.Sprintf("model: malformed event %s/%s: %s", e.CalendarID, id, e.Field)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

func (e *MalformedEventError) Is(target error) bool {
	return target == ErrMalformedEvent
}
