package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrUnknownObjectType = errors.New("unknown object type")
	ErrPayloadMismatch   = errors.New("payload does not match event type")
	ErrMissingField      = errors.New("required field missing")
	ErrUnexpectedField   = errors.New("unexpected field")
	ErrInvalidValue      = errors.New("invalid value")
)

// IntegrityError reports a history record that violates the event model.
// It is scoped to a single record.
type IntegrityError struct {
	ID        EventID
	EventType EventType
	Field     string
	Err       error
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("event %s (%s)", e.ID, e.EventType)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	return msg + ": " + e.Err.Error()
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// IsIntegrityError reports whether err is or wraps an *IntegrityError.
func IsIntegrityError(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}
