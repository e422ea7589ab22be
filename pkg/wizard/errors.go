package wizard

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

var (
	ErrUnknownStep = errors.New("wizard: unknown step")
	// ErrStepMismatch means the submitted step is not the current one, e.g. a
	// stale browser tab or a forged current_step field.
	ErrStepMismatch   = errors.New("wizard: submitted step does not match current step")
	ErrNoTransition   = errors.New("wizard: no transition from step")
	ErrStepIncomplete = errors.New("wizard: earlier step has no validated data")
)

// TransitionError describes a rejected transition.
type TransitionError struct {
	From Step
	To   Step
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("wizard: transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// ValidationError carries per-field messages for re-rendering a step.
// The empty key holds errors not tied to a field.
type ValidationError struct {
	Fields url.Values
}

// NewValidationError creates an error with one message for field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{Fields: url.Values{}}
	v.Fields.Add(field, message)
	return v
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = url.Values{}
	}
	e.Fields.Add(field, message)
	return e
}

// Get returns the messages for field.
func (e *ValidationError) Get(field string) []string {
	return e.Fields[field]
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		name := field
		if name == "" {
			name = "form"
		}
		parts = append(parts, name+": "+strings.Join(e.Fields[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries field messages.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
