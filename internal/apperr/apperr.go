// Package apperr carries machine-readable failure reasons from the adaptive
// core to whatever transport layer serializes them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason is a stable, machine-readable failure code.
type Reason string

const (
	ReasonMissingStudent     Reason = "missing_student_id"
	ReasonNoActivePath       Reason = "no_active_path"
	ReasonAssessmentNotFound Reason = "assessment_not_found"
	ReasonNoValidQuestions   Reason = "no_valid_questions"
	ReasonInvalidGradeBand   Reason = "invalid_grade_band"
	ReasonInvalidEvent       Reason = "invalid_event"
	ReasonEntryNotFound      Reason = "entry_not_found"
	ReasonInvalidConfig      Reason = "invalid_config"
)

// Error is a request-fatal failure with a reason code.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the reason onto the HTTP status a transport should return.
func (e *Error) Status() int {
	switch e.Reason {
	case ReasonMissingStudent, ReasonInvalidGradeBand, ReasonInvalidEvent, ReasonInvalidConfig:
		return http.StatusBadRequest
	case ReasonNoActivePath, ReasonAssessmentNotFound, ReasonEntryNotFound:
		return http.StatusNotFound
	case ReasonNoValidQuestions:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// New creates an Error with a formatted message.
func New(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Err: fmt.Errorf(format, args...)}
}

// ReasonOf returns the reason of the first *Error in err's chain, or "".
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Is reports whether err carries the given reason.
func Is(err error, reason Reason) bool {
	return err != nil && ReasonOf(err) == reason
}
