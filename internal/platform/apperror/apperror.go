// Package apperror defines the typed error taxonomy shared by the note
// synthesis pipeline. Handlers map kinds to HTTP statuses; services return
// these so callers can distinguish retryable conflicts from caller mistakes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline error.
type Kind int

const (
	// Validation indicates malformed input that the caller can correct.
	Validation Kind = iota + 1
	// NotFound indicates a missing template, patient, note or view.
	NotFound
	// InvalidState indicates an illegal lifecycle transition.
	InvalidState
	// ConcurrentModification indicates an optimistic-lock conflict;
	// the caller should re-fetch and retry.
	ConcurrentModification
	// RecommendationUnavailable indicates the recommendation service
	// failed or timed out; the pipeline continues in degraded mode.
	RecommendationUnavailable
	// TemplateInactive indicates the template version was superseded and
	// the caller did not pin a specific version.
	TemplateInactive
	// InvalidContext indicates the processing context references a
	// patient that does not exist.
	InvalidContext
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case InvalidState:
		return "invalid_state"
	case ConcurrentModification:
		return "concurrent_modification"
	case RecommendationUnavailable:
		return "recommendation_unavailable"
	case TemplateInactive:
		return "template_inactive"
	case InvalidContext:
		return "invalid_context"
	}
	return "unknown"
}

// Error is a classified pipeline error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to an HTTP status code. Unclassified
// errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation, InvalidContext:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case InvalidState, TemplateInactive:
		return http.StatusConflict
	case ConcurrentModification:
		return http.StatusPreconditionFailed
	case RecommendationUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
