package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "template %s not found", "tpl-1")
	if KindOf(err) != NotFound {
		t.Errorf("expected NotFound kind, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("expected zero kind for unclassified error")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := New(ConcurrentModification, "note version changed")
	outer := fmt.Errorf("finalize note: %w", inner)
	if KindOf(outer) != ConcurrentModification {
		t.Error("expected kind to survive fmt.Errorf wrapping")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(NotFound, cause, "note lookup")
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{Validation, http.StatusBadRequest},
		{InvalidContext, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{InvalidState, http.StatusConflict},
		{TemplateInactive, http.StatusConflict},
		{ConcurrentModification, http.StatusPreconditionFailed},
		{RecommendationUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := HTTPStatus(New(tc.kind, "x")); got != tc.status {
			t.Errorf("kind %v: expected status %d, got %d", tc.kind, tc.status, got)
		}
	}
	if HTTPStatus(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("expected 500 for unclassified error")
	}
}
