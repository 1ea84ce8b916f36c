package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("title is required"), http.StatusBadRequest},
		{"conflict", Conflict("user already exists"), http.StatusConflict},
		{"not found", NotFound("video not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("invalid credentials", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("not the owner"), http.StatusForbidden},
		{"unavailable", Unavailable("store failure", errors.New("conn reset")), http.StatusInternalServerError},
		{"deadline", Unavailable("store failure", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("channel not found")), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Fatalf("Status() = %d want %d", got, tc.want)
			}
		})
	}
}

func TestErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := Unauthorized("invalid refresh token", cause)

	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected kind to match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to match")
	}
	if Message(err) != "invalid refresh token" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestMessageHidesUnclassifiedErrors(t *testing.T) {
	if got := Message(errors.New(`pq: relation "users" does not exist`)); got != "internal server error" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(Unavailable("failed to load video", context.DeadlineExceeded)); got != "service temporarily unavailable, retry later" {
		t.Fatalf("unexpected message %q", got)
	}
}
