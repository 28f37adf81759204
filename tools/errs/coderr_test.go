package errs

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestCodeErrorIs(t *testing.T) {
	err := ErrMalformedPayload.WrapMsg("missing text", "conn", "42")

	if !ErrMalformedPayload.Is(err) {
		t.Fatalf("expected MalformedPayload, got %v", err)
	}
	if ErrPersistence.Is(err) {
		t.Fatalf("MalformedPayload must not match PersistenceError")
	}
	if !errors.Is(err, &ErrMalformedPayload) {
		t.Fatalf("errors.Is should see through the stack wrapper")
	}

	wrapped := WrapMsg(err, "router")
	if !ErrMalformedPayload.Is(wrapped) {
		t.Fatalf("code must survive extra wrapping")
	}
}

func TestWrapMsgDetail(t *testing.T) {
	err := ErrPersistence.WrapMsg("insert failed", "sender", "U1", "recipient")
	msg := err.Error()
	for _, want := range []string{"1602", "PersistenceError", "insert failed", "sender=U1", "recipient=MISSING"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	// the sentinel itself is untouched
	if ErrPersistence.Detail != "" {
		t.Fatalf("sentinel mutated: %q", ErrPersistence.Detail)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrArgs.Wrap(), http.StatusBadRequest},
		{ErrBadCredentials.Wrap(), http.StatusUnauthorized},
		{ErrDuplicateUser.WrapMsg("alice"), http.StatusConflict},
		{ErrRecordNotFound.Wrap(), http.StatusNotFound},
		{New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestErrPanic(t *testing.T) {
	if ErrPanic(nil) != nil {
		t.Fatal("nil recover value should produce nil error")
	}
	err := ErrPanic("boom")
	if !ErrInternalServer.Is(err) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected panic error %v", err)
	}
}

func TestWrapErrKeepsCause(t *testing.T) {
	cause := errors.Wrap(context.DeadlineExceeded, "insert message")
	err := ErrPersistence.WrapErr(cause, "create message", "sender", "u1")

	if !ErrPersistence.Is(err) {
		t.Fatalf("code lost: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause lost: %v", err)
	}
	if !strings.Contains(err.Error(), "sender=u1") || !strings.Contains(err.Error(), "deadline exceeded") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if ErrPersistence.Unwrap() != nil {
		t.Fatal("sentinel must not carry a cause")
	}
	if !ErrArgs.Is(ErrArgs.WrapErr(nil, "no cause")) {
		t.Fatal("nil cause should behave like WrapMsg")
	}
}
