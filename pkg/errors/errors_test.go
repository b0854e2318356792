package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeStateConflict)
	if meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for state conflict, got %d", meta.HTTPStatus)
	}

	fallback := MetadataFor(Code("NOT_A_CODE"))
	if fallback.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to internal error, got %d", fallback.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "store unavailable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %q", err.Code())
	}
}

func TestAs(t *testing.T) {
	typed := New(CodeNotFound, "missing")
	wrapped := fmt.Errorf("outer: %w", typed)

	if got := As(wrapped); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As should recover the typed error, got %v", got)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As should return nil for untyped errors")
	}
}

func TestDump(t *testing.T) {
	err := Wrap(CodeConflict, stdErrors.New("inner"), "outer")
	dump := Dump(err)

	if dump.Code != CodeConflict {
		t.Fatalf("unexpected code %q", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
