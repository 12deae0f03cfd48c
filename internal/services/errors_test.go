package services_test

import (
	"errors"
	"strings"
	"testing"

	"breathein/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "video", "ffmpeg", "encode failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	for _, fragment := range []string{"video", "ffmpeg", "encode failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error string %q", fragment, err.Error())
		}
	}
}

func TestFailureKind(t *testing.T) {
	cases := map[string]error{
		"configuration": services.Wrap(services.ErrConfiguration, "youtube", "client secret", "missing", nil),
		"auth":          services.Wrap(services.ErrAuth, "youtube", "token", "", nil),
		"not_found":     services.Wrap(services.ErrNotFound, "video", "assets", "", nil),
		"external_tool": errors.New("plain"),
		"":              nil,
	}
	for want, err := range cases {
		if got := services.FailureKind(err); got != want {
			t.Fatalf("FailureKind(%v) = %q, want %q", err, got, want)
		}
	}
	if hint := services.Hint(services.Wrap(services.ErrAuth, "", "", "", nil)); !strings.Contains(hint, "breathein auth") {
		t.Fatalf("unexpected auth hint: %q", hint)
	}
}
