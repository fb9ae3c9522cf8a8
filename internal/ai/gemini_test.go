package ai

import (
	"context"
	"errors"
	"testing"
)

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"frame.jpg":  "image/jpeg",
		"frame.png":  "image/png",
		"match.mp4":  "video/mp4",
		"match.webm": "video/webm",
		"mystery":    "image/jpeg",
	}
	for path, want := range tests {
		if got := mimeType(path); got != want {
			t.Errorf("mimeType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestServiceErrorUnwrap(t *testing.T) {
	inner := errors.New("quota exceeded")
	err := &ServiceError{Op: "generate_text", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("ServiceError should unwrap to the inner error")
	}

	var svcErr *ServiceError
	if !errors.As(error(err), &svcErr) {
		t.Error("errors.As should match *ServiceError")
	}
}

func TestNewGeminiRequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), GeminiConfig{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
