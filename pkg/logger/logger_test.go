package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf, Level: zerolog.InfoLevel})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithUserID(ctx, "user-456")
	logg.Info(ctx, "hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-123"`, `"user_id":"user-456"`, `"service":"test"`, `"message":"hello"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output: %s", want, out)
		}
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("db down"))

	out := buf.String()
	if !strings.Contains(out, `"error":"db down"`) {
		t.Fatalf("expected error field: %s", out)
	}
	if !strings.Contains(out, `"stack":`) {
		t.Fatalf("expected stack field: %s", out)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
	if got := ParseLevel("Debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %s", got)
	}
}
