package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]any{"student_id", "s1", "redis_password", "hunter2", "API_KEY", "k"})
	assert.Equal(t, []any{"student_id", "s1", "redis_password", "[REDACTED]", "API_KEY", "[REDACTED]"}, got)
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	got := sanitizeKVs([]any{"a", 1, "dangling"})
	assert.Equal(t, []any{"a", 1, "dangling"}, got)
}

func TestWarnEmitsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Warn("attempt read failed", "student_id", "s1", "token", "abc")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "s1", fields["student_id"])
	assert.Equal(t, "[REDACTED]", fields["token"])
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
