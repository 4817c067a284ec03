package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger captures log entries for verification.
type TestLogger struct {
	entries []TestLogEntry
}

type TestLogEntry struct {
	Level   string
	Message string
	Args    []any
}

func NewTestLogger() *TestLogger {
	return &TestLogger{entries: make([]TestLogEntry, 0)}
}

func (t *TestLogger) Info(msg string, args ...any) {
	t.entries = append(t.entries, TestLogEntry{Level: "info", Message: msg, Args: args})
}

func (t *TestLogger) Error(msg string, args ...any) {
	t.entries = append(t.entries, TestLogEntry{Level: "error", Message: msg, Args: args})
}

func (t *TestLogger) Warn(msg string, args ...any) {
	t.entries = append(t.entries, TestLogEntry{Level: "warn", Message: msg, Args: args})
}

func (t *TestLogger) Debug(msg string, args ...any) {
	t.entries = append(t.entries, TestLogEntry{Level: "debug", Message: msg, Args: args})
}

func (t *TestLogger) levels() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Level
	}
	return out
}

func TestWithLogValues(t *testing.T) {
	base := NewTestLogger()
	scoped := WithLogValues(base, "exercise", "ex-1")

	scoped.Info("started", "phase", "running")
	scoped.Debug("tick")

	require.Len(t, base.entries, 2)
	assert.Equal(t, []any{"exercise", "ex-1", "phase", "running"}, base.entries[0].Args)
	assert.Equal(t, []any{"exercise", "ex-1"}, base.entries[1].Args)

	t.Run("nested scopes flatten", func(t *testing.T) {
		base := NewTestLogger()
		nested := WithLogValues(WithLogValues(base, "exercise", "ex-1"), "session", "s-9")
		nested.Warn("slow preload")

		require.Len(t, base.entries, 1)
		assert.Equal(t, []any{"exercise", "ex-1", "session", "s-9"}, base.entries[0].Args)
		_, direct := nested.(*scopedLogger).inner.(*TestLogger)
		assert.True(t, direct, "nesting should not stack decorators")
	})

	t.Run("parent scope is not mutated", func(t *testing.T) {
		base := NewTestLogger()
		parent := WithLogValues(base, "exercise", "ex-1")
		_ = WithLogValues(parent, "plugin", "hud")
		parent.Error("boom")
		assert.Equal(t, []any{"exercise", "ex-1"}, base.entries[0].Args)
	})
}

func TestLevelFilterLogger(t *testing.T) {
	tests := []struct {
		min  string
		want []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"verbose", []string{"info", "warn", "error"}},
	}
	for _, tt := range tests {
		t.Run(tt.min, func(t *testing.T) {
			base := NewTestLogger()
			l := NewLevelFilterLogger(base, tt.min)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")
			assert.Equal(t, tt.want, base.levels())
		})
	}
}
