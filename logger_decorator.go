package exercise

// scopedLogger injects fixed key-value pairs into every log call. The
// runtime wraps the host logger with one so each line carries the exercise
// id and analytics session id.
type scopedLogger struct {
	inner Logger
	args  []any
}

// WithLogValues returns a Logger that prepends args to every call on inner.
func WithLogValues(inner Logger, args ...any) Logger {
	if existing, ok := inner.(*scopedLogger); ok {
		combined := make([]any, 0, len(existing.args)+len(args))
		combined = append(combined, existing.args...)
		combined = append(combined, args...)
		return &scopedLogger{inner: existing.inner, args: combined}
	}
	return &scopedLogger{inner: inner, args: args}
}

func (l *scopedLogger) combine(args []any) []any {
	if len(l.args) == 0 {
		return args
	}
	if len(args) == 0 {
		return l.args
	}
	combined := make([]any, 0, len(l.args)+len(args))
	combined = append(combined, l.args...)
	combined = append(combined, args...)
	return combined
}

func (l *scopedLogger) Info(msg string, args ...any)  { l.inner.Info(msg, l.combine(args)...) }
func (l *scopedLogger) Error(msg string, args ...any) { l.inner.Error(msg, l.combine(args)...) }
func (l *scopedLogger) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.combine(args)...) }
func (l *scopedLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, l.combine(args)...) }

// LevelFilterLogger drops calls below a minimum level. Levels are ordered
// debug < info < warn < error.
type LevelFilterLogger struct {
	inner Logger
	min   int
}

var logLevels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// NewLevelFilterLogger creates a filter that forwards calls at or above
// minLevel. An unknown level behaves like "info".
func NewLevelFilterLogger(inner Logger, minLevel string) *LevelFilterLogger {
	lvl, ok := logLevels[minLevel]
	if !ok {
		lvl = logLevels["info"]
	}
	return &LevelFilterLogger{inner: inner, min: lvl}
}

func (l *LevelFilterLogger) Debug(msg string, args ...any) {
	if l.min <= logLevels["debug"] {
		l.inner.Debug(msg, args...)
	}
}

func (l *LevelFilterLogger) Info(msg string, args ...any) {
	if l.min <= logLevels["info"] {
		l.inner.Info(msg, args...)
	}
}

func (l *LevelFilterLogger) Warn(msg string, args ...any) {
	if l.min <= logLevels["warn"] {
		l.inner.Warn(msg, args...)
	}
}

func (l *LevelFilterLogger) Error(msg string, args ...any) {
	l.inner.Error(msg, args...)
}
