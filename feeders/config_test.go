package feeders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/exercise"
)

func TestLoadConfigLayering(t *testing.T) {
	path := writeFile(t, "runtime.yaml", "locale: es\ntimeUnit: 2s\nmaxHistory: 10\n")
	t.Setenv("EXERCISE_MAX_HISTORY", "25")
	t.Setenv("EXERCISE_STRICT_VALIDATION", "true")

	feeders, err := ConfigFeeders(path)
	require.NoError(t, err)

	var cfg exercise.Config
	require.NoError(t, LoadConfig(&cfg, feeders...))

	assert.Equal(t, "es", cfg.Locale)
	assert.Equal(t, 2*time.Second, cfg.TimeUnit)
	assert.Equal(t, 25, cfg.MaxHistory, "env overrides file")
	assert.True(t, cfg.StrictValidation)
	assert.Equal(t, "exercise-runtime", cfg.EventSource, "default kept")
}

func TestLoadConfigFormats(t *testing.T) {
	for name, body := range map[string]string{
		"runtime.json": `{"locale": "ar", "timeUnit": "500ms"}`,
		"runtime.toml": "locale = \"ar\"\ntimeUnit = \"500ms\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			f, err := ForFile(writeFile(t, name, body))
			require.NoError(t, err)
			var cfg exercise.Config
			require.NoError(t, LoadConfig(&cfg, f))
			assert.Equal(t, "ar", cfg.Locale)
			assert.Equal(t, 500*time.Millisecond, cfg.TimeUnit)
		})
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("EXERCISE_MAX_HISTORY", "-1")
	var cfg exercise.Config
	err := LoadConfig(&cfg, NewAffixedEnvFeeder(EnvPrefix, ""))
	require.Error(t, err)

	t.Setenv("EXERCISE_MAX_HISTORY", "5")
	t.Setenv("EXERCISE_TIME_UNIT", "soon")
	err = LoadConfig(&cfg, NewAffixedEnvFeeder(EnvPrefix, ""))
	require.Error(t, err)

	require.ErrorIs(t, LoadConfig(nil), exercise.ErrConfigNil)
}

func TestEnvFeeders(t *testing.T) {
	type nested struct {
		Mode exercise.SelectionMode `env:"MODE"`
	}
	type target struct {
		Name    string        `env:"NAME"`
		Limit   time.Duration `env:"LIMIT"`
		Enabled bool          `env:"ENABLED"`
		Nested  nested
		ignored string `env:"IGNORED"`
	}

	t.Setenv("NAME", "plain")
	t.Setenv("APP_NAME_DEV", "affixed")
	t.Setenv("APP_LIMIT_DEV", "90s")
	t.Setenv("APP_ENABLED_DEV", "true")
	t.Setenv("APP_MODE_DEV", "multiple")
	t.Setenv("APP_IGNORED_DEV", "x")

	var plain target
	require.NoError(t, NewEnvFeeder().Feed(&plain))
	assert.Equal(t, "plain", plain.Name)

	var affixed target
	require.NoError(t, NewAffixedEnvFeeder("app", "dev").Feed(&affixed))
	assert.Equal(t, "affixed", affixed.Name)
	assert.Equal(t, 90*time.Second, affixed.Limit)
	assert.True(t, affixed.Enabled)
	assert.Equal(t, exercise.SelectionMultiple, affixed.Nested.Mode)
	assert.Empty(t, affixed.ignored)

	require.ErrorIs(t, NewEnvFeeder().Feed(affixed), ErrEnvInvalidStructure)
}

func TestDotEnvFeeder(t *testing.T) {
	path := writeFile(t, ".env", "# runtime\nEXERCISE_LOCALE=\"es\"\nexport EXERCISE_MAX_HISTORY=7\n\nEXERCISE_EVENT_SOURCE='from-file'\n")
	t.Setenv("EXERCISE_EVENT_SOURCE", "from-env")

	var cfg exercise.Config
	require.NoError(t, LoadConfig(&cfg, NewDotEnvFeeder(path, EnvPrefix)))
	assert.Equal(t, "es", cfg.Locale)
	assert.Equal(t, 7, cfg.MaxHistory)
	assert.Equal(t, "from-env", cfg.EventSource, "process environment wins")

	bad := writeFile(t, "bad.env", "NOT A PAIR\n")
	err := NewDotEnvFeeder(bad, "").Feed(&cfg)
	require.ErrorIs(t, err, ErrDotEnvInvalidLineFormat)
}
