package exercise

import (
	"fmt"
	"time"
)

// Config holds the runtime configuration supplied alongside a Definition.
// Fields carry `default` tags processed by ProcessConfigDefaults and
// `validate` tags checked by ValidateConfig.
type Config struct {
	// StrictValidation makes schema failures fatal during Initialize.
	StrictValidation bool `json:"strictValidation" yaml:"strictValidation" toml:"strictValidation" env:"STRICT_VALIDATION" desc:"Fail initialization when the definition does not satisfy the schema"`

	// RequireMedia makes media preload failures fatal during Initialize.
	RequireMedia bool `json:"requireMedia" yaml:"requireMedia" toml:"requireMedia" env:"REQUIRE_MEDIA" desc:"Fail initialization when media cannot be preloaded"`

	TimeUnit   time.Duration `json:"timeUnit" yaml:"timeUnit" toml:"timeUnit" env:"TIME_UNIT" default:"1s" validate:"gt=0" desc:"Timer tick granularity"`
	Locale     string        `json:"locale" yaml:"locale" toml:"locale" env:"LOCALE" default:"en" desc:"Locale used for announcements and explanations"`
	MaxHistory int           `json:"maxHistory" yaml:"maxHistory" toml:"maxHistory" env:"MAX_HISTORY" default:"50" validate:"gte=1" desc:"Number of answer records retained"`

	MuteAnnouncements bool `json:"muteAnnouncements" yaml:"muteAnnouncements" toml:"muteAnnouncements" env:"MUTE_ANNOUNCEMENTS" desc:"Suppress accessibility announcements"`

	// EventSource is the CloudEvents source attribute for analytics events.
	EventSource string `json:"eventSource" yaml:"eventSource" toml:"eventSource" env:"EVENT_SOURCE" default:"exercise-runtime" desc:"CloudEvents source for analytics events"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	var cfg Config
	// defaults on Config are static and known to parse
	_ = ProcessConfigDefaults(&cfg)
	return cfg
}

// Prepare applies defaults and validates the config in place.
func (c *Config) Prepare() error {
	if err := ProcessConfigDefaults(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if err := ValidateConfig(c); err != nil {
		return err
	}
	return nil
}
