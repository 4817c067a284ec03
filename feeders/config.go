package feeders

import (
	"fmt"

	"github.com/GoCodeAlone/exercise"
)

// EnvPrefix is the prefix LoadConfig uses for environment overrides,
// e.g. EXERCISE_LOCALE.
const EnvPrefix = "EXERCISE"

// LoadConfig applies defaults to cfg, then runs each feeder in order, then
// validates. Later feeders override earlier ones.
func LoadConfig(cfg *exercise.Config, feeders ...Feeder) error {
	if cfg == nil {
		return exercise.ErrConfigNil
	}
	if err := exercise.ProcessConfigDefaults(cfg); err != nil {
		return err
	}
	for i, f := range feeders {
		if err := f.Feed(cfg); err != nil {
			return fmt.Errorf("config feeder %d (%T): %w", i, f, err)
		}
	}
	return cfg.Prepare()
}

// ConfigFeeders returns the standard feeder chain: the file at path, when
// non-empty, followed by EXERCISE_* environment variables.
func ConfigFeeders(path string) ([]Feeder, error) {
	var out []Feeder
	if path != "" {
		f, err := ForFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return append(out, NewAffixedEnvFeeder(EnvPrefix, "")), nil
}
