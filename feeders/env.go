package feeders

// EnvFeeder reads environment variables named by `env` tags without any
// prefix or suffix.
type EnvFeeder struct{}

// NewEnvFeeder creates a new EnvFeeder that reads from environment variables
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{}
}

// Feed reads environment variables and populates the provided structure
func (EnvFeeder) Feed(structure any) error {
	return AffixedEnvFeeder{}.Feed(structure)
}
