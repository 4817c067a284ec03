package feeders

import (
	"errors"
	"fmt"
)

// Env feeder errors
var (
	ErrEnvInvalidStructure = errors.New("env: invalid structure")
	ErrEnvCannotSet        = errors.New("env: field cannot be set")
)

// File feeder errors
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyPath         = errors.New("feeder path is empty")
)

// Definition loading errors
var (
	ErrDefinitionDecode = errors.New("failed to decode definition")
	ErrMigration        = errors.New("definition migration failed")
)

func wrapFormatError(format string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
