package feeders

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GoCodeAlone/exercise"
)

// ErrDotEnvInvalidLineFormat is returned for lines without a '='.
var ErrDotEnvInvalidLineFormat = errors.New("invalid .env line format")

// DotEnvFeeder reads KEY=value pairs from a .env file and applies them to
// `env`-tagged fields. Variables already set in the process environment
// win over file values. The file is never written to the environment.
type DotEnvFeeder struct {
	Path   string
	Prefix string
	logger exercise.Logger
}

// NewDotEnvFeeder creates a new DotEnvFeeder that reads from the specified .env file
func NewDotEnvFeeder(filePath, prefix string) *DotEnvFeeder {
	return &DotEnvFeeder{Path: filePath, Prefix: prefix, logger: exercise.NopLogger()}
}

// SetLogger enables debug logging of parsed keys.
func (f *DotEnvFeeder) SetLogger(logger exercise.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// Feed parses the file and populates the structure.
func (f *DotEnvFeeder) Feed(structure any) error {
	vars, err := f.parse()
	if err != nil {
		return fmt.Errorf("failed to parse .env file: %w", err)
	}
	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := vars[name]
		return v, ok
	}
	return feedStruct(structure, strings.ToUpper(f.Prefix), "", lookup)
}

func (f *DotEnvFeeder) parse() (map[string]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseEnvLine(strings.TrimPrefix(line, "export "), lineNum)
		if err != nil {
			return nil, err
		}
		vars[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	f.logger.Debug("Parsed .env file", "path", f.Path, "vars", len(vars))
	return vars, nil
}

func parseEnvLine(line string, lineNum int) (string, string, error) {
	idx := strings.Index(line, "=")
	if idx == -1 {
		return "", "", fmt.Errorf("%w at line %d: %s", ErrDotEnvInvalidLineFormat, lineNum, line)
	}
	key := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, nil
}
