package feeders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/exercise"
)

// Supported definition formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Migrator rewrites a raw definition document before it is decoded.
type Migrator interface {
	Migrate(doc map[string]any) error
}

// MigratorFunc adapts a function to Migrator.
type MigratorFunc func(doc map[string]any) error

// Migrate implements Migrator.
func (f MigratorFunc) Migrate(doc map[string]any) error { return f(doc) }

// DefinitionOption configures definition loading.
type DefinitionOption func(*definitionLoader)

type definitionLoader struct {
	migrators []Migrator
	validate  bool
}

// WithMigrator appends a migrator. Migrators run in registration order.
func WithMigrator(m Migrator) DefinitionOption {
	return func(l *definitionLoader) { l.migrators = append(l.migrators, m) }
}

// WithoutValidation skips exercise.ValidateDefinition after decoding.
func WithoutValidation() DefinitionOption {
	return func(l *definitionLoader) { l.validate = false }
}

// FormatForPath returns the format implied by the file extension.
func FormatForPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", wrapFormatError(ext)
	}
}

// ForFile returns the file feeder matching the path's extension.
func ForFile(path string) (KeyFeeder, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return NewJSONFeeder(path), nil
	case FormatTOML:
		return NewTomlFeeder(path), nil
	default:
		return NewYamlFeeder(path), nil
	}
}

// LoadDefinition reads a definition file. The format follows the extension.
func LoadDefinition(path string, opts ...DefinitionOption) (*exercise.Definition, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition: %w", err)
	}
	defer f.Close()
	return DecodeDefinition(f, format, opts...)
}

// DecodeDefinition decodes a definition document, runs the migrators, fills
// setting defaults and validates the result.
func DecodeDefinition(r io.Reader, format string, opts ...DefinitionOption) (*exercise.Definition, error) {
	loader := &definitionLoader{validate: true}
	for _, opt := range opts {
		opt(loader)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionDecode, err)
	}
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	for _, m := range loader.migrators {
		if err := m.Migrate(doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMigration, err)
		}
	}

	// YAML is the intermediate form so duration strings such as "30s"
	// decode into time.Duration regardless of the source format.
	normalized, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionDecode, err)
	}
	def := &exercise.Definition{}
	if err := yaml.Unmarshal(normalized, def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionDecode, err)
	}
	if err := exercise.ProcessConfigDefaults(&def.Settings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionDecode, err)
	}
	if loader.validate {
		if err := exercise.ValidateDefinition(def); err != nil {
			return nil, err
		}
	}
	return def, nil
}

func decodeDocument(data []byte, format string) (map[string]any, error) {
	doc := map[string]any{}
	var err error
	switch strings.ToLower(format) {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)
		if err == nil {
			doc = normalizeNumbers(doc).(map[string]any)
		}
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, wrapFormatError(format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionDecode, err)
	}
	return doc, nil
}

// normalizeNumbers turns json.Number values into int64 or float64 so they
// survive the YAML round trip as numbers.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
