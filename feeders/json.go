package feeders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Feeder interface for common operations
type Feeder interface {
	Feed(target any) error
}

// KeyFeeder extracts a single top-level key.
type KeyFeeder interface {
	Feeder
	FeedKey(key string, target any) error
}

// feedKey is a common helper function for extracting specific keys from config files
func feedKey(
	feeder Feeder,
	key string,
	target any,
	marshalFunc func(any) ([]byte, error),
	unmarshalFunc func([]byte, any) error,
	fileType string,
) error {
	// Create a temporary map to hold all data
	var allData map[string]any

	// Use the feeder to read the file
	if err := feeder.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileType, err)
	}

	// Look for the specific key
	value, exists := allData[key]
	if !exists {
		return nil
	}

	// Remarshal and unmarshal to handle type conversions
	valueBytes, err := marshalFunc(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}

	if err = unmarshalFunc(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", fileType, err)
	}

	return nil
}

// JSONFeeder is a feeder that reads JSON files. Struct targets are filled
// through their yaml tags so durations may be written as "30s".
type JSONFeeder struct {
	Path string
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{Path: filePath}
}

// Feed decodes the whole file into target.
func (j JSONFeeder) Feed(target any) error {
	data, err := readFile(j.Path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse JSON %s: %w", j.Path, err)
	}
	doc = normalizeNumbers(doc).(map[string]any)
	if m, ok := target.(*map[string]any); ok {
		*m = doc
		return nil
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert JSON %s: %w", j.Path, err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode JSON %s: %w", j.Path, err)
	}
	return nil
}

// FeedKey reads a JSON file and extracts a specific key
func (j JSONFeeder) FeedKey(key string, target any) error {
	return feedKey(j, key, target, yaml.Marshal, yaml.Unmarshal, "JSON")
}
