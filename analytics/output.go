package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GoCodeAlone/exercise"
)

var (
	ErrUnknownOutputTargetType = errors.New("unknown output target type")
	ErrMissingFilePath         = errors.New("file output target requires a path")
	ErrFileNotOpen             = errors.New("file not open")
)

// OutputConfig selects and configures one output target.
type OutputConfig struct {
	Type   string `json:"type" yaml:"type" toml:"type" default:"console" validate:"oneof=console file" desc:"Output target type (console, file)"`
	Format string `json:"format" yaml:"format" toml:"format" validate:"omitempty,oneof=json text" desc:"Line format (json, text)"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty" toml:"path" desc:"File path for the file target"`
}

// OutputTarget receives analytics CloudEvents.
type OutputTarget interface {
	// Start initializes the output target
	Start(ctx context.Context) error

	// Stop shuts down the output target
	Stop(ctx context.Context) error

	// WriteEvent writes one event
	WriteEvent(event cloudevents.Event) error

	// Flush ensures all buffered events are written
	Flush() error
}

// NewOutputTarget creates a target from config.
func NewOutputTarget(config OutputConfig, logger exercise.Logger) (OutputTarget, error) {
	switch config.Type {
	case "", "console":
		return NewConsoleTarget(os.Stdout, config.Format, logger), nil
	case "file":
		return NewFileTarget(config.Path, config.Format, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutputTargetType, config.Type)
	}
}

// ConsoleTarget writes one line per event to a writer. Text is the default
// format.
type ConsoleTarget struct {
	mu     sync.Mutex
	writer io.Writer
	format string
	logger exercise.Logger
}

// NewConsoleTarget creates a console target writing to w.
func NewConsoleTarget(w io.Writer, format string, logger exercise.Logger) *ConsoleTarget {
	if format == "" {
		format = "text"
	}
	if logger == nil {
		logger = exercise.NopLogger()
	}
	return &ConsoleTarget{writer: w, format: format, logger: logger}
}

// Start initializes the console target.
func (c *ConsoleTarget) Start(ctx context.Context) error {
	c.logger.Debug("Console output target started")
	return nil
}

// Stop shuts down the console target.
func (c *ConsoleTarget) Stop(ctx context.Context) error {
	c.logger.Debug("Console output target stopped")
	return nil
}

// WriteEvent writes an event to the console.
func (c *ConsoleTarget) WriteEvent(event cloudevents.Event) error {
	line, err := formatEvent(event, c.format)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.writer, line); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

// Flush is a no-op for console output.
func (c *ConsoleTarget) Flush() error {
	return nil
}

// FileTarget appends one line per event to a file. JSON is the default
// format.
type FileTarget struct {
	mu     sync.Mutex
	path   string
	format string
	logger exercise.Logger
	file   *os.File
}

// NewFileTarget creates a file target. The parent directory is created.
func NewFileTarget(path, format string, logger exercise.Logger) (*FileTarget, error) {
	if path == "" {
		return nil, ErrMissingFilePath
	}
	if format == "" {
		format = "json"
	}
	if logger == nil {
		logger = exercise.NopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create analytics directory %s: %w", filepath.Dir(path), err)
	}
	return &FileTarget{path: path, format: format, logger: logger}, nil
}

// Start opens the file for appending.
func (f *FileTarget) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open analytics file %s: %w", f.path, err)
	}
	f.file = file
	f.logger.Debug("File output target started", "path", f.path)
	return nil
}

// Stop closes the file.
func (f *FileTarget) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	f.logger.Debug("File output target stopped")
	if err != nil {
		return fmt.Errorf("failed to close analytics file: %w", err)
	}
	return nil
}

// WriteEvent appends an event.
func (f *FileTarget) WriteEvent(event cloudevents.Event) error {
	line, err := formatEvent(event, f.format)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return ErrFileNotOpen
	}
	if _, err := fmt.Fprintln(f.file, line); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// Flush syncs the file.
func (f *FileTarget) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

func formatEvent(event cloudevents.Event, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.Marshal(event)
		if err != nil {
			return "", fmt.Errorf("failed to marshal event to JSON: %w", err)
		}
		return string(data), nil
	default:
		return formatText(event), nil
	}
}

// formatText renders "<time> <type> [<subject>] k=v ..." with sorted keys.
func formatText(event cloudevents.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", event.Time().Format("2006-01-02 15:04:05"), event.Type())
	if s := event.Subject(); s != "" {
		fmt.Fprintf(&b, " [%s]", s)
	}

	var data map[string]any
	if err := event.DataAs(&data); err == nil && len(data) > 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, data[k])
		}
	}
	return b.String()
}
