// Package schema validates exercise definitions against an embedded JSON
// schema plus a handful of cross-field rules the schema cannot express.
package schema

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/GoCodeAlone/exercise"
)

// SchemaURL is the id the embedded schema is registered under.
const SchemaURL = "https://gocodealone.github.io/exercise/definition.schema.json"

//go:embed definition.schema.json
var definitionSchema []byte

// Validator implements exercise.SchemaValidator.
type Validator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

// New compiles the embedded definition schema.
func New() (*Validator, error) {
	return NewWithSchema(bytes.NewReader(definitionSchema))
}

// NewWithSchema compiles a custom definition schema read from r.
func NewWithSchema(r io.Reader) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(SchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add definition schema: %w", err)
	}
	compiled, err := compiler.Compile(SchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema from %s: %w", SchemaURL, err)
	}
	return &Validator{
		schema:  compiled,
		printer: message.NewPrinter(language.English),
	}, nil
}

// MustNew is New for package-level initialization.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate implements exercise.SchemaValidator.
func (v *Validator) Validate(_ context.Context, def *exercise.Definition) exercise.SchemaResult {
	if def == nil {
		return exercise.SchemaResult{Errors: []string{exercise.ErrDefinitionNil.Error()}}
	}
	data, err := json.Marshal(def)
	if err != nil {
		return exercise.SchemaResult{Errors: []string{fmt.Sprintf("failed to marshal definition: %v", err)}}
	}
	res := v.ValidateJSON(data)

	errs, warnings := crossFieldChecks(def)
	res.Errors = append(res.Errors, errs...)
	res.Warnings = append(res.Warnings, warnings...)
	res.Success = len(res.Errors) == 0
	return res
}

// ValidateJSON checks raw definition JSON against the schema only.
func (v *Validator) ValidateJSON(data []byte) exercise.SchemaResult {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return exercise.SchemaResult{Errors: []string{fmt.Sprintf("failed to unmarshal JSON data: %v", err)}}
	}
	if err := v.schema.Validate(inst); err != nil {
		return exercise.SchemaResult{Errors: v.flatten(err)}
	}
	return exercise.SchemaResult{Success: true}
}

// flatten renders the leaf causes of a validation error as
// "<instance path>: <message>".
func (v *Validator) flatten(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, "/"+strings.Join(e.InstanceLocation, "/")+": "+e.ErrorKind.LocalizedString(v.printer))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	slices.Sort(out)
	return out
}

func crossFieldChecks(def *exercise.Definition) (errs, warnings []string) {
	seen := make(map[string]bool, len(def.Content.Options))
	for _, opt := range def.Content.Options {
		if seen[opt.ID] {
			errs = append(errs, fmt.Sprintf("/content/options: duplicate option id %q", opt.ID))
		}
		seen[opt.ID] = true
	}
	for _, id := range def.Solution.Correct {
		if !seen[id] {
			errs = append(errs, fmt.Sprintf("/solution/correct: %q is not an option id", id))
		}
	}

	s := def.Settings
	if len(def.Solution.Correct) == 0 {
		warnings = append(warnings, "/solution/correct: no correct options, only an empty answer is correct")
	}
	if s.SelectionMode != exercise.SelectionMultiple && len(def.Solution.Correct) > 1 {
		warnings = append(warnings, "/settings/selectionMode: single mode with several correct options can never be fully correct")
	}
	if s.RequiredSelections > len(def.Content.Options) {
		warnings = append(warnings, fmt.Sprintf("/settings/requiredSelections: %d exceeds the %d options", s.RequiredSelections, len(def.Content.Options)))
	}
	if s.SelectionMode == exercise.SelectionMultiple && s.RequiredSelections > 0 && s.RequiredSelections < len(def.Solution.Correct) {
		warnings = append(warnings, "/settings/requiredSelections: smaller than the correct set, full marks are unreachable")
	}
	if s.MaxAttempts > 0 && !s.AllowMultipleAttempts {
		warnings = append(warnings, "/settings/maxAttempts: ignored without allowMultipleAttempts")
	}
	return errs, warnings
}
