// Package feeders reads exercise definitions and runtime configuration from
// JSON, YAML and TOML files and from environment variables.
package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

var durationType = reflect.TypeOf(time.Duration(0))

// AffixedEnvFeeder is a feeder that reads environment variables with a prefix and/or suffix
type AffixedEnvFeeder struct {
	Prefix string
	Suffix string
}

// NewAffixedEnvFeeder creates a new AffixedEnvFeeder with the specified prefix and suffix
func NewAffixedEnvFeeder(prefix, suffix string) AffixedEnvFeeder {
	return AffixedEnvFeeder{Prefix: prefix, Suffix: suffix}
}

// Feed reads environment variables and populates the provided structure
func (f AffixedEnvFeeder) Feed(structure any) error {
	return feedStruct(structure, strings.ToUpper(f.Prefix), strings.ToUpper(f.Suffix), os.LookupEnv)
}

// lookupFunc resolves one variable name.
type lookupFunc func(name string) (string, bool)

func feedStruct(structure any, prefix, suffix string, lookup lookupFunc) error {
	inputType := reflect.TypeOf(structure)
	if inputType == nil || inputType.Kind() != reflect.Pointer || inputType.Elem().Kind() != reflect.Struct {
		return ErrEnvInvalidStructure
	}
	return processStructFields(reflect.ValueOf(structure).Elem(), prefix, suffix, lookup)
}

// processStructFields iterates through struct fields
func processStructFields(rv reflect.Value, prefix, suffix string, lookup lookupFunc) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)
		if !fieldType.IsExported() {
			continue
		}
		if err := processField(field, &fieldType, prefix, suffix, lookup); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

// processField handles a single struct field
func processField(field reflect.Value, fieldType *reflect.StructField, prefix, suffix string, lookup lookupFunc) error {
	switch field.Kind() {
	case reflect.Struct:
		return processStructFields(field, prefix, suffix, lookup)
	case reflect.Pointer:
		if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
			return processStructFields(field.Elem(), prefix, suffix, lookup)
		}
		return nil
	default:
		if envTag, ok := fieldType.Tag.Lookup("env"); ok && envTag != "" {
			return setFieldFromEnv(field, envTag, prefix, suffix, lookup)
		}
		return nil
	}
}

// envName builds PREFIX_NAME_SUFFIX from the tag and affixes.
func envName(tag, prefix, suffix string) string {
	name := strings.ToUpper(tag)
	if prefix != "" {
		name = strings.TrimSuffix(prefix, "_") + "_" + name
	}
	if suffix != "" {
		name = name + "_" + strings.TrimPrefix(suffix, "_")
	}
	return name
}

// setFieldFromEnv sets a field value from an environment variable
func setFieldFromEnv(field reflect.Value, envTag, prefix, suffix string, lookup lookupFunc) error {
	if envValue, ok := lookup(envName(envTag, prefix, suffix)); ok && envValue != "" {
		return setFieldValue(field, envValue)
	}
	return nil
}

// setFieldValue converts and sets a field value. Durations are parsed with
// time.ParseDuration; named scalar types are converted from their kind.
func setFieldValue(field reflect.Value, strValue string) error {
	if !field.CanSet() {
		return ErrEnvCannotSet
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(strValue)
		if err != nil {
			return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
		}
		field.SetInt(int64(d))
		return nil
	}

	convertedValue, err := cast.FromType(strValue, basicType(field.Type()))
	if err != nil {
		return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
	}
	field.Set(reflect.ValueOf(convertedValue).Convert(field.Type()))
	return nil
}

// basicType maps named scalar types such as exercise.SelectionMode to the
// predeclared type of the same kind so cast can handle them.
func basicType(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.String:
		return reflect.TypeOf("")
	case reflect.Bool:
		return reflect.TypeOf(false)
	case reflect.Int:
		return reflect.TypeOf(0)
	case reflect.Int64:
		return reflect.TypeOf(int64(0))
	case reflect.Float64:
		return reflect.TypeOf(float64(0))
	default:
		return t
	}
}
