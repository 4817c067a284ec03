// Package i18n provides locale catalogs for the exercise runtime. Catalogs
// are YAML or TOML files keyed by locale; lookups fall back from the
// matched locale to the base locale and finally to the message key.
package i18n

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/exercise"
)

// BaseLocale is the fallback locale every bundle carries.
const BaseLocale = "en"

var (
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	ErrLocaleMissing     = errors.New("catalog locale is required")
	ErrMessagesMissing   = errors.New("catalog messages are required")
	ErrBlankKey          = errors.New("message key cannot be blank")
)

//go:embed locales/*
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale" toml:"locale"`
	Messages map[string]string `yaml:"messages" toml:"messages"`
}

// Bundle holds the messages of several locales.
type Bundle struct {
	locales map[string]map[string]string
	tags    []language.Tag
	matcher language.Matcher
}

// NewBundle returns a bundle seeded with the runtime's built-in English
// messages.
func NewBundle() *Bundle {
	b := &Bundle{locales: map[string]map[string]string{}}
	b.merge(BaseLocale, exercise.DefaultMessages())
	return b
}

// Default loads the embedded catalogs.
func Default() (*Bundle, error) {
	b := NewBundle()
	if err := b.LoadFS(embeddedFS, "locales"); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadFS loads every .yaml, .yml and .toml file under dir.
func (b *Bundle) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read catalog dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read catalog %s: %w", name, err)
		}
		if err := b.Load(bytes.NewReader(data), path.Ext(name)); err != nil {
			return fmt.Errorf("catalog %s: %w", name, err)
		}
	}
	return nil
}

// Load parses one catalog. format is a file extension or a format name
// ("yaml", "toml").
func (b *Bundle) Load(r io.Reader, format string) error {
	var file catalogFile
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&file); err != nil {
			return fmt.Errorf("parse yaml catalog: %w", err)
		}
	case "toml":
		if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
			return fmt.Errorf("parse toml catalog: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return b.Add(file.Locale, file.Messages)
}

// Add merges messages into locale, replacing existing keys.
func (b *Bundle) Add(locale string, messages map[string]string) error {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ErrLocaleMissing
	}
	if messages == nil {
		return ErrMessagesMissing
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parse locale tag %q: %w", locale, err)
	}
	for key := range messages {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("locale %s: %w", locale, ErrBlankKey)
		}
	}
	b.merge(tag.String(), messages)
	return nil
}

func (b *Bundle) merge(locale string, messages map[string]string) {
	existing, ok := b.locales[locale]
	if !ok {
		existing = map[string]string{}
		b.locales[locale] = existing
	}
	maps.Copy(existing, messages)

	b.tags = b.tags[:0]
	// base locale first so it wins ties in the matcher
	b.tags = append(b.tags, language.Make(BaseLocale))
	for _, l := range b.Locales() {
		if l != BaseLocale {
			b.tags = append(b.tags, language.Make(l))
		}
	}
	b.matcher = language.NewMatcher(b.tags)
}

// Locales lists the loaded locales, sorted.
func (b *Bundle) Locales() []string {
	return slices.Sorted(maps.Keys(b.locales))
}

// Match returns the supported locale that best serves the preferences.
// Preferences may be tags or Accept-Language strings.
func (b *Bundle) Match(preferred ...string) string {
	_, idx := language.MatchStrings(b.matcher, preferred...)
	return b.tags[idx].String()
}

// Localizer returns a Catalog for the best match of preferred.
func (b *Bundle) Localizer(preferred ...string) *Catalog {
	locale := b.Match(preferred...)
	tag := language.Make(locale)
	return &Catalog{
		locale:   locale,
		tag:      tag,
		messages: maps.Clone(b.locales[locale]),
		fallback: maps.Clone(b.locales[BaseLocale]),
		printer:  message.NewPrinter(tag),
	}
}

// Catalog implements exercise.Localizer for one locale.
type Catalog struct {
	locale   string
	tag      language.Tag
	messages map[string]string
	fallback map[string]string
	printer  *message.Printer
}

// Translate implements exercise.Localizer. Numeric parameters are printed
// with the locale's number formatting.
func (c *Catalog) Translate(key string, params map[string]any) string {
	tmpl, ok := c.messages[key]
	if !ok {
		if tmpl, ok = c.fallback[key]; !ok {
			return key
		}
	}
	if len(params) == 0 {
		return exercise.FormatMessage(tmpl, nil)
	}
	formatted := make(map[string]any, len(params))
	for k, v := range params {
		switch v.(type) {
		case int, int64, float32, float64:
			formatted[k] = c.printer.Sprint(v)
		default:
			formatted[k] = v
		}
	}
	return exercise.FormatMessage(tmpl, formatted)
}

// Locale implements exercise.Localizer.
func (c *Catalog) Locale() string { return c.locale }

// IsRTL implements exercise.Localizer.
func (c *Catalog) IsRTL() bool {
	base, _ := c.tag.Base()
	return rtlBases[base.String()]
}

var rtlBases = map[string]bool{
	"ar": true, "dv": true, "fa": true, "he": true, "ks": true,
	"ps": true, "sd": true, "ug": true, "ur": true, "yi": true,
}
