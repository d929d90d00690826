// Package content holds the per-step, per-language simulation copy and
// resolves keys with fallback to the default language.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/arthshield/fraudlabs/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrMissingContent means a key is absent in both the requested and the
// default language. It indicates a content-authoring gap, not a runtime
// condition to recover from silently: silently showing a key name would
// corrupt the educational message, so callers log it loudly.
var ErrMissingContent = errors.New("missing content")

// Entry is the authored content for one step in one language.
type Entry struct {
	Title    string            `yaml:"title" json:"title"`
	Body     string            `yaml:"body" json:"body"`
	Options  map[string]string `yaml:"options" json:"options"`
	RedFlags []string          `yaml:"red_flags" json:"red_flags"`
}

type contentFile struct {
	Language string           `yaml:"language"`
	Steps    map[string]Entry `yaml:"steps"`
}

// Catalog holds parsed content for every authored language.
type Catalog struct {
	defaultLanguage string
	entries         map[string]map[domain.Step]Entry
}

// Load parses the embedded content files. The default language must
// carry a complete entry for every step; other languages may be partial
// and resolve through fallback.
func Load(defaultLanguage string) (*Catalog, error) {
	files, err := fs.Glob(dataFS, "data/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob content files: %w", err)
	}

	c := &Catalog{
		defaultLanguage: defaultLanguage,
		entries:         make(map[string]map[domain.Step]Entry),
	}

	for _, name := range files {
		raw, err := dataFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var file contentFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if file.Language == "" {
			return nil, fmt.Errorf("%s: missing language", name)
		}

		steps := make(map[domain.Step]Entry, len(file.Steps))
		for stepName, entry := range file.Steps {
			step, err := domain.ParseStep(stepName)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			steps[step] = entry
		}
		c.entries[file.Language] = steps
	}

	if err := c.validateDefault(); err != nil {
		return nil, err
	}
	return c, nil
}

// validateDefault enforces the completeness invariant on the default
// language: every step needs at least a title and body.
func (c *Catalog) validateDefault() error {
	steps, ok := c.entries[c.defaultLanguage]
	if !ok {
		return fmt.Errorf("default language %q has no content", c.defaultLanguage)
	}
	for i := 0; i < domain.StepCount; i++ {
		step := domain.Step(i)
		entry, ok := steps[step]
		if !ok || entry.Title == "" || entry.Body == "" {
			return fmt.Errorf("default language %q incomplete at step %s", c.defaultLanguage, step)
		}
	}
	return nil
}

// DefaultLanguage returns the build-time default language.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLanguage
}

// Languages returns the authored languages, sorted.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.entries))
	for lang := range c.entries {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Resolve looks up a single content key for a step. Keys are "title",
// "body", or "option:<choice_id>". A key absent in the requested
// language falls back to the default language; absent there too, it
// fails with ErrMissingContent.
func (c *Catalog) Resolve(step domain.Step, key, language string) (string, error) {
	if text, ok := c.lookup(step, key, language); ok {
		return text, nil
	}
	if language != c.defaultLanguage {
		if text, ok := c.lookup(step, key, c.defaultLanguage); ok {
			return text, nil
		}
	}

	slog.Error("Content authoring gap",
		"step", step.String(),
		"key", key,
		"language", language,
		"default_language", c.defaultLanguage)
	return "", fmt.Errorf("step %s key %q language %q: %w", step, key, language, ErrMissingContent)
}

func (c *Catalog) lookup(step domain.Step, key, language string) (string, bool) {
	entry, ok := c.entries[language][step]
	if !ok {
		return "", false
	}

	switch {
	case key == "title":
		return entry.Title, entry.Title != ""
	case key == "body":
		return entry.Body, entry.Body != ""
	case strings.HasPrefix(key, "option:"):
		text, ok := entry.Options[strings.TrimPrefix(key, "option:")]
		return text, ok && text != ""
	}
	return "", false
}

// EntryFor returns the step's entry in the requested language with
// field-level fallback to the default language, so partial translations
// render with translated fields where they exist.
func (c *Catalog) EntryFor(step domain.Step, language string) Entry {
	base := c.entries[c.defaultLanguage][step]
	if language == c.defaultLanguage {
		return base
	}

	over, ok := c.entries[language][step]
	if !ok {
		return base
	}

	merged := base
	if over.Title != "" {
		merged.Title = over.Title
	}
	if over.Body != "" {
		merged.Body = over.Body
	}
	if len(over.RedFlags) > 0 {
		merged.RedFlags = over.RedFlags
	}
	if len(over.Options) > 0 {
		options := make(map[string]string, len(base.Options))
		for id, text := range base.Options {
			options[id] = text
		}
		for id, text := range over.Options {
			options[id] = text
		}
		merged.Options = options
	}
	return merged
}

// RedFlags returns the step's red-flag explanations with language
// fallback.
func (c *Catalog) RedFlags(step domain.Step, language string) []string {
	if entry, ok := c.entries[language][step]; ok && len(entry.RedFlags) > 0 {
		return entry.RedFlags
	}
	return c.entries[c.defaultLanguage][step].RedFlags
}
