// Package i18n resolves user-facing messages from per-locale YAML tables.
// Tables for the built-in locales are embedded; a directory of YAML files can
// add locales or override individual keys.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Catalog holds the message tables and the negotiation state for them.
type Catalog struct {
	tables   map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// Load builds a catalog from the embedded tables, then merges every
// "<locale>.yaml" file in overrideDir (if set). defaultLocale is used when a
// request's Accept-Language matches nothing.
func Load(defaultLocale, overrideDir string) (*Catalog, error) {
	tables := make(map[string]map[string]string)

	entries, err := builtin.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	for _, entry := range entries {
		data, err := builtin.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded locale %s: %w", entry.Name(), err)
		}
		if err := mergeTable(tables, entry.Name(), data); err != nil {
			return nil, err
		}
	}

	if overrideDir != "" {
		files, err := filepath.Glob(filepath.Join(overrideDir, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("list locale overrides: %w", err)
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("read locale override %s: %w", f, err)
			}
			if err := mergeTable(tables, filepath.Base(f), data); err != nil {
				return nil, err
			}
		}
	}

	return newCatalog(tables, defaultLocale)
}

func mergeTable(tables map[string]map[string]string, filename string, data []byte) error {
	locale := strings.TrimSuffix(filename, filepath.Ext(filename))
	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("parse locale %s: %w", filename, err)
	}
	if tables[locale] == nil {
		tables[locale] = make(map[string]string, len(table))
	}
	for k, v := range table {
		tables[locale][k] = v
	}
	return nil
}

func newCatalog(tables map[string]map[string]string, defaultLocale string) (*Catalog, error) {
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}
	if _, ok := tables[fallback.String()]; !ok {
		return nil, fmt.Errorf("no message table for default locale %q", defaultLocale)
	}

	locales := make([]string, 0, len(tables))
	for l := range tables {
		if l != fallback.String() {
			locales = append(locales, l)
		}
	}
	sort.Strings(locales)

	// The matcher returns its first tag when nothing matches, so the fallback
	// goes first.
	tags := []language.Tag{fallback}
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", l, err)
		}
		tags = append(tags, tag)
	}

	return &Catalog{
		tables:   tables,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}, nil
}

// Negotiate picks the best supported locale for an Accept-Language header.
func (c *Catalog) Negotiate(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return c.fallback
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(desired...)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

// Message renders key for the locale, replacing {{name}} placeholders from
// args. Missing keys fall back to the default locale, then to the key itself.
func (c *Catalog) Message(tag language.Tag, key string, args map[string]string) string {
	msg, ok := c.tables[tag.String()][key]
	if !ok {
		msg, ok = c.tables[c.fallback.String()][key]
	}
	if !ok {
		msg = key
	}
	for k, v := range args {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// Localize negotiates the locale and renders key in one step.
func (c *Catalog) Localize(acceptLanguage, key string, args map[string]string) string {
	return c.Message(c.Negotiate(acceptLanguage), key, args)
}

// Locales lists the supported locales, default first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}
