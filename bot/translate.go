package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Translator resolves dotted translation keys for a locale.
type Translator interface {
	T(key string, locale language.Tag, args map[string]any) string
}

// Catalog is a Translator backed by one YAML file per locale.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// LoadCatalog reads every <locale>.yaml / .yml file in dir. en-US is the
// fallback when present, otherwise the first locale in name order.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make(map[language.Tag][]byte, len(names))
	var tags []language.Tag
	for _, name := range names {
		tag, err := language.Parse(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files[tag] = data
		tags = append(tags, tag)
	}
	return NewCatalog(files, tags...)
}

// NewCatalog builds a catalog from raw YAML documents. The first tag in order
// that is en-US, or else order[0], is the fallback locale.
func NewCatalog(files map[language.Tag][]byte, order ...language.Tag) (*Catalog, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("no locales")
	}

	c := &Catalog{messages: make(map[language.Tag]map[string]string, len(files))}
	for _, tag := range order {
		var doc map[string]any
		if err := yaml.Unmarshal(files[tag], &doc); err != nil {
			return nil, fmt.Errorf("locale %s: %w", tag, err)
		}
		flat := make(map[string]string)
		flatten("", doc, flat)
		c.messages[tag] = flat
	}

	c.fallback = order[0]
	for _, tag := range order {
		if tag == language.AmericanEnglish {
			c.fallback = tag
		}
	}
	c.tags = append([]language.Tag{c.fallback}, without(order, c.fallback)...)
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

func without(tags []language.Tag, drop language.Tag) []language.Tag {
	out := make([]language.Tag, 0, len(tags))
	for _, t := range tags {
		if t != drop {
			out = append(out, t)
		}
	}
	return out
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

// T looks key up in the closest matching locale, then the fallback locale,
// substituting {name} placeholders from args. Missing keys return the key.
func (c *Catalog) T(key string, locale language.Tag, args map[string]any) string {
	_, idx, _ := c.matcher.Match(locale)
	msg, ok := c.messages[c.tags[idx]][key]
	if !ok {
		if msg, ok = c.messages[c.fallback][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Locales lists the loaded locales, fallback first.
func (c *Catalog) Locales() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}
