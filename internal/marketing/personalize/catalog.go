package personalize

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Phrases are the neutral fallbacks and client type wording for one locale.
type Phrases struct {
	FirstName         string `yaml:"first_name"`
	LastName          string `yaml:"last_name"`
	Neighborhood      string `yaml:"neighborhood"`
	Budget            string `yaml:"budget"`
	Buyer             string `yaml:"buyer"`
	Renter            string `yaml:"renter"`
	UnknownClientType string `yaml:"unknown_client_type"`
}

// Template is a named message body for a locale.
type Template struct {
	Name   string `yaml:"name"`
	Locale string `yaml:"locale"`
	Body   string `yaml:"body"`
}

// Catalog is the set of templates and phrases operators can pick from.
type Catalog struct {
	Phrases   map[string]Phrases `yaml:"phrases"`
	Templates []Template         `yaml:"templates"`
}

// LoadCatalog parses the embedded catalog and, when path is set, merges the
// file on top of it. File entries replace embedded ones with the same key.
func LoadCatalog(path string) (*Catalog, error) {
	base, err := parseCatalog(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	if strings.TrimSpace(path) == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	override, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base.merge(override)
	return base, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Phrases == nil {
		c.Phrases = map[string]Phrases{}
	}
	for _, t := range c.Templates {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Locale) == "" {
			return nil, fmt.Errorf("template needs name and locale")
		}
		if unknown := UnknownTokens(t.Body); len(unknown) > 0 {
			return nil, fmt.Errorf("template %s/%s uses unknown tokens %v", t.Name, t.Locale, unknown)
		}
	}
	return &c, nil
}

func (c *Catalog) merge(other *Catalog) {
	for locale, p := range other.Phrases {
		c.Phrases[locale] = p
	}
	for _, t := range other.Templates {
		replaced := false
		for i := range c.Templates {
			if c.Templates[i].Name == t.Name && c.Templates[i].Locale == t.Locale {
				c.Templates[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			c.Templates = append(c.Templates, t)
		}
	}
}

// Template finds a template by name for locale.
func (c *Catalog) Template(name, locale string) (Template, bool) {
	for _, t := range c.Templates {
		if t.Name == name && t.Locale == locale {
			return t, true
		}
	}
	return Template{}, false
}

// PhrasesFor returns the phrases for locale, falling back to English.
func (c *Catalog) PhrasesFor(locale string) Phrases {
	if p, ok := c.Phrases[locale]; ok {
		return p
	}
	return c.Phrases["en"]
}

// List returns the templates for locale, or all of them when locale is empty.
func (c *Catalog) List(locale string) []Template {
	out := make([]Template, 0, len(c.Templates))
	for _, t := range c.Templates {
		if locale == "" || t.Locale == locale {
			out = append(out, t)
		}
	}
	return out
}
