package skills

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/occupation-matcher/internal/parsing"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Category is a named group of skill keywords
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Categorizer assigns skill categories by keyword
type Categorizer struct {
	categories []Category
	fallback   string
}

type categoryFile struct {
	Categories []Category `yaml:"categories"`
	Fallback   string     `yaml:"fallback"`
}

// ParseCategories parses a category table. Keywords are normalized so
// diacritics and case do not matter.
func ParseCategories(data []byte) (*Categorizer, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse skill categories: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("skill category table is empty")
	}
	if f.Fallback == "" {
		f.Fallback = "OVERIG"
	}

	c := &Categorizer{fallback: f.Fallback}
	for _, cat := range f.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("skill category without name")
		}
		normalized := Category{Name: cat.Name}
		for _, kw := range cat.Keywords {
			if n := parsing.NormalizeLabel(kw); n != "" {
				normalized.Keywords = append(normalized.Keywords, n)
			}
		}
		c.categories = append(c.categories, normalized)
	}
	return c, nil
}

// DefaultCategorizer returns the embedded category table
func DefaultCategorizer() *Categorizer {
	c, err := ParseCategories(categoriesYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Categorize returns the first category with a keyword contained in label
func (c *Categorizer) Categorize(label string) string {
	normalized := parsing.NormalizeLabel(label)
	if normalized == "" {
		return c.fallback
	}
	for _, cat := range c.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(normalized, kw) {
				return cat.Name
			}
		}
	}
	return c.fallback
}

// Names returns the category names in match order, fallback last
func (c *Categorizer) Names() []string {
	names := make([]string, 0, len(c.categories)+1)
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return append(names, c.fallback)
}
