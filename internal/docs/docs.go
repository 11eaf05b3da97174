// Package docs holds the static content of the documentation page.
package docs

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// Endpoint is one documented HTTP route.
type Endpoint struct {
	Method  string `yaml:"method"`
	Path    string `yaml:"path"`
	Summary string `yaml:"summary"`
}

// Section is one card of the documentation page. Every field except ID and Title is optional.
type Section struct {
	ID        string     `yaml:"id"`
	Title     string     `yaml:"title"`
	Body      string     `yaml:"body"`
	Code      string     `yaml:"code"`
	Items     []string   `yaml:"items"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// Page is the whole documentation page. The search placeholder is rendered on an
// input that does not filter anything.
type Page struct {
	Title             string    `yaml:"title"`
	SearchPlaceholder string    `yaml:"searchPlaceholder"`
	Sections          []Section `yaml:"sections"`
}

// Load parses the embedded documentation content.
func Load() (Page, error) {
	return parse(contentYAML)
}

func parse(data []byte) (Page, error) {
	var p Page
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Page{}, fmt.Errorf("failed to parse docs content: %w", err)
	}
	seen := make(map[string]bool, len(p.Sections))
	for i, s := range p.Sections {
		if s.ID == "" || s.Title == "" {
			return Page{}, fmt.Errorf("docs section %d: id and title are required", i)
		}
		if seen[s.ID] {
			return Page{}, fmt.Errorf("docs section %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
	}
	if len(p.Sections) == 0 {
		return Page{}, errors.New("docs content has no sections")
	}
	return p, nil
}
