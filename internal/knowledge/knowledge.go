// Package knowledge serves the built-in genus reference.  The data is
// embedded at build time and never changes at runtime.
package knowledge

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed genera.yaml
var generaYAML []byte

// Care is the cultivation advice for a genus.
type Care struct {
	Light       string `yaml:"light" json:"light"`
	Water       string `yaml:"water" json:"water"`
	Soil        string `yaml:"soil" json:"soil"`
	Temperature string `yaml:"temperature" json:"temperature"`
}

// Genus is one knowledge base entry.
type Genus struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type" json:"type"`
	Family      string   `yaml:"family" json:"family"`
	Origin      string   `yaml:"origin" json:"origin"`
	Description string   `yaml:"description" json:"description"`
	Difficulty  string   `yaml:"difficulty" json:"difficulty"`
	Care        Care     `yaml:"care" json:"care"`
	Species     []string `yaml:"species" json:"species"`
}

// Base is an immutable, name-indexed set of genera.
type Base struct {
	genera []Genus
	byName map[string]int
}

// Load parses the embedded data.
func Load() (*Base, error) { return Parse(generaYAML) }

// Parse builds a Base from YAML.  Names must be unique, case-insensitively.
func Parse(data []byte) (*Base, error) {
	var gs []Genus
	if err := yaml.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("parse genera: %w", err)
	}
	sort.Slice(gs, func(i, j int) bool { return gs[i].Name < gs[j].Name })
	b := &Base{genera: gs, byName: make(map[string]int, len(gs))}
	for i, g := range gs {
		key := strings.ToLower(g.Name)
		if key == "" {
			return nil, fmt.Errorf("genus %d has no name", i)
		}
		if _, dup := b.byName[key]; dup {
			return nil, fmt.Errorf("duplicate genus %q", g.Name)
		}
		b.byName[key] = i
	}
	return b, nil
}

// List returns genera in name order.  typ filters on cactus/succulent and
// search matches name, family or description; both are optional.
func (b *Base) List(typ, search string) []Genus {
	typ = strings.ToLower(strings.TrimSpace(typ))
	search = strings.ToLower(strings.TrimSpace(search))
	out := []Genus{}
	for _, g := range b.genera {
		if typ != "" && g.Type != typ {
			continue
		}
		if search != "" && !matches(g, search) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Get looks a genus up by name, ignoring case.
func (b *Base) Get(name string) (Genus, bool) {
	i, ok := b.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Genus{}, false
	}
	return b.genera[i], true
}

func matches(g Genus, q string) bool {
	for _, s := range []string{g.Name, g.Family, g.Description} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	for _, sp := range g.Species {
		if strings.Contains(strings.ToLower(sp), q) {
			return true
		}
	}
	return false
}
