package source

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// Override is the per-source adjustment applied on top of the generic
// extraction: organizer defaults, selector hints, ordered item selectors
// and post-extraction location defaults and tags.
type Override struct {
	Organizer      event.Organizer `yaml:"organizer"`
	URL            string          `yaml:"url"`
	Selectors      Selectors       `yaml:"selectors"`
	ItemSelectors  []string        `yaml:"item_selectors"`
	DefaultCity    string          `yaml:"default_city"`
	DefaultCountry string          `yaml:"default_country"`
	Tags           []string        `yaml:"tags"`
}

// Apply adjusts an extracted candidate in place
func (o *Override) Apply(c *event.Candidate) {
	if o.Organizer.Name != "" {
		c.Organizer = o.Organizer
	}
	if c.Location.City == "" && o.DefaultCity != "" {
		c.Location.City = o.DefaultCity
	}
	if c.Location.Country == "" && o.DefaultCountry != "" {
		c.Location.Country = o.DefaultCountry
	}
	for _, tag := range o.Tags {
		if !containsFold(c.Tags, tag) {
			c.Tags = append(c.Tags, tag)
		}
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Registry maps handler ids to overrides
type Registry struct {
	overrides map[string]Override
}

// NewRegistry returns a registry seeded with the built-in overrides
func NewRegistry() *Registry {
	r := &Registry{overrides: make(map[string]Override, len(builtins))}
	for id, o := range builtins {
		r.overrides[id] = o
	}
	return r
}

// Register adds or replaces an override
func (r *Registry) Register(id string, o Override) {
	r.overrides[id] = o
}

// Lookup returns the override for id
func (r *Registry) Lookup(id string) (Override, bool) {
	o, ok := r.overrides[id]
	return o, ok
}

// IDs returns the registered handler ids, sorted
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.overrides))
	for id := range r.overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadFile merges overrides from a YAML file keyed by handler id
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "overrides: read file")
	}

	var file map[string]Override
	if err := yaml.Unmarshal(data, &file); err != nil {
		return eris.Wrap(err, "overrides: parse yaml")
	}
	for id, o := range file {
		r.Register(id, o)
	}
	return nil
}
