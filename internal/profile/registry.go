package profile

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var defaultSeed []byte

// Registry is the read-only demo fallback: a slug → Profile mapping built
// once at startup and shared by reference across requests. It has no
// mutating methods.
type Registry struct {
	profiles map[string]Profile
	slugs    []string
}

type seedFile struct {
	Profiles []map[string]any `yaml:"profiles"`
}

// LoadRegistry builds a Registry from the YAML seed at path, or from the
// embedded default seed when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading demo registry: %w", err)
		}
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a Registry from YAML seed data. Entries pass through
// Normalize, so seeds accept the same field spellings as the upstream API.
func ParseRegistry(data []byte) (*Registry, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing demo registry: %w", err)
	}

	profiles := make([]Profile, 0, len(seed.Profiles))
	for i, raw := range seed.Profiles {
		slug, _ := raw["slug"].(string)
		if slug == "" {
			return nil, fmt.Errorf("demo registry entry %d: missing slug", i)
		}
		profiles = append(profiles, Normalize(slug, raw))
	}
	return NewRegistry(profiles...)
}

// NewRegistry builds a Registry from already-canonical profiles.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if p.Slug == "" {
			return nil, fmt.Errorf("demo registry: profile with empty slug")
		}
		if _, dup := r.profiles[p.Slug]; dup {
			return nil, fmt.Errorf("demo registry: duplicate slug %q", p.Slug)
		}
		r.profiles[p.Slug] = p.clone()
		r.slugs = append(r.slugs, p.Slug)
	}
	sort.Strings(r.slugs)
	return r, nil
}

// Lookup returns a copy of the profile registered under slug (exact match).
func (r *Registry) Lookup(slug string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	p, ok := r.profiles[slug]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

// Slugs returns the registered slugs in sorted order.
func (r *Registry) Slugs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.slugs))
	copy(out, r.slugs)
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.profiles)
}
