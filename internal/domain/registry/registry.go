// Package registry assigns stable integer IDs to names by first occurrence.
package registry

// Registry maps names to insertion-ordered IDs. It is owned by a single
// engine run and is not safe for concurrent use.
type Registry struct {
	ids   map[string]int
	names []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{ids: make(map[string]int)}
}

// GetOrCreateID returns the ID for name, assigning the next one if unseen.
// The second result reports whether the name was newly registered.
func (r *Registry) GetOrCreateID(name string) (int, bool) {
	if id, ok := r.ids[name]; ok {
		return id, false
	}
	id := len(r.names)
	r.ids[name] = id
	r.names = append(r.names, name)
	return id, true
}

// ID returns the ID for name without registering it.
func (r *Registry) ID(name string) (int, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// Name returns the name registered under id.
func (r *Registry) Name(id int) (string, bool) {
	if id < 0 || id >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns a copy of the names indexed by ID.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Set bundles the team, event and tournament registries of one run.
type Set struct {
	Teams       *Registry
	Events      *Registry
	Tournaments *Registry
}

// NewSet returns empty registries.
func NewSet() *Set {
	return &Set{Teams: New(), Events: New(), Tournaments: New()}
}
