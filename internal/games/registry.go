package games

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownAdapterError is returned for a game name with no adapter.
type UnknownAdapterError struct {
	Name string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("no adapter for game %q", e.Name)
}

// Registry maps game names to adapters.
type Registry struct {
	adapters map[string]Adapter
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		aliases:  make(map[string]string),
	}
}

// DefaultRegistry returns a registry with every supported game.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []Adapter{
		newQuiplash2(),
		newQuiplash3(),
		newBracketeering(),
		newOverdrawn(),
		newTeeKO("teeko", "Tee K.O.", "TeeKOGame"),
		newTeeKO("teeko2", "Tee K.O. 2", "TeeKO2Game"),
		newDrawful(),
		newWorldChampions(),
		newRange(),
	} {
		r.mustRegister(a)
	}
	r.Alias("civicdoodle", "overdrawn")
	r.Alias("bracketeering", "brk")
	r.Alias("champdup", "worldchampions")
	r.Alias("nonsensory", "range")
	r.Alias("rangegame", "range")
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}

// Register adds an adapter under its key.
func (r *Registry) Register(a Adapter) error {
	key := normalize(a.Key())
	if _, exists := r.adapters[key]; exists {
		return fmt.Errorf("adapter already registered: %s", key)
	}
	r.adapters[key] = a
	return nil
}

func (r *Registry) mustRegister(a Adapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Alias makes name resolve to the adapter registered as key.
func (r *Registry) Alias(name, key string) {
	r.aliases[normalize(name)] = normalize(key)
}

// Lookup finds the adapter for a game name. Case and spaces are ignored.
func (r *Registry) Lookup(name string) (Adapter, error) {
	key := normalize(name)
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	a, ok := r.adapters[key]
	if !ok {
		return nil, &UnknownAdapterError{Name: name}
	}
	return a, nil
}

// List returns every adapter sorted by key.
func (r *Registry) List() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Aliases returns the alias names that point at key.
func (r *Registry) Aliases(key string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == normalize(key) {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
