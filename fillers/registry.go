// Package fillers holds the built-in generators and the registry that
// resolves generator ids named in fill and derive directives.
package fillers

import (
	"sort"
	"strings"
	"sync"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/fielddelegate"
)

// Factory builds a generator from its argument text
type Factory func(args string) (complete.Generator, error)

// Registry maps generator ids to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in generators
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register(DefaultName, NewDefault)
	r.Register(DelegateName, NewDelegate)
	r.Register(LogName, NewLog)
	r.Register(fielddelegate.Name, func(args string) (complete.Generator, error) {
		if strings.TrimSpace(args) != "" {
			return nil, errors.WithHint(
				errors.Parsef("%s takes no arguments", fielddelegate.Name),
				"configure operations with //portrait:"+fielddelegate.Name+" lines in the interface")
		}
		return fielddelegate.New(), nil
	})
	return r
}

// Register adds or replaces a generator
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// IDs returns the registered generator ids, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup implements complete.Lookup
func (r *Registry) Lookup(id, args string) (complete.Generator, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithHint(
			errors.Parsef("unknown generator %q", id),
			"available generators: "+strings.Join(r.IDs(), ", "))
	}
	return f(args)
}
