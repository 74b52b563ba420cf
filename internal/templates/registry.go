package templates

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps template identifiers to templates. Lookups use the exact identifier.
// A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	info     Info
	template Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Default returns a registry holding the built-in templates.
func Default() *Registry {
	r := NewRegistry()
	py := NewPythonService()
	r.MustRegister(py.Info(), py)
	return r
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(info Info, tpl Template) {
	if err := r.Register(info, tpl); err != nil {
		panic(err)
	}
}

// Register adds tpl under info.Name. Registering a name twice is an error.
func (r *Registry) Register(info Info, tpl Template) error {
	if strings.TrimSpace(info.Name) == "" {
		return fmt.Errorf("template name is empty")
	}
	if tpl == nil {
		return fmt.Errorf("template %q is nil", info.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[info.Name]; exists {
		return fmt.Errorf("template %q already registered", info.Name)
	}
	r.entries[info.Name] = entry{info: info, template: tpl}
	return nil
}

// Get returns the template registered under name or an *UnknownTemplateError.
func (r *Registry) Get(name string) (Template, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTemplateError{Name: name, Available: r.Names()}
	}
	return e.template, nil
}

// Names returns the registered identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered template descriptions, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
