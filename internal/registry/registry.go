package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrDuplicate is returned when a name or type is registered twice.
	ErrDuplicate = errors.New("registry: duplicate registration")
	// ErrInvalidType is returned for nil or unnamed types.
	ErrInvalidType = errors.New("registry: invalid type")
)

// Descriptor identifies one command type eligible for mutation generation.
type Descriptor struct {
	Name string
	Type reflect.Type
}

// Registry is an insertion-ordered set of descriptors keyed by name.
// It is assembled once during application setup and read afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries []Descriptor
	byName  map[string]int
	byType  map[reflect.Type]int
}

func New() *Registry {
	return &Registry{
		byName: make(map[string]int),
		byType: make(map[reflect.Type]int),
	}
}

// Register adds t under name. Pointer types are dereferenced so that
// Register("X", &X{}) and Register("X", X{}) describe the same type.
func (r *Registry) Register(name string, t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("%w: nil type for %q", ErrInvalidType, name)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name == "" {
		name = t.Name()
	}
	if name == "" {
		return fmt.Errorf("%w: anonymous %s needs an explicit name", ErrInvalidType, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicate, name)
	}
	if prev, ok := r.byType[t]; ok {
		return fmt.Errorf("%w: type %s already registered as %q", ErrDuplicate, t, r.entries[prev].Name)
	}
	r.byName[name] = len(r.entries)
	r.byType[t] = len(r.entries)
	r.entries = append(r.entries, Descriptor{Name: name, Type: t})
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, t reflect.Type) {
	if err := r.Register(name, t); err != nil {
		panic(err)
	}
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Descriptors returns a copy of the entries in insertion order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.entries[idx], true
}

// NameOf returns the name t was registered with.
func (r *Registry) NameOf(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byType[t]
	if !ok {
		return "", false
	}
	return r.entries[idx].Name, true
}
