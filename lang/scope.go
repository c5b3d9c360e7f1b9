package lang

import (
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// Scope is the top-level environment of a program: the bindings that remain
// after it runs. A Scope is not safe for concurrent use.
type Scope struct {
	bindings map[string]Value
}

// NewScope returns a root scope seeded with a copy of bindings.
func NewScope(bindings map[string]Value) *Scope {
	s := &Scope{bindings: make(map[string]Value, len(bindings))}
	maps.Copy(s.bindings, bindings)

	return s
}

// Get returns the value bound to name.
func (s *Scope) Get(name string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}

	v, ok := s.bindings[name]

	return v, ok
}

// Set binds name to v. The zero Scope is ready to use.
func (s *Scope) Set(name string, v Value) {
	if s.bindings == nil {
		s.bindings = make(map[string]Value)
	}

	s.bindings[name] = v
}

// Delete removes the binding of name, if any.
func (s *Scope) Delete(name string) { delete(s.bindings, name) }

// Len returns the number of bindings.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}

	return len(s.bindings)
}

// Names returns the bound names in sorted order.
func (s *Scope) Names() []string {
	if s == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(s.bindings))
}

// All iterates over the bindings in name order.
func (s *Scope) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range s.Names() {
			if !yield(name, s.bindings[name]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of s.
func (s *Scope) Clone() *Scope {
	if s == nil {
		return NewScope(nil)
	}

	return NewScope(s.bindings)
}

// ToMap returns the bindings converted with [Value.ToNative].
func (s *Scope) ToMap() map[string]any {
	out := make(map[string]any, s.Len())

	for name, v := range s.All() {
		out[name] = v.ToNative()
	}

	return out
}

// MarshalJSON implements json.Marshaler.
func (s *Scope) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(s.bindings)
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (s *Scope) MarshalYAML() (any, error) { return s.ToMap(), nil }

// scopeArena holds the scope chain of one evaluation. Entry 0 is the root
// and shares its bindings with the caller's [Scope]. Scopes are created and
// discarded in strict nesting order, so discarding truncates the arena.
type scopeArena struct {
	entries []scopeEntry
}

type scopeEntry struct {
	bindings map[string]Value
	parent   int
}

const noParent = -1

// newScopeArena roots an arena at root. Entry 0 shares root's binding map,
// so top-level assignments land in root.
func newScopeArena(root *Scope) *scopeArena {
	if root.bindings == nil {
		root.bindings = make(map[string]Value)
	}

	return &scopeArena{
		entries: []scopeEntry{{bindings: root.bindings, parent: noParent}},
	}
}

// push creates a child of parent and returns its index.
func (a *scopeArena) push(parent int) int {
	a.entries = append(a.entries, scopeEntry{parent: parent})

	return len(a.entries) - 1
}

// discard removes the scope at idx and everything created after it.
func (a *scopeArena) discard(idx int) {
	clear(a.entries[idx:])
	a.entries = a.entries[:idx]
}

// lookup searches outward from idx for name.
func (a *scopeArena) lookup(idx int, name string) (Value, bool) {
	for ; idx != noParent; idx = a.entries[idx].parent {
		if v, ok := a.entries[idx].bindings[name]; ok {
			return v, true
		}
	}

	return Value{}, false
}

// assign overwrites the nearest existing binding of name, or creates one in
// the scope at idx.
func (a *scopeArena) assign(idx int, name string, v Value) {
	for i := idx; i != noParent; i = a.entries[i].parent {
		if _, ok := a.entries[i].bindings[name]; ok {
			a.entries[i].bindings[name] = v

			return
		}
	}

	e := &a.entries[idx]
	if e.bindings == nil {
		e.bindings = make(map[string]Value)
	}

	e.bindings[name] = v
}

// depth returns the number of live scopes.
func (a *scopeArena) depth() int { return len(a.entries) }
