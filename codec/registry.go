/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"github.com/suparena/dyndata/errors"
)

// Registry maps kind names to kinds. It is built once at startup and never
// mutated afterwards; there is no runtime type registration.
type Registry struct {
	kinds map[string]Kind
	names []string
}

// NewRegistry constructs the registry over the closed kind set: every scalar
// kind plus its array form.
func NewRegistry() *Registry {
	scalars := []Scalar{Text, Int64, Int32, Timestamp, Decimal, Bool, Nested}
	r := &Registry{kinds: make(map[string]Kind, 2*len(scalars))}
	for _, s := range scalars {
		for _, k := range []Kind{{Scalar: s}, {Scalar: s, Array: true}} {
			r.kinds[k.Name()] = k
			r.names = append(r.names, k.Name())
		}
	}
	return r
}

// Lookup resolves a kind by its registry name. An unknown name is a schema
// error, not a field error: it means the descriptor references a type that
// does not exist.
func (r *Registry) Lookup(name string) (Kind, error) {
	k, ok := r.kinds[name]
	if !ok {
		return Kind{}, errors.NewSchemaError("field type not registered (%s)", name)
	}
	return k, nil
}

// Contains reports whether a kind name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.kinds[name]
	return ok
}

// Names returns all registered kind names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
