// Package codec decodes and encodes Rule/Result trees to and from JSON,
// per the wire shapes fixed in spec.md section 6. Rule decoding dispatches
// on a discriminator registered in a Codec value; the registry is built
// once through an immutable builder rather than a mutable package-level
// singleton (spec.md section 9's explicit redesign note away from the
// source's deserializer-registry anti-pattern).
package codec

import "fmt"

// ErrUnknownRuleType is returned by DecodeRule when a rule node's "type" field
// does not match any discriminator registered with the Codec.
type ErrUnknownRuleType struct {
	Type string
}

func (e ErrUnknownRuleType) Error() string {
	return fmt.Sprintf("codec: unknown rule type %q", e.Type)
}

// Entry registers one rule discriminator with the axiom.Kind it decodes
// to. Every built-in variant has a default entry (see DefaultEntries);
// callers extending the rule model with custom leaf kinds supply
// additional entries to NewRegistry.
type Entry struct {
	// Type is the wire discriminator, e.g. "AND", "STRING".
	Type string
}

// Registry is an immutable set of recognized rule discriminators. Build
// one with NewRegistry and pass it to NewCodec; there is no global
// registry to mutate.
type Registry struct {
	types map[string]struct{}
}

// NewRegistry builds a Registry from entries. Passing no entries yields a
// registry that accepts none of the built-in discriminators — use
// DefaultEntries() to start from the full built-in set.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{types: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		r.types[e.Type] = struct{}{}
	}
	return r
}

// Accepts reports whether typ is a recognized discriminator.
func (r *Registry) Accepts(typ string) bool {
	_, ok := r.types[typ]
	return ok
}

// DefaultEntries lists the discriminators for every built-in Rule variant
// (spec.md section 3). Pass to NewRegistry to accept the full built-in
// rule model.
func DefaultEntries() []Entry {
	return []Entry{
		{Type: "AND"}, {Type: "OR"}, {Type: "NOT"},
		{Type: "STRING"}, {Type: "NUMBER"}, {Type: "DATE"}, {Type: "SET"},
		{Type: "EXISTS"}, {Type: "NULL"}, {Type: "CONSTANT"},
	}
}
