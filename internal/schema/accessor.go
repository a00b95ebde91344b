package schema

import "strings"

// Accessor pulls one value out of a record. There are three variants:
// direct attribute, nested-path chain, and computed. Accessors report
// absence as (zero, false); they never fail.
type Accessor interface {
	// Get returns the raw value for rec and whether it was present.
	Get(rec Record) (Value, bool)
	// Path returns the dotted path this accessor reads, for logging and
	// config round-trips. Computed accessors return their display name.
	Path() string
}

// Field returns an accessor reading a single direct attribute.
func Field(name string) Accessor { return fieldAccessor(name) }

type fieldAccessor string

func (a fieldAccessor) Get(rec Record) (Value, bool) {
	if rec == nil {
		return Value{}, false
	}
	return rec.Attr(string(a))
}

func (a fieldAccessor) Path() string { return string(a) }

// Chain returns an accessor walking a dotted attribute path. Every
// intermediate step must resolve to a record reference; a missing segment or
// a non-record intermediate makes the whole chain absent.
func Chain(names ...string) Accessor { return chainAccessor(names) }

// ParsePath builds an accessor from a dotted path expression: a single
// segment becomes a direct field accessor, multiple segments a chain.
func ParsePath(path string) Accessor {
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		return Field(parts[0])
	}
	return Chain(parts...)
}

type chainAccessor []string

func (a chainAccessor) Get(rec Record) (Value, bool) {
	if len(a) == 0 || rec == nil {
		return Value{}, false
	}
	cur := rec
	for i, name := range a {
		v, ok := cur.Attr(name)
		if !ok {
			return Value{}, false
		}
		if i == len(a)-1 {
			return v, true
		}
		if v.Kind != KindRecord || v.Ref == nil {
			return Value{}, false
		}
		cur = v.Ref
	}
	return Value{}, false
}

func (a chainAccessor) Path() string { return strings.Join(a, ".") }

// Compute returns an accessor evaluating fn against the record. name is a
// display label used where a path would be shown.
func Compute(name string, fn func(Record) (Value, bool)) Accessor {
	return computedAccessor{name: name, fn: fn}
}

type computedAccessor struct {
	name string
	fn   func(Record) (Value, bool)
}

func (a computedAccessor) Get(rec Record) (Value, bool) {
	if a.fn == nil || rec == nil {
		return Value{}, false
	}
	return a.fn(rec)
}

func (a computedAccessor) Path() string { return a.name }
