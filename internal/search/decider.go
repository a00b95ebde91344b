package search

import (
	"errors"
	"fmt"

	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/schema"
)

// ErrInvalidFilter is returned when a filter or exclude constraint names an
// unknown field or carries a value the field's kind cannot hold.
var ErrInvalidFilter = errors.New("search: invalid filter")

// fieldType is the pseudo-field matching a document's record type. It is
// always available even when the schema declares no tag for it.
const fieldType = "type"

// Decider accepts or rejects candidate matches one by one during retrieval.
// It runs before pagination, so offset and limit count accepted matches
// only.
type Decider struct {
	require map[int]string
	forbid  map[int]string
}

// CompileDecider translates filter and exclude constraints into slot
// comparisons. Keys are tag names or aliases (or "type"); values are
// coerced to the tag's declared kind and encoded the same way the write
// path stores them. Returns nil when both maps are empty.
func CompileDecider(s *schema.Schema, filter, exclude map[string]string) (*Decider, error) {
	if len(filter) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	d := &Decider{require: map[int]string{}, forbid: map[int]string{}}
	if err := d.compile(s, filter, d.require); err != nil {
		return nil, err
	}
	if err := d.compile(s, exclude, d.forbid); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decider) compile(s *schema.Schema, constraints map[string]string, into map[int]string) error {
	for name, raw := range constraints {
		if name == fieldType {
			into[schema.SlotTypeName] = raw
			continue
		}
		canonical, ok := s.CanonicalTag(name)
		if !ok {
			return fmt.Errorf("%w: %q is not a filterable field for %s", ErrInvalidFilter, name, s.TypeName())
		}
		slot, _ := s.TagSlot(canonical)
		def, _ := s.TagByName(canonical)
		v, ok := schema.Coerce(schema.TextValue(raw), def.Kind)
		if !ok {
			return fmt.Errorf("%w: %q is not a valid %s value for %s", ErrInvalidFilter, raw, def.Kind, canonical)
		}
		into[slot] = schema.SortKey(v, def.Kind)
	}
	return nil
}

// Accept reports whether hit satisfies every required slot value and none
// of the forbidden ones.
func (d *Decider) Accept(hit *engine.Hit) bool {
	for slot, want := range d.require {
		if hit.Value(slot) != want {
			return false
		}
	}
	for slot, avoid := range d.forbid {
		if hit.Value(slot) == avoid {
			return false
		}
	}
	return true
}
