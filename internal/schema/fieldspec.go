package schema

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWeight is the search-relevance multiplier used when a field does not
// declare one.
const DefaultWeight = 1

// FieldSpec describes how to pull one value out of a record and how to encode
// it for searching, and, for tag fields, for sorting and filtering.
type FieldSpec struct {
	Accessor Accessor
	Kind     Kind
	Weight   int
	// Prefix is the short tag identifying a structured field; empty means
	// free text. Prefixed fields also carry a dedicated value slot.
	Prefix string
	Slot   int
}

// Tag returns the uppercase form of the prefix, as stored in prefixed index
// terms. Empty for free-text fields.
func (f FieldSpec) Tag() string { return strings.ToUpper(f.Prefix) }

// Resolve extracts the field's value from rec and coerces it to the declared
// kind. The boolean result distinguishes present from absent; absence means
// "skip this field for this record" and is never an error.
func (f FieldSpec) Resolve(rec Record) (Value, bool) {
	if f.Accessor == nil {
		return Value{}, false
	}
	raw, ok := f.Accessor.Get(rec)
	if !ok {
		return Value{}, false
	}
	return coerce(raw, f.Kind)
}

// Coerce converts a raw value to the declared kind using the same rules the
// indexing path applies when resolving fields.
func Coerce(v Value, declared Kind) (Value, bool) {
	return coerce(v, declared)
}

// coerce converts a raw value to the declared kind. Values already of the
// declared kind pass through; text parses into the numeric, boolean, and
// time kinds; anything unconvertible is treated as absent.
func coerce(v Value, declared Kind) (Value, bool) {
	if v.Kind == declared {
		return v, true
	}
	switch declared {
	case KindText:
		return TextValue(v.SearchText()), true
	case KindInt:
		switch v.Kind {
		case KindFloat:
			return IntValue(int64(v.Float)), true
		case KindText:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
			if err != nil {
				return Value{}, false
			}
			return IntValue(n), true
		}
	case KindFloat:
		switch v.Kind {
		case KindInt:
			return FloatValue(float64(v.Int)), true
		case KindText:
			fl, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
			if err != nil {
				return Value{}, false
			}
			return FloatValue(fl), true
		}
	case KindBool:
		if v.Kind == KindText {
			b, err := strconv.ParseBool(strings.TrimSpace(v.Text))
			if err != nil {
				return Value{}, false
			}
			return BoolValue(b), true
		}
	case KindTime:
		if v.Kind == KindText {
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(v.Text))
			if err != nil {
				return Value{}, false
			}
			return TimeValue(t), true
		}
	case KindList:
		// A scalar where a list was declared indexes as a one-element list.
		return ListValue(v), true
	case KindRecord:
		// Only genuine record references qualify.
		return Value{}, false
	}
	return Value{}, false
}
