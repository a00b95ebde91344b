// Package schema defines how typed record fields are extracted and encoded
// for the search index: value kinds, accessors, field specs, and per-type
// index schemas.
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared kind of a field value. Encoding and coercion are
// driven by the declared kind, never by runtime type inspection.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindRecord
	KindList
)

// String returns the kind name as used in config files.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name from config. Empty means text.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return KindText, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "double":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "time", "date", "datetime":
		return KindTime, nil
	case "record", "ref":
		return KindRecord, nil
	case "list":
		return KindList, nil
	default:
		return KindText, fmt.Errorf("unknown field kind %q", s)
	}
}

// Record is the typed view of one application record that the index consumes.
// Attr returns the named attribute and whether it is present; absence is an
// expected outcome, not an error.
type Record interface {
	PrimaryKey() string
	Attr(name string) (Value, bool)
}

// Value is one resolved field value, tagged by kind.
type Value struct {
	Kind  Kind
	Text  string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
	Ref   Record
	List  []Value
}

// TextValue wraps s as a text value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// IntValue wraps n as an integer value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// FloatValue wraps f as a floating point value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// BoolValue wraps b as a boolean value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TimeValue wraps t as a date/time value.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// RecordValue wraps a nested record reference.
func RecordValue(r Record) Value { return Value{Kind: KindRecord, Ref: r} }

// ListValue wraps a list of values.
func ListValue(vs ...Value) Value { return Value{Kind: KindList, List: vs} }

// SearchText renders the value as the text handed to the term generator.
// Lists flatten to a comma-joined representation; record references render
// as their primary key.
func (v Value) SearchText() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindTime:
		return v.Time.Format("2006-01-02 15:04:05")
	case KindRecord:
		if v.Ref == nil {
			return ""
		}
		return v.Ref.PrimaryKey()
	case KindList:
		parts := make([]string, 0, len(v.List))
		for _, el := range v.List {
			parts = append(parts, el.SearchText())
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

const (
	sortTimeLayout = "20060102150405"
	maxSortInt     = 999999999999 // 10^12 - 1, the widest zero-padded integer
)

// SortKey encodes a value as a byte-lexicographically sortable string for its
// declared kind. The underlying engine only orders value slots by raw bytes,
// so typed ordering has to be baked into the encoding:
//
//	int   -> zero-padded to 12 digits (negatives are below the representable
//	         range and clamp to all zeros)
//	bool  -> "t" / "f"
//	time  -> YYYYMMDDHHMMSS
//	float -> fixed 10-decimal-place representation
//
// Any other kind passes through as search text.
func SortKey(v Value, declared Kind) string {
	switch declared {
	case KindInt:
		n := v.Int
		if n < 0 {
			n = 0
		}
		if n > maxSortInt {
			n = maxSortInt
		}
		return fmt.Sprintf("%012d", n)
	case KindBool:
		if v.Bool {
			return "t"
		}
		return "f"
	case KindTime:
		return v.Time.Format(sortTimeLayout)
	case KindFloat:
		return fmt.Sprintf("%.10f", v.Float)
	default:
		return v.SearchText()
	}
}
