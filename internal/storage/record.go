package storage

import (
	"fmt"

	"github.com/hyperjump/sakuin/internal/schema"
)

// StoredRecord is the typed record view over a row's decoded JSON
// attributes. Kind coercion to each field's declared kind happens in the
// schema layer; this view only maps JSON shapes onto raw value kinds.
type StoredRecord struct {
	typeName string
	pk       string
	attrs    map[string]interface{}
}

// NewStoredRecord wraps decoded attributes as a schema.Record.
func NewStoredRecord(typeName, pk string, attrs map[string]interface{}) *StoredRecord {
	return &StoredRecord{typeName: typeName, pk: pk, attrs: attrs}
}

// TypeName returns the record's type.
func (r *StoredRecord) TypeName() string { return r.typeName }

// PrimaryKey returns the record's primary key.
func (r *StoredRecord) PrimaryKey() string { return r.pk }

// Attrs returns the raw attribute map, for round-tripping.
func (r *StoredRecord) Attrs() map[string]interface{} { return r.attrs }

// Attr returns the named attribute as a raw value.
func (r *StoredRecord) Attr(name string) (schema.Value, bool) {
	raw, ok := r.attrs[name]
	if !ok {
		return schema.Value{}, false
	}
	return jsonValue(raw)
}

// jsonValue maps a decoded JSON value onto a raw schema value. Objects
// become nested record references (their "id" key, if any, is the nested
// primary key); arrays become lists; null and unsupported shapes are absent.
func jsonValue(raw interface{}) (schema.Value, bool) {
	switch v := raw.(type) {
	case string:
		return schema.TextValue(v), true
	case bool:
		return schema.BoolValue(v), true
	case float64:
		if v == float64(int64(v)) {
			return schema.IntValue(int64(v)), true
		}
		return schema.FloatValue(v), true
	case int:
		return schema.IntValue(int64(v)), true
	case int64:
		return schema.IntValue(v), true
	case map[string]interface{}:
		pk := ""
		if id, ok := v["id"]; ok {
			pk = fmt.Sprintf("%v", id)
		}
		return schema.RecordValue(NewStoredRecord("", pk, v)), true
	case []interface{}:
		items := make([]schema.Value, 0, len(v))
		for _, el := range v {
			ev, ok := jsonValue(el)
			if !ok {
				continue
			}
			items = append(items, ev)
		}
		return schema.ListValue(items...), true
	default:
		return schema.Value{}, false
	}
}
