package engine

import (
	"errors"
	"fmt"
	"strings"
)

// maxTermBytes is the longest single term the engine accepts. Oversized
// terms surface as a per-document failure instead of crashing a batch.
const maxTermBytes = 245

// ErrTermTooLong is returned when a single term exceeds maxTermBytes.
var ErrTermTooLong = errors.New("engine: term exceeds maximum length")

// Document is one engine-native document under construction: value slots
// keyed by number plus per-field searchable text. Field text accumulates, so
// repeated AddText calls append.
type Document struct {
	uid    string
	values map[int]string
	text   map[string][]string
}

// NewDocument creates an empty document identified by uid.
func NewDocument(uid string) *Document {
	return &Document{
		uid:    uid,
		values: make(map[int]string),
		text:   make(map[string][]string),
	}
}

// UID returns the document's identity.
func (d *Document) UID() string { return d.uid }

// SetValue writes an encoded value into a slot.
func (d *Document) SetValue(slot int, value string) {
	d.values[slot] = value
}

// Value reads back a slot, mainly for tests.
func (d *Document) Value(slot int) (string, bool) {
	v, ok := d.values[slot]
	return v, ok
}

// AddText indexes text under the named field, repeated weight times so a
// field's weight multiplies its term frequency in the ranker. Pass FieldText
// for the unprefixed catch-all. Fails when any single token exceeds the
// engine's term length limit.
func (d *Document) AddText(field, text string, weight int) error {
	if text == "" {
		return nil
	}
	for _, tok := range strings.Fields(text) {
		if len(tok) > maxTermBytes {
			return fmt.Errorf("%w: field %q, term %q...", ErrTermTooLong, field, tok[:32])
		}
	}
	if weight < 1 {
		weight = 1
	}
	for i := 0; i < weight; i++ {
		d.text[field] = append(d.text[field], text)
	}
	return nil
}

// fields flattens the document into the map handed to Bleve.
func (d *Document) fields() map[string]interface{} {
	out := make(map[string]interface{}, len(d.values)+len(d.text))
	for slot, v := range d.values {
		out[ValueField(slot)] = v
	}
	for field, chunks := range d.text {
		out[field] = strings.Join(chunks, " ")
	}
	return out
}
