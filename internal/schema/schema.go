package schema

import "fmt"

// Value slots 0-10 are reserved for identifier, model, and descriptor
// metadata; tag sort values start at FreeSlotStart.
const (
	SlotPrimaryKey = 1
	SlotTypeName   = 2
	SlotDescriptor = 3

	FreeSlotStart = 11
)

// FieldDef declares one free-text field.
type FieldDef struct {
	Accessor Accessor
	Kind     Kind
	Weight   int
}

// TagDef declares one prefixed field.
type TagDef struct {
	Name     string
	Accessor Accessor
	Kind     Kind
	Weight   int
}

// Schema is the immutable per-record-type index configuration: free-text
// fields, tag fields with assigned value slots, tag aliases, and the trigger
// predicate deciding whether a record is indexed at all. Built once at
// indexer construction and passed explicitly to every operation.
type Schema struct {
	typeName   string
	descriptor string
	fields     []FieldSpec
	tags       []FieldSpec
	aliases    map[string][]string
	trigger    func(Record) bool
	stemField  *FieldSpec
}

// Option configures optional schema behavior.
type Option func(*Schema) error

// WithAliases registers alternate query names per tag. Every alias target
// must be a declared tag.
func WithAliases(aliases map[string][]string) Option {
	return func(s *Schema) error {
		for tag, names := range aliases {
			if !s.HasTag(tag) {
				return fmt.Errorf("cannot create alias for tag %q: no such tag", tag)
			}
			s.aliases[tag] = append(s.aliases[tag], names...)
		}
		return nil
	}
}

// WithTrigger sets the predicate deciding whether a record should be indexed.
// A false result unpublishes the record's document on the next update.
func WithTrigger(fn func(Record) bool) Option {
	return func(s *Schema) error {
		s.trigger = fn
		return nil
	}
}

// WithStemAccessor sets the per-record language accessor consulted when the
// global stemming language is "multi".
func WithStemAccessor(a Accessor) Option {
	return func(s *Schema) error {
		s.stemField = &FieldSpec{Accessor: a, Kind: KindText, Weight: DefaultWeight}
		return nil
	}
}

// New builds a schema for one record type. Tag fields are assigned value
// slots sequentially from FreeSlotStart in declaration order. Duplicate tag
// prefixes are rejected.
func New(typeName, descriptor string, fields []FieldDef, tags []TagDef, opts ...Option) (*Schema, error) {
	if typeName == "" {
		return nil, fmt.Errorf("schema requires a record type name")
	}
	if descriptor == "" {
		return nil, fmt.Errorf("schema requires an indexer descriptor")
	}
	s := &Schema{
		typeName:   typeName,
		descriptor: descriptor,
		aliases:    make(map[string][]string),
		trigger:    func(Record) bool { return true },
	}
	for _, fd := range fields {
		w := fd.Weight
		if w <= 0 {
			w = DefaultWeight
		}
		s.fields = append(s.fields, FieldSpec{Accessor: fd.Accessor, Kind: fd.Kind, Weight: w})
	}
	slot := FreeSlotStart
	seen := make(map[string]struct{}, len(tags))
	for _, td := range tags {
		if td.Name == "" {
			return nil, fmt.Errorf("tag field %q requires a name", td.Accessor.Path())
		}
		if _, dup := seen[td.Name]; dup {
			return nil, fmt.Errorf("duplicate tag %q", td.Name)
		}
		seen[td.Name] = struct{}{}
		w := td.Weight
		if w <= 0 {
			w = DefaultWeight
		}
		s.tags = append(s.tags, FieldSpec{
			Accessor: td.Accessor,
			Kind:     td.Kind,
			Weight:   w,
			Prefix:   td.Name,
			Slot:     slot,
		})
		slot++
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// TypeName returns the owned record type's name.
func (s *Schema) TypeName() string { return s.typeName }

// Descriptor returns the indexer descriptor baked into document identity.
func (s *Schema) Descriptor() string { return s.descriptor }

// Fields returns the free-text field specs in declaration order.
func (s *Schema) Fields() []FieldSpec { return s.fields }

// Tags returns the prefixed field specs in declaration order.
func (s *Schema) Tags() []FieldSpec { return s.tags }

// Aliases returns the alias table keyed by canonical tag name.
func (s *Schema) Aliases() map[string][]string { return s.aliases }

// Trigger reports whether rec should be indexed.
func (s *Schema) Trigger(rec Record) bool { return s.trigger(rec) }

// StemField returns the per-record stemming language accessor, or nil.
func (s *Schema) StemField() *FieldSpec { return s.stemField }

// HasTag reports whether name is a declared tag prefix.
func (s *Schema) HasTag(name string) bool {
	_, ok := s.TagSlot(name)
	return ok
}

// TagSlot returns the value slot assigned to the named tag.
func (s *Schema) TagSlot(name string) (int, bool) {
	for _, t := range s.tags {
		if t.Prefix == name {
			return t.Slot, true
		}
	}
	return 0, false
}

// TagByName returns the tag field spec for the given canonical name.
func (s *Schema) TagByName(name string) (FieldSpec, bool) {
	for _, t := range s.tags {
		if t.Prefix == name {
			return t, true
		}
	}
	return FieldSpec{}, false
}

// CanonicalTag resolves name through the alias table to a canonical tag
// name. Canonical names resolve to themselves.
func (s *Schema) CanonicalTag(name string) (string, bool) {
	if s.HasTag(name) {
		return name, true
	}
	for tag, names := range s.aliases {
		for _, alias := range names {
			if alias == name {
				return tag, true
			}
		}
	}
	return "", false
}
