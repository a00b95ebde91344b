package config

import (
	"fmt"

	"github.com/hyperjump/sakuin/internal/schema"
)

// SchemaConfig declares one record type's index schema in the config file.
type SchemaConfig struct {
	Type       string              `yaml:"type"`
	Descriptor string              `yaml:"descriptor"`
	Fields     []FieldConfig       `yaml:"fields"`
	Tags       []TagConfig         `yaml:"tags"`
	Aliases    map[string][]string `yaml:"aliases"`
	// TriggerField names a boolean attribute gating indexing: records
	// where it is false are unpublished. Empty means every record indexes.
	TriggerField string `yaml:"trigger_field"`
	// StemField names the attribute holding a record's language code,
	// consulted when the global stemming language is "multi".
	StemField string `yaml:"stem_field"`
}

// FieldConfig declares one free-text field.
type FieldConfig struct {
	Path   string `yaml:"path"`
	Kind   string `yaml:"kind"`
	Weight int    `yaml:"weight"`
}

// TagConfig declares one prefixed, sortable field.
type TagConfig struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Kind   string `yaml:"kind"`
	Weight int    `yaml:"weight"`
}

// Build translates the declaration into an immutable schema.
func (sc SchemaConfig) Build() (*schema.Schema, error) {
	descriptor := sc.Descriptor
	if descriptor == "" {
		descriptor = sc.Type
	}

	fields := make([]schema.FieldDef, 0, len(sc.Fields))
	for _, fc := range sc.Fields {
		kind, err := schema.ParseKind(fc.Kind)
		if err != nil {
			return nil, fmt.Errorf("schema %s field %s: %w", sc.Type, fc.Path, err)
		}
		fields = append(fields, schema.FieldDef{
			Accessor: schema.ParsePath(fc.Path),
			Kind:     kind,
			Weight:   fc.Weight,
		})
	}

	tags := make([]schema.TagDef, 0, len(sc.Tags))
	for _, tc := range sc.Tags {
		kind, err := schema.ParseKind(tc.Kind)
		if err != nil {
			return nil, fmt.Errorf("schema %s tag %s: %w", sc.Type, tc.Name, err)
		}
		tags = append(tags, schema.TagDef{
			Name:     tc.Name,
			Accessor: schema.ParsePath(tc.Path),
			Kind:     kind,
			Weight:   tc.Weight,
		})
	}

	var opts []schema.Option
	if len(sc.Aliases) > 0 {
		opts = append(opts, schema.WithAliases(sc.Aliases))
	}
	if sc.TriggerField != "" {
		field := sc.TriggerField
		opts = append(opts, schema.WithTrigger(func(rec schema.Record) bool {
			v, ok := rec.Attr(field)
			if !ok {
				return true
			}
			b, ok := schema.Coerce(v, schema.KindBool)
			return !ok || b.Bool
		}))
	}
	if sc.StemField != "" {
		opts = append(opts, schema.WithStemAccessor(schema.ParsePath(sc.StemField)))
	}

	return schema.New(sc.Type, descriptor, fields, tags, opts...)
}

// BuildSchemas translates every declared schema, rejecting duplicate types.
func (c *Config) BuildSchemas() (map[string]*schema.Schema, error) {
	out := make(map[string]*schema.Schema, len(c.Schemas))
	for _, sc := range c.Schemas {
		if sc.Type == "" {
			return nil, fmt.Errorf("schema declaration missing record type")
		}
		if _, dup := out[sc.Type]; dup {
			return nil, fmt.Errorf("duplicate schema for record type %q", sc.Type)
		}
		s, err := sc.Build()
		if err != nil {
			return nil, err
		}
		out[sc.Type] = s
	}
	return out, nil
}
