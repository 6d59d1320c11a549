package types

import "time"

// Property descriptor types. A descriptor with an empty or unrecognized
// type is skipped during analysis with a warning, never fatally.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeFile    = "file"
)

// Relation handling modes for object-typed properties.
const (
	HandlingRelatedObject = "related-object" // property holds a reference to another object
	HandlingNestedObject  = "nested-object"  // property holds an embedded literal, never a reference
)

// Schema describes one kind of register object. Properties may reference
// other schemas, optionally with an inversedBy back-link declaration.
type Schema struct {
	SchemaID    string               // UUID v7, generated on creation.
	Title       string               // Human-readable name (required, non-empty).
	Description string               // Optional explanation.
	Version     int                  // Monotonic schema version; bumped on every save.
	Properties  map[string]*Property // Property descriptors keyed by name.
	Required    []string             // Names of required top-level properties.
	AllOf       []string             // Parent schema IDs composed into this schema, parent-first.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that the schema is well-formed enough to store.
// Descriptor-level problems are diagnosed later, during analysis.
func (s *Schema) Validate() error {
	if s.Title == "" {
		return ErrInvalidData
	}
	return nil
}

// Property is one schema property descriptor. Nested objects and arrays
// recurse through Properties and Items.
type Property struct {
	Type        string               `json:"type"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`

	// ObjectConfiguration is set on properties that relate to another
	// schema's objects. Nil for plain value properties.
	ObjectConfiguration *ObjectConfiguration `json:"objectConfiguration,omitempty"`
}

// ObjectConfiguration declares how an object-valued property relates to
// another schema.
type ObjectConfiguration struct {
	// Handling selects between a reference to a separate object and an
	// embedded literal.
	Handling string `json:"handling,omitempty"`

	// Schema is the target schema ID the property points at.
	Schema string `json:"schema,omitempty"`

	// InversedBy names the property on the target schema that must carry
	// the back-reference to the referring object.
	InversedBy string `json:"inversedBy,omitempty"`

	// Cascade enables creating an inline child object ahead of parent
	// validation.
	Cascade bool `json:"cascade,omitempty"`
}

// IsRelation reports whether the property points at another schema's
// objects rather than embedding a literal.
func (p *Property) IsRelation() bool {
	oc := p.ObjectConfiguration
	return oc != nil && oc.Schema != "" && oc.Handling != HandlingNestedObject
}
