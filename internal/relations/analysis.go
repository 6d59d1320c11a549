// Package relations implements the bulk relation-resolution and write-back
// engine: schema analysis, textual reference classification, relation edge
// scanning, cascading creation of inline children, and batched idempotent
// inverse-relation write-back.
package relations

// Cardinality of a relation property.
type Cardinality string

const (
	CardinalitySingle   Cardinality = "single"
	CardinalityMultiple Cardinality = "multiple"
)

// RelationSpec describes one relation property discovered during analysis.
type RelationSpec struct {
	TargetSchema string
	Cardinality  Cardinality
	Cascade      bool
}

// InverseSpec describes the back-reference a relation property demands on
// its target schema.
type InverseSpec struct {
	TargetProperty string
	TargetSchema   string
	Cardinality    Cardinality
}

// SchemaAnalysis is the per-schema classification computed once per batch.
// Immutable once built; keyed by (schema ID, version). It is a pure
// function of the schema, so concurrent redundant computation converges to
// an identical value and needs no locking.
type SchemaAnalysis struct {
	SchemaID string
	Version  int

	// BooleanProperties holds paths of boolean-typed properties.
	BooleanProperties map[string]bool

	// RelationProperties maps property paths to their relation specs.
	RelationProperties map[string]RelationSpec

	// RelationPaths lists the relation property paths in canonical
	// document order (depth-first, name order at each level).
	RelationPaths []string

	// InverseProperties maps relation paths that declare an inversedBy
	// back-reference to their inverse specs.
	InverseProperties map[string]InverseSpec

	// InversePaths lists the inversedBy paths in canonical document order.
	InversePaths []string

	// Defaults maps property paths to their declared default values.
	Defaults map[string]any

	// Required holds paths of required properties.
	Required map[string]bool

	// FileProperties holds paths of file-typed properties.
	FileProperties map[string]bool
}

func newSchemaAnalysis(schemaID string, version int) *SchemaAnalysis {
	return &SchemaAnalysis{
		SchemaID:           schemaID,
		Version:            version,
		BooleanProperties:  make(map[string]bool),
		RelationProperties: make(map[string]RelationSpec),
		InverseProperties:  make(map[string]InverseSpec),
		Defaults:           make(map[string]any),
		Required:           make(map[string]bool),
		FileProperties:     make(map[string]bool),
	}
}
