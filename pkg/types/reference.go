package types

// ReferenceKind classifies the textual form a reference was written in.
type ReferenceKind string

const (
	RefKindUUID       ReferenceKind = "uuid"
	RefKindURL        ReferenceKind = "url"
	RefKindNumericID  ReferenceKind = "numeric_id"
	RefKindUnresolved ReferenceKind = "unresolved"
)

// ObjectReference is the classification result for one scalar value.
// UUID is empty for numeric_id references until the legacy mapping has
// been consulted, and always empty for unresolved values.
type ObjectReference struct {
	Raw  string
	Kind ReferenceKind
	UUID string
}

// IsResolved reports whether the reference carries a canonical UUID.
func (r ObjectReference) IsResolved() bool {
	return r.UUID != ""
}

// RelationEdge records that a source object's field references a target.
// Edges are produced per scan in document order and reported on the
// batch result, never persisted.
type RelationEdge struct {
	SourceObjectID string `json:"source_object_id"`
	FieldPath      string `json:"field_path"`
	TargetUUID     string `json:"target_uuid"`
}

// InverseRef is one (parent, inverse property) pair to union into a
// target's back-reference property.
type InverseRef struct {
	ParentUUID string
	Property   string
}

// WriteBackOperation accumulates the back-references discovered for one
// target across a whole batch. Refs is a set, so merging the same edge
// twice is a no-op and applying an operation is idempotent.
type WriteBackOperation struct {
	TargetUUID string
	Refs       map[InverseRef]struct{}
}

// NewWriteBackOperation returns an empty operation for the target.
func NewWriteBackOperation(target string) *WriteBackOperation {
	return &WriteBackOperation{
		TargetUUID: target,
		Refs:       make(map[InverseRef]struct{}),
	}
}

// Add records one back-reference pair. Duplicate adds are absorbed.
func (op *WriteBackOperation) Add(parentUUID, property string) {
	op.Refs[InverseRef{ParentUUID: parentUUID, Property: property}] = struct{}{}
}

// Merge unions another operation for the same target into this one.
func (op *WriteBackOperation) Merge(other *WriteBackOperation) {
	for ref := range other.Refs {
		op.Refs[ref] = struct{}{}
	}
}
