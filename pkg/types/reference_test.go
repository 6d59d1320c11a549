package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteBackOperationAdd(t *testing.T) {
	op := NewWriteBackOperation("target-1")

	op.Add("parent-a", "pets")
	op.Add("parent-b", "pets")
	// Duplicate adds are absorbed.
	op.Add("parent-a", "pets")

	assert.Len(t, op.Refs, 2)
	assert.Contains(t, op.Refs, InverseRef{ParentUUID: "parent-a", Property: "pets"})
	assert.Contains(t, op.Refs, InverseRef{ParentUUID: "parent-b", Property: "pets"})
}

func TestWriteBackOperationMerge(t *testing.T) {
	pre := NewWriteBackOperation("target-1")
	pre.Add("parent-a", "pets")

	post := NewWriteBackOperation("target-1")
	post.Add("parent-a", "pets")
	post.Add("parent-b", "pets")

	pre.Merge(post)

	assert.Len(t, pre.Refs, 2)

	// Merging again changes nothing.
	pre.Merge(post)
	assert.Len(t, pre.Refs, 2)
}

func TestObjectReferenceIsResolved(t *testing.T) {
	assert.True(t, ObjectReference{Kind: RefKindUUID, UUID: "123e4567-e89b-12d3-a456-426614174000"}.IsResolved())
	assert.False(t, ObjectReference{Kind: RefKindNumericID, Raw: "42"}.IsResolved())
	assert.False(t, ObjectReference{Kind: RefKindUnresolved, Raw: "hello"}.IsResolved())
}

func TestPropertyIsRelation(t *testing.T) {
	tests := []struct {
		name string
		prop Property
		want bool
	}{
		{"plain string", Property{Type: TypeString}, false},
		{"object without configuration", Property{Type: TypeObject}, false},
		{"related object", Property{Type: TypeObject, ObjectConfiguration: &ObjectConfiguration{Handling: HandlingRelatedObject, Schema: "s1"}}, true},
		{"nested object embeds a literal", Property{Type: TypeObject, ObjectConfiguration: &ObjectConfiguration{Handling: HandlingNestedObject, Schema: "s1"}}, false},
		{"configuration without target schema", Property{Type: TypeObject, ObjectConfiguration: &ObjectConfiguration{Handling: HandlingRelatedObject}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.prop.IsRelation())
		})
	}
}
