package relations

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// fakeCreator records child creations and can fail on demand.
type fakeCreator struct {
	nextID  int
	created []map[string]any
	schemas []string
	err     error
}

func (f *fakeCreator) CreateObject(ctx context.Context, registerID, schemaID string, data map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	f.created = append(f.created, data)
	f.schemas = append(f.schemas, schemaID)
	return fmt.Sprintf("child-%d", f.nextID), nil
}

func TestPrecreateInlineSubstitutesLiteral(t *testing.T) {
	creator := &fakeCreator{}
	cascade := NewCascadeResolver(creator)
	analysis := analyzeForTest(t, petSchema())

	object := &types.RegisterObject{
		ObjectID:   "pet-1",
		RegisterID: "reg-1",
		SchemaID:   "schema-pet",
		Data: map[string]any{
			"name":  "Rex",
			"owner": map[string]any{"name": "Alice"},
		},
	}

	require.NoError(t, cascade.PrecreateInline(context.Background(), object, analysis))

	assert.Equal(t, "child-1", object.Data["owner"], "literal replaced by the new child's id")
	require.Len(t, creator.created, 1)
	assert.Equal(t, "Alice", creator.created[0]["name"])
	assert.Equal(t, []string{"schema-person"}, creator.schemas, "child created under the relation's target schema")
}

func TestPrecreateInlineLeavesReferencesAlone(t *testing.T) {
	creator := &fakeCreator{}
	cascade := NewCascadeResolver(creator)
	analysis := analyzeForTest(t, petSchema())

	object := &types.RegisterObject{
		ObjectID: "pet-1",
		SchemaID: "schema-pet",
		Data:     map[string]any{"owner": uuidA},
	}

	require.NoError(t, cascade.PrecreateInline(context.Background(), object, analysis))
	assert.Equal(t, uuidA, object.Data["owner"])
	assert.Empty(t, creator.created)
}

func TestPrecreateInlineHonorsCascadeFlag(t *testing.T) {
	creator := &fakeCreator{}
	cascade := NewCascadeResolver(creator)

	schema := &types.Schema{
		SchemaID: "schema-pet",
		Title:    "Pet",
		Version:  1,
		Properties: map[string]*types.Property{
			"owner": {
				Type: types.TypeObject,
				ObjectConfiguration: &types.ObjectConfiguration{
					Handling:   types.HandlingRelatedObject,
					Schema:     "schema-person",
					InversedBy: "pets",
				},
			},
		},
	}
	analysis := analyzeForTest(t, schema)

	object := &types.RegisterObject{
		ObjectID: "pet-1",
		SchemaID: "schema-pet",
		Data:     map[string]any{"owner": map[string]any{"name": "Alice"}},
	}

	require.NoError(t, cascade.PrecreateInline(context.Background(), object, analysis))
	assert.Empty(t, creator.created, "no child created without the cascade flag")
	assert.Equal(t, map[string]any{"name": "Alice"}, object.Data["owner"], "literal left in place for validation")
}

func TestPrecreateInlineMixedList(t *testing.T) {
	creator := &fakeCreator{}
	cascade := NewCascadeResolver(creator)

	schema := &types.Schema{
		SchemaID: "schema-team",
		Title:    "Team",
		Version:  1,
		Properties: map[string]*types.Property{
			"members": {
				Type: types.TypeArray,
				Items: &types.Property{
					Type: types.TypeObject,
					ObjectConfiguration: &types.ObjectConfiguration{
						Handling:   types.HandlingRelatedObject,
						Schema:     "schema-person",
						InversedBy: "teams",
						Cascade:    true,
					},
				},
			},
		},
	}
	analysis := analyzeForTest(t, schema)

	object := &types.RegisterObject{
		ObjectID: "team-1",
		SchemaID: "schema-team",
		Data: map[string]any{
			"members": []any{
				uuidA,
				map[string]any{"name": "Bob"},
				map[string]any{"name": "Carol"},
			},
		},
	}

	require.NoError(t, cascade.PrecreateInline(context.Background(), object, analysis))

	members := object.Data["members"].([]any)
	assert.Equal(t, uuidA, members[0], "existing reference untouched")
	assert.Equal(t, "child-1", members[1])
	assert.Equal(t, "child-2", members[2])
}

func TestPrecreateInlineFailureWrapsCascadeError(t *testing.T) {
	creator := &fakeCreator{err: errors.New("child name is required")}
	cascade := NewCascadeResolver(creator)
	analysis := analyzeForTest(t, petSchema())

	object := &types.RegisterObject{
		ObjectID: "pet-1",
		SchemaID: "schema-pet",
		Data:     map[string]any{"owner": map[string]any{}},
	}

	err := cascade.PrecreateInline(context.Background(), object, analysis)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCascadeFailed)
	assert.Contains(t, err.Error(), "owner")
	assert.Contains(t, err.Error(), "child name is required")
}

func TestPrecreateInlineIgnoresNonInversePaths(t *testing.T) {
	creator := &fakeCreator{}
	cascade := NewCascadeResolver(creator)
	// personSchema's pets relation declares no inversedBy.
	analysis := analyzeForTest(t, personSchema())

	object := &types.RegisterObject{
		ObjectID: "person-1",
		SchemaID: "schema-person",
		Data: map[string]any{
			"pets": []any{map[string]any{"name": "Rex"}},
		},
	}

	require.NoError(t, cascade.PrecreateInline(context.Background(), object, analysis))
	assert.Empty(t, creator.created, "only inversedBy relation paths cascade")
}
