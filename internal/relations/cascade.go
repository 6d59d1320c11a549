// This file implements cascading: inline child payloads on inversedBy
// relation properties are created ahead of parent validation and replaced
// by the new child's UUID, since validation expects a reference there.
package relations

import (
	"context"
	"fmt"

	"github.com/ConductionNL/openregister-sub015/internal/log"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// CascadeResolver creates inline child objects through the external
// creation collaborator and substitutes their IDs into the parent payload.
type CascadeResolver struct {
	creator types.ObjectCreator
}

// NewCascadeResolver creates a CascadeResolver using the given creator.
func NewCascadeResolver(creator types.ObjectCreator) *CascadeResolver {
	return &CascadeResolver{creator: creator}
}

// PrecreateInline walks every inversedBy relation path of the object
// whose schema declares cascading. A value that is an inline object
// literal is created as a child of the relation's target schema and
// replaced in place by the new UUID; list values substitute only their
// literal elements, leaving existing references untouched. Paths without
// the cascade flag are left alone: an inline literal there stays a
// literal for the validator to reject. The first child creation failure
// fails this parent object only; the error wraps ErrCascadeFailed and is
// collected at the batch level.
func (c *CascadeResolver) PrecreateInline(ctx context.Context, object *types.RegisterObject, analysis *SchemaAnalysis) error {
	for _, path := range analysis.InversePaths {
		spec := analysis.RelationProperties[path]
		if !spec.Cascade {
			continue
		}
		if err := c.precreateAtPath(ctx, object, object.Data, parsePath(path), path, spec); err != nil {
			return err
		}
	}
	return nil
}

// precreateAtPath descends the parsed path inside container and performs
// the create-and-substitute at the terminal segment.
func (c *CascadeResolver) precreateAtPath(ctx context.Context, object *types.RegisterObject, container map[string]any, segs []pathSegment, fullPath string, spec RelationSpec) error {
	if len(segs) == 0 {
		return nil
	}
	seg := segs[0]
	child, ok := container[seg.name]
	if !ok {
		return nil
	}

	if len(segs) > 1 {
		if seg.array {
			list, ok := child.([]any)
			if !ok {
				return nil
			}
			for _, elem := range list {
				inner, ok := elem.(map[string]any)
				if !ok {
					continue
				}
				if err := c.precreateAtPath(ctx, object, inner, segs[1:], fullPath, spec); err != nil {
					return err
				}
			}
			return nil
		}
		inner, ok := child.(map[string]any)
		if !ok {
			return nil
		}
		return c.precreateAtPath(ctx, object, inner, segs[1:], fullPath, spec)
	}

	// Terminal segment: substitute literals.
	switch v := child.(type) {
	case map[string]any:
		id, err := c.createChild(ctx, object, fullPath, spec, v)
		if err != nil {
			return err
		}
		container[seg.name] = id

	case []any:
		for i, elem := range v {
			literal, ok := elem.(map[string]any)
			if !ok {
				// Already a reference or a plain literal; leave it.
				continue
			}
			id, err := c.createChild(ctx, object, fmt.Sprintf("%s[%d]", fullPath, i), spec, literal)
			if err != nil {
				return err
			}
			v[i] = id
		}
	}
	// Strings are already references (or soft-unresolved literals); no
	// action either way.
	return nil
}

// createChild creates one inline child via the collaborator and returns
// the new child's UUID.
func (c *CascadeResolver) createChild(ctx context.Context, object *types.RegisterObject, fieldPath string, spec RelationSpec, payload map[string]any) (string, error) {
	id, err := c.creator.CreateObject(ctx, object.RegisterID, spec.TargetSchema, payload)
	if err != nil {
		return "", fmt.Errorf("%w: field %s: %v", types.ErrCascadeFailed, fieldPath, err)
	}
	log.Debug(log.CatCascade, "created inline child",
		"object_id", object.ObjectID, "field_path", fieldPath, "child_id", id, "target_schema", spec.TargetSchema)
	return id, nil
}
