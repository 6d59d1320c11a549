// This file implements inverse relation write-back: aggregating inversedBy
// edges across the whole batch pre- and post-commit, then updating each
// referenced target once with the set union of its new back-references.
package relations

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ConductionNL/openregister-sub015/internal/log"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// WriteBackSet groups pending write-back operations by target UUID.
// Built pre-commit, merged post-commit, executed once, then discarded.
type WriteBackSet map[string]*types.WriteBackOperation

// Add records one (parent, inverse property) pair for a target.
func (s WriteBackSet) Add(targetUUID, parentUUID, property string) {
	op, ok := s[targetUUID]
	if !ok {
		op = types.NewWriteBackOperation(targetUUID)
		s[targetUUID] = op
	}
	op.Add(parentUUID, property)
}

// Merge unions another set into this one.
func (s WriteBackSet) Merge(other WriteBackSet) {
	for target, op := range other {
		existing, ok := s[target]
		if !ok {
			s[target] = op
			continue
		}
		existing.Merge(op)
	}
}

// InverseWriter performs batched, idempotent back-link write-back.
type InverseWriter struct {
	mapper     types.StorageMapper
	resolver   *Resolver
	names      *NameCache
	maxRetries int
}

// NewInverseWriter creates an InverseWriter over the given mapper. The
// name cache must be batch-scoped; the retry bound comes from config.
func NewInverseWriter(mapper types.StorageMapper, resolver *Resolver, names *NameCache, cfg types.BatchConfig) *InverseWriter {
	return &InverseWriter{
		mapper:     mapper,
		resolver:   resolver,
		names:      names,
		maxRetries: cfg.MaxWriteBackRetries,
	}
}

// CollectPreCommit scans every prepared object and groups discovered
// inversedBy edges by target UUID. No storage access: numeric legacy
// references and objects that have no ID yet are left for the post-commit
// pass, which re-derives everything with final IDs.
func (w *InverseWriter) CollectPreCommit(objects []*types.RegisterObject, analyses map[string]*SchemaAnalysis) WriteBackSet {
	set := make(WriteBackSet)
	for _, object := range objects {
		if object.ObjectID == "" {
			continue
		}
		analysis := analyses[object.SchemaID]
		if analysis == nil {
			continue
		}
		for _, path := range analysis.InversePaths {
			spec := analysis.InverseProperties[path]
			for _, lf := range leavesAtPath(object.Data, parsePath(path), "") {
				ref := w.resolver.Resolve(lf.value)
				if ref.UUID == "" {
					continue
				}
				set.Add(ref.UUID, object.ObjectID, spec.TargetProperty)
			}
		}
	}
	return set
}

// CollectPostCommit re-derives inversedBy edges from the saved objects,
// whose IDs are now final, resolves all numeric legacy references in one
// batched query, and merges the result into the pre-commit set.
func (w *InverseWriter) CollectPostCommit(ctx context.Context, objects []*types.RegisterObject, analyses map[string]*SchemaAnalysis, pre WriteBackSet) WriteBackSet {
	type pending struct {
		objectID string
		property string
		legacyID int64
	}

	merged := make(WriteBackSet)
	merged.Merge(pre)

	var pendingLegacy []pending
	for _, object := range objects {
		if object.ObjectID == "" {
			continue
		}
		analysis := analyses[object.SchemaID]
		if analysis == nil {
			continue
		}
		for _, path := range analysis.InversePaths {
			spec := analysis.InverseProperties[path]
			for _, lf := range leavesAtPath(object.Data, parsePath(path), "") {
				ref := w.resolver.Resolve(lf.value)
				switch {
				case ref.UUID != "":
					merged.Add(ref.UUID, object.ObjectID, spec.TargetProperty)
				case ref.Kind == types.RefKindNumericID:
					if id, ok := w.resolver.LegacyID(ref.Raw); ok {
						pendingLegacy = append(pendingLegacy, pending{
							objectID: object.ObjectID,
							property: spec.TargetProperty,
							legacyID: id,
						})
					}
				}
			}
		}
	}

	if len(pendingLegacy) > 0 {
		ids := make([]int64, 0, len(pendingLegacy))
		seen := make(map[int64]bool)
		for _, p := range pendingLegacy {
			if !seen[p.legacyID] {
				seen[p.legacyID] = true
				ids = append(ids, p.legacyID)
			}
		}
		resolved, err := w.mapper.ResolveLegacyIDs(ctx, ids)
		if err != nil {
			log.ErrorErr(log.CatWriteBack, "batched legacy ID resolution failed", err, "id_count", len(ids))
		} else {
			for _, p := range pendingLegacy {
				if target, ok := resolved[p.legacyID]; ok {
					merged.Add(target, p.objectID, p.property)
				}
			}
		}
	}

	return merged
}

// ApplyWriteBack executes the operations target by target. Each target is
// read once per attempt, its inverse properties are set-unioned with the
// newly discovered parent IDs, and the result is persisted once per
// property, never once per edge. Targets are independent: one failure is
// logged with context and does not block the others. Re-running the same
// operation set is safe because the union is idempotent.
func (w *InverseWriter) ApplyWriteBack(ctx context.Context, set WriteBackSet) types.WriteBackSummary {
	var summary types.WriteBackSummary

	for _, target := range sortedKeys(set) {
		op := set[target]
		if len(op.Refs) == 0 {
			continue
		}
		if err := w.applyTarget(ctx, op); err != nil {
			name := w.displayName(ctx, target)
			log.ErrorErr(log.CatWriteBack, "write-back failed for target", err,
				"target_id", target, "target_name", name, "ref_count", len(op.Refs))
			summary.Failed = append(summary.Failed, types.WriteBackFailure{
				TargetUUID: target,
				TargetName: name,
				Reason:     err.Error(),
			})
			continue
		}
		summary.Updated++
	}

	return summary
}

// applyTarget performs the read-modify-write for one target, retrying
// with a fresh read after each concurrency conflict up to the bound.
func (w *InverseWriter) applyTarget(ctx context.Context, op *types.WriteBackOperation) error {
	byProperty := make(map[string][]string)
	for ref := range op.Refs {
		byProperty[ref.Property] = append(byProperty[ref.Property], ref.ParentUUID)
	}
	for _, parents := range byProperty {
		sort.Strings(parents)
	}

attempts:
	for attempt := 0; attempt < w.maxRetries; attempt++ {
		current, err := w.mapper.FindByUUIDOrLegacyID(ctx, op.TargetUUID)
		if err != nil {
			return fmt.Errorf("%w: reading target: %v", types.ErrWriteBackFailed, err)
		}

		// Guard every write on the version this read observed, bumping
		// it locally after each successful single-property update.
		observedVersion := current.ObjectVersion

		for _, property := range sortedKeys(byProperty) {
			merged, changed := unionValues(current.Data[property], byProperty[property])
			if !changed {
				continue
			}
			err := w.mapper.UpdateProperty(ctx, op.TargetUUID, property, merged, observedVersion)
			if errors.Is(err, types.ErrConcurrencyConflict) {
				log.Warn(log.CatWriteBack, "concurrency conflict, re-reading target",
					"target_id", op.TargetUUID, "property", property, "attempt", attempt+1)
				continue attempts
			}
			if err != nil {
				return fmt.Errorf("%w: updating %s: %v", types.ErrWriteBackFailed, property, err)
			}
			observedVersion++
		}

		log.Debug(log.CatWriteBack, "write-back applied",
			"target_id", op.TargetUUID, "target_name", w.displayName(ctx, op.TargetUUID), "ref_count", len(op.Refs))
		return nil
	}

	return fmt.Errorf("%w: %v after %d attempts", types.ErrWriteBackFailed, types.ErrConcurrencyConflict, w.maxRetries)
}

// displayName resolves a human-readable name for the target, falling back
// to a uuid-derived placeholder when the object has none or is missing.
func (w *InverseWriter) displayName(ctx context.Context, target string) string {
	if name, ok := w.names.GetName(ctx, target); ok {
		return name
	}
	return FallbackName(target, "", "")
}

// unionValues merges newly discovered parent IDs into the current inverse
// property value. Existing entries keep their order; new parents append in
// sorted order, so the final set is independent of batch processing order.
// The second result reports whether anything was added.
func unionValues(existing any, parents []string) ([]any, bool) {
	var merged []any
	seen := make(map[string]bool)

	switch v := existing.(type) {
	case nil:
	case string:
		if v != "" {
			merged = append(merged, v)
			seen[v] = true
		}
	case []any:
		for _, elem := range v {
			merged = append(merged, elem)
			if s, ok := elem.(string); ok {
				seen[s] = true
			}
		}
	case []string:
		for _, s := range v {
			merged = append(merged, s)
			seen[s] = true
		}
	default:
		merged = append(merged, v)
	}

	changed := false
	for _, parent := range parents {
		if !seen[parent] {
			merged = append(merged, parent)
			seen[parent] = true
			changed = true
		}
	}
	return merged, changed
}
