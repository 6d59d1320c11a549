// This file implements relation edge discovery over one object's data:
// a fast pass over the schema-known relation paths, then a bounded
// heuristic pass over any remaining nested structure. Edges come out in
// document order, which makes batching and tests reproducible.
package relations

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/ConductionNL/openregister-sub015/internal/log"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// indexedPathPattern matches concrete element indexes in a field path.
var indexedPathPattern = regexp.MustCompile(`\[\d+\]`)

// Candidate is one discovered reference before legacy ID resolution.
type Candidate struct {
	FieldPath string
	Ref       types.ObjectReference
}

// SchemaPath normalizes the concrete field path (with element indexes)
// back to the schema path form, e.g. "children[2].ownerId" to
// "children[].ownerId".
func (c Candidate) SchemaPath() string {
	return indexedPathPattern.ReplaceAllString(c.FieldPath, "[]")
}

// Scanner walks object data and produces reference candidates.
type Scanner struct {
	resolver *Resolver
	maxDepth int
}

// NewScanner creates a Scanner using the given resolver and the scan
// depth bound from config.
func NewScanner(resolver *Resolver, cfg types.BatchConfig) *Scanner {
	return &Scanner{
		resolver: resolver,
		maxDepth: cfg.MaxScanDepth,
	}
}

// Scan discovers reference candidates in document order: first the paths
// known from the schema analysis, then a bounded heuristic pass over any
// container structure the schema does not cover. Scanning the same data
// twice yields candidates in identical order.
func (s *Scanner) Scan(objectID string, data map[string]any, analysis *SchemaAnalysis) []Candidate {
	var out []Candidate
	covered := make(map[string]bool)

	for _, path := range analysis.RelationPaths {
		for _, lf := range leavesAtPath(data, parsePath(path), "") {
			covered[lf.path] = true
			ref := s.resolver.Resolve(lf.value)
			if ref.Kind == types.RefKindUnresolved {
				// Kept as a literal; relation properties normally hold
				// references, so this is worth a warning.
				log.Warn(log.CatScanner, "unresolved reference on relation property",
					"object_id", objectID, "field_path", lf.path, "value", lf.value)
				continue
			}
			out = append(out, Candidate{FieldPath: lf.path, Ref: ref})
		}
	}

	out = append(out, s.heuristicScan(data, covered)...)
	return out
}

// ResolveEdges turns candidates into relation edges. All numeric ID
// references are resolved through the legacy mapping in a single batched
// query. Resolution is best-effort: numeric IDs with no mapping, and
// lookup failures, drop the candidate with a warning. Edge order follows
// candidate order.
func (s *Scanner) ResolveEdges(ctx context.Context, sourceObjectID string, candidates []Candidate, mapper types.StorageMapper) []types.RelationEdge {
	var legacyIDs []int64
	seen := make(map[int64]bool)
	for _, c := range candidates {
		if c.Ref.Kind != types.RefKindNumericID {
			continue
		}
		if id, ok := s.resolver.LegacyID(c.Ref.Raw); ok && !seen[id] {
			seen[id] = true
			legacyIDs = append(legacyIDs, id)
		}
	}

	legacyMap := map[int64]string{}
	if len(legacyIDs) > 0 {
		resolved, err := mapper.ResolveLegacyIDs(ctx, legacyIDs)
		if err != nil {
			log.ErrorErr(log.CatScanner, "batched legacy ID resolution failed", err,
				"object_id", sourceObjectID, "id_count", len(legacyIDs))
		} else {
			legacyMap = resolved
		}
	}

	var edges []types.RelationEdge
	for _, c := range candidates {
		target := c.Ref.UUID
		if c.Ref.Kind == types.RefKindNumericID {
			id, _ := s.resolver.LegacyID(c.Ref.Raw)
			target = legacyMap[id]
		}
		if target == "" {
			log.Warn(log.CatScanner, "reference target not resolvable",
				"object_id", sourceObjectID, "field_path", c.FieldPath, "value", c.Ref.Raw)
			continue
		}
		edges = append(edges, types.RelationEdge{
			SourceObjectID: sourceObjectID,
			FieldPath:      c.FieldPath,
			TargetUUID:     target,
		})
	}
	return edges
}

// heuristicScan is an explicit depth-first visit over containers the
// schema analysis did not cover. An explicit stack with a depth counter
// and a visited-container set keeps self-referential or deeply nested
// structures from recursing without bound. Only strings that classify as
// references become candidates; ordinary literals pass silently.
func (s *Scanner) heuristicScan(data map[string]any, covered map[string]bool) []Candidate {
	type frame struct {
		value any
		path  string
		depth int
	}

	var out []Candidate
	visited := make(map[uintptr]bool)
	stack := []frame{{value: data, path: "", depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > s.maxDepth {
			continue
		}

		switch v := f.value.(type) {
		case map[string]any:
			ptr := reflect.ValueOf(v).Pointer()
			if visited[ptr] {
				continue
			}
			visited[ptr] = true
			keys := sortedKeys(v)
			// Push in reverse so the stack pops in name order.
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, frame{
					value: v[keys[i]],
					path:  joinPath(f.path, keys[i]),
					depth: f.depth + 1,
				})
			}

		case []any:
			ptr := reflect.ValueOf(v).Pointer()
			if visited[ptr] {
				continue
			}
			visited[ptr] = true
			for i := len(v) - 1; i >= 0; i-- {
				stack = append(stack, frame{
					value: v[i],
					path:  fmt.Sprintf("%s[%d]", f.path, i),
					depth: f.depth + 1,
				})
			}

		case string:
			if covered[f.path] {
				continue
			}
			ref := s.resolver.Resolve(v)
			if ref.Kind != types.RefKindUnresolved {
				out = append(out, Candidate{FieldPath: f.path, Ref: ref})
			}
		}
	}
	return out
}

// pathSegment is one parsed element of a schema property path.
type pathSegment struct {
	name  string
	array bool
}

// parsePath splits a schema path such as "children[].ownerId" into its
// segments.
func parsePath(path string) []pathSegment {
	parts := strings.Split(path, ".")
	segs := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		if strings.HasSuffix(part, "[]") {
			segs = append(segs, pathSegment{name: part[:len(part)-2], array: true})
		} else {
			segs = append(segs, pathSegment{name: part})
		}
	}
	return segs
}

// leaf is one scalar string found at a concrete field path.
type leaf struct {
	path  string
	value string
}

// leavesAtPath collects the string leaves at a schema path inside a data
// container, producing concrete indexed paths in document order.
func leavesAtPath(value any, segs []pathSegment, prefix string) []leaf {
	if len(segs) == 0 {
		return nil
	}

	container, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	seg := segs[0]
	child, ok := container[seg.name]
	if !ok {
		return nil
	}
	concrete := joinPath(prefix, seg.name)

	var out []leaf
	if seg.array {
		list, ok := child.([]any)
		if !ok {
			return nil
		}
		for i, elem := range list {
			indexed := fmt.Sprintf("%s[%d]", concrete, i)
			if len(segs) == 1 {
				out = append(out, stringLeaves(elem, indexed)...)
			} else {
				out = append(out, leavesAtPath(elem, segs[1:], indexed)...)
			}
		}
		return out
	}

	if len(segs) == 1 {
		return stringLeaves(child, concrete)
	}
	return leavesAtPath(child, segs[1:], concrete)
}

// stringLeaves extracts the string value or string list elements at a
// terminal path. Inline object literals are not leaves; the cascade
// resolver replaces them with references before scanning.
func stringLeaves(value any, path string) []leaf {
	switch v := value.(type) {
	case string:
		return []leaf{{path: path, value: v}}
	case []any:
		var out []leaf
		for i, elem := range v {
			if s, ok := elem.(string); ok {
				out = append(out, leaf{path: fmt.Sprintf("%s[%d]", path, i), value: s})
			}
		}
		return out
	default:
		return nil
	}
}

// joinPath appends a property name to a (possibly empty) path prefix.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
