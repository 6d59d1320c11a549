// This file implements schema analysis: allOf composition, a single walk
// over every property descriptor, and the (schema ID, version) keyed
// read-through cache of the results.
package relations

import (
	"context"
	"fmt"
	"sort"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ConductionNL/openregister-sub015/internal/log"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// Analyzer classifies schemas into SchemaAnalysis values and caches them.
// The cache is a concurrent read-through cache; population is
// compute-and-publish. Losing a publish race is harmless because the value
// is a pure function of the schema.
type Analyzer struct {
	provider types.SchemaProvider
	cache    *gocache.Cache
}

// NewAnalyzer creates an Analyzer backed by the given schema provider.
func NewAnalyzer(provider types.SchemaProvider) *Analyzer {
	return &Analyzer{
		provider: provider,
		// Analyses are immutable per (schema ID, version); never expire.
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// analysisKey is the cache key for one schema version.
func analysisKey(schemaID string, version int) string {
	return fmt.Sprintf("%s@%d", schemaID, version)
}

// Analyze classifies every property path of the schema. allOf parents are
// fetched through the provider and merged parent-first, so the child's own
// declarations win on conflict. Malformed descriptors are skipped with a
// warning, never fatally. An allOf cycle or a missing parent schema is a
// configuration error and aborts the batch.
func (a *Analyzer) Analyze(ctx context.Context, schema *types.Schema) (*SchemaAnalysis, error) {
	key := analysisKey(schema.SchemaID, schema.Version)
	if cached, ok := a.cache.Get(key); ok {
		return cached.(*SchemaAnalysis), nil
	}

	properties, required, err := a.compose(ctx, schema, map[string]bool{})
	if err != nil {
		return nil, err
	}

	analysis := newSchemaAnalysis(schema.SchemaID, schema.Version)
	for _, name := range required {
		analysis.Required[name] = true
	}
	for _, name := range sortedKeys(properties) {
		a.walkProperty(name, properties[name], analysis)
	}

	a.cache.Set(key, analysis, gocache.NoExpiration)
	return analysis, nil
}

// compose resolves allOf composition into a single flat property map and
// required list. Parents merge first; the child overrides on conflict.
// seen guards against composition cycles.
func (a *Analyzer) compose(ctx context.Context, schema *types.Schema, seen map[string]bool) (map[string]*types.Property, []string, error) {
	if seen[schema.SchemaID] {
		return nil, nil, fmt.Errorf("schema %s: %w", schema.SchemaID, types.ErrSchemaCycle)
	}
	seen[schema.SchemaID] = true

	merged := make(map[string]*types.Property)
	var required []string

	for _, parentID := range schema.AllOf {
		parent, err := a.provider.GetSchema(ctx, parentID)
		if err != nil {
			return nil, nil, fmt.Errorf("composing schema %s from parent %s: %w", schema.SchemaID, parentID, err)
		}
		parentProps, parentRequired, err := a.compose(ctx, parent, seen)
		if err != nil {
			return nil, nil, err
		}
		for name, prop := range parentProps {
			merged[name] = prop
		}
		required = append(required, parentRequired...)
	}

	for name, prop := range schema.Properties {
		merged[name] = prop
	}
	required = append(required, schema.Required...)

	delete(seen, schema.SchemaID)
	return merged, required, nil
}

// walkProperty classifies one property descriptor at the given path and
// recurses into nested object and array-of-object descriptors.
func (a *Analyzer) walkProperty(path string, prop *types.Property, analysis *SchemaAnalysis) {
	if prop == nil || (prop.Type == "" && prop.ObjectConfiguration == nil) {
		log.Warn(log.CatAnalyzer, "skipping malformed property descriptor",
			"schema_id", analysis.SchemaID, "field_path", path)
		return
	}

	if prop.Default != nil {
		analysis.Defaults[path] = prop.Default
	}

	// A property with an object configuration relates to another schema
	// regardless of its declared value type: string-typed relation
	// properties hold the reference in textual form.
	if prop.IsRelation() {
		a.recordRelation(path, prop, CardinalitySingle, analysis)
		return
	}

	switch prop.Type {
	case types.TypeBoolean:
		analysis.BooleanProperties[path] = true

	case types.TypeFile:
		analysis.FileProperties[path] = true

	case types.TypeObject:
		for _, name := range prop.Required {
			analysis.Required[path+"."+name] = true
		}
		for _, name := range sortedKeys(prop.Properties) {
			a.walkProperty(path+"."+name, prop.Properties[name], analysis)
		}

	case types.TypeArray:
		items := prop.Items
		if items == nil {
			return
		}
		if items.IsRelation() {
			// A list of references: the array path itself is the
			// relation, with multiple cardinality.
			a.recordRelation(path, items, CardinalityMultiple, analysis)
			return
		}
		if items.Type == types.TypeObject {
			for _, name := range items.Required {
				analysis.Required[path+"[]."+name] = true
			}
			for _, name := range sortedKeys(items.Properties) {
				a.walkProperty(path+"[]."+name, items.Properties[name], analysis)
			}
		}
	}
}

// recordRelation registers a relation property and, when declared, its
// inversedBy back-reference.
func (a *Analyzer) recordRelation(path string, prop *types.Property, cardinality Cardinality, analysis *SchemaAnalysis) {
	oc := prop.ObjectConfiguration
	analysis.RelationProperties[path] = RelationSpec{
		TargetSchema: oc.Schema,
		Cardinality:  cardinality,
		Cascade:      oc.Cascade,
	}
	analysis.RelationPaths = append(analysis.RelationPaths, path)

	if oc.InversedBy != "" {
		analysis.InverseProperties[path] = InverseSpec{
			TargetProperty: oc.InversedBy,
			TargetSchema:   oc.Schema,
			Cardinality:    cardinality,
		}
		analysis.InversePaths = append(analysis.InversePaths, path)
	}
}

// sortedKeys returns the map keys in name order. Property maps carry no
// declaration order, so name order is the canonical document order used
// throughout the engine.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
