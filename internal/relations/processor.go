// This file implements the batch pipeline: analyze schemas once per
// batch, cascade inline children, scan relation edges, commit parents,
// then apply post-commit inverse write-back. Object-level failures are
// collected into the batch result; only configuration errors abort.
package relations

import (
	"context"
	"fmt"
	"strings"

	"github.com/ConductionNL/openregister-sub015/internal/log"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// Processor runs bulk saves. One batch is processed synchronously by a
// single worker; distinct Processor batches may run concurrently. The
// analysis cache converges under races, and same-target write-back
// serialization is the storage layer's guarantee, surfaced through
// ErrConcurrencyConflict.
type Processor struct {
	provider  types.SchemaProvider
	mapper    types.StorageMapper
	creator   types.ObjectCreator
	validator types.Validator
	analyzer  *Analyzer
	cfg       types.BatchConfig
}

// NewProcessor creates a Processor. A nil creator defaults to creating
// children through the mapper; a nil validator accepts every object.
func NewProcessor(provider types.SchemaProvider, mapper types.StorageMapper, creator types.ObjectCreator, validator types.Validator, cfg types.BatchConfig) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if creator == nil {
		creator = &mapperCreator{mapper: mapper}
	}
	if validator == nil {
		validator = types.NopValidator{}
	}
	return &Processor{
		provider:  provider,
		mapper:    mapper,
		creator:   creator,
		validator: validator,
		analyzer:  NewAnalyzer(provider),
		cfg:       cfg,
	}, nil
}

// SaveObjects processes one bulk-save batch in document order and returns
// the per-object outcomes plus a separate write-back summary. The only
// error return is batch-fatal: a schema that cannot be fetched or
// analyzed. A partially failed batch leaves already-committed objects
// committed; there is no cross-object transaction.
func (p *Processor) SaveObjects(ctx context.Context, objects []*types.RegisterObject) (*types.BatchResult, error) {
	result := &types.BatchResult{}
	if len(objects) == 0 {
		return result, nil
	}

	// Phase 1: analyze every distinct schema once.
	analyses := make(map[string]*SchemaAnalysis)
	schemas := make(map[string]*types.Schema)
	for _, object := range objects {
		if object.SchemaID == "" || analyses[object.SchemaID] != nil {
			continue
		}
		schema, err := p.provider.GetSchema(ctx, object.SchemaID)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching schema %s: %v", types.ErrConfiguration, object.SchemaID, err)
		}
		analysis, err := p.analyzer.Analyze(ctx, schema)
		if err != nil {
			return nil, fmt.Errorf("%w: analyzing schema %s: %v", types.ErrConfiguration, object.SchemaID, err)
		}
		schemas[object.SchemaID] = schema
		analyses[object.SchemaID] = analysis
	}

	resolver := NewResolver(p.cfg)
	scanner := NewScanner(resolver, p.cfg)
	cascade := NewCascadeResolver(p.creator)
	names := NewNameCache(p.mapper)
	writer := NewInverseWriter(p.mapper, resolver, names, p.cfg)

	// Phase 2: per-object preparation. Failures isolate to one object.
	prepared := make([]*types.RegisterObject, 0, len(objects))
	for _, object := range objects {
		analysis := analyses[object.SchemaID]
		if err := object.Validate(); err != nil || analysis == nil {
			if err == nil {
				err = types.ErrInvalidData
			}
			result.AddFailure(object.ObjectID, err)
			continue
		}

		applyDefaults(object.Data, analysis)

		if p.cfg.Cascade {
			if err := cascade.PrecreateInline(ctx, object, analysis); err != nil {
				result.AddFailure(object.ObjectID, err)
				continue
			}
		}

		prepared = append(prepared, object)
	}

	// Phase 3: pre-commit write-back collection. Pure scan, no storage.
	preSet := writer.CollectPreCommit(prepared, analyses)

	// Phase 4: validate and commit parents one by one.
	saved := make([]*types.RegisterObject, 0, len(prepared))
	for _, object := range prepared {
		if err := p.validator.ValidateObject(ctx, object, schemas[object.SchemaID]); err != nil {
			result.AddFailure(object.ObjectID, err)
			continue
		}
		id, err := p.mapper.Save(ctx, object)
		if err != nil {
			result.AddFailure(object.ObjectID, err)
			continue
		}
		object.ObjectID = id
		result.AddSuccess(id)
		saved = append(saved, object)
	}

	// Phase 5: post-commit write-back with final IDs.
	postSet := writer.CollectPostCommit(ctx, saved, analyses, preSet)
	result.WriteBack = writer.ApplyWriteBack(ctx, postSet)

	// Phase 6: report the relation graph the batch produced, with final
	// IDs on both ends.
	for _, object := range saved {
		candidates := scanner.Scan(object.ObjectID, object.Data, analyses[object.SchemaID])
		edges := scanner.ResolveEdges(ctx, object.ObjectID, candidates, p.mapper)
		result.Relations = append(result.Relations, edges...)
		log.Debug(log.CatScanner, "scanned object relations",
			"object_id", object.ObjectID, "candidates", len(candidates), "edges", len(edges))
	}

	return result, nil
}

// applyDefaults fills declared defaults for absent top-level properties.
// Nested defaults stay untouched: absent intermediate containers are not
// fabricated just to hold a default.
func applyDefaults(data map[string]any, analysis *SchemaAnalysis) {
	for path, value := range analysis.Defaults {
		if strings.ContainsAny(path, ".[") {
			continue
		}
		if _, ok := data[path]; !ok {
			data[path] = value
		}
	}
}

// mapperCreator creates cascade children directly through the storage
// mapper. It is the default object-creation collaborator.
type mapperCreator struct {
	mapper types.StorageMapper
}

// CreateObject saves a new child object and returns its UUID.
func (c *mapperCreator) CreateObject(ctx context.Context, registerID, schemaID string, data map[string]any) (string, error) {
	child := &types.RegisterObject{
		RegisterID: registerID,
		SchemaID:   schemaID,
		Data:       data,
	}
	return c.mapper.Save(ctx, child)
}
