package types

import "context"

// SchemaProvider supplies schema definitions. Read-only; results are
// cached by (schema ID, version) on the consumer side.
type SchemaProvider interface {
	// GetSchema returns the schema with the given ID.
	// Returns ErrSchemaNotFound if no schema exists with that ID.
	GetSchema(ctx context.Context, id string) (*Schema, error)
}

// StorageMapper is the single-object persistence surface the relation
// engine depends on. Every call is atomic at single-object granularity;
// no cross-object transaction is assumed.
type StorageMapper interface {
	// FindByUUIDOrLegacyID returns the object identified by a canonical
	// UUID or a legacy numeric ID string.
	// Returns ErrNotFound if no object matches.
	FindByUUIDOrLegacyID(ctx context.Context, value string) (*RegisterObject, error)

	// ResolveLegacyIDs maps legacy numeric IDs to object UUIDs in one
	// query. IDs with no mapping are absent from the result.
	ResolveLegacyIDs(ctx context.Context, ids []int64) (map[int64]string, error)

	// LookupName returns the display name of the object with the given
	// UUID. Returns ErrNotFound if no object matches.
	LookupName(ctx context.Context, uuid string) (string, error)

	// UpdateProperty sets a single data property on the object. The
	// update is guarded by the object version the caller observed when
	// it read the object: when the stored version differs, nothing is
	// written and ErrConcurrencyConflict is returned so the caller can
	// re-read and retry.
	UpdateProperty(ctx context.Context, uuid string, property string, value any, expectedVersion int64) error

	// Save creates or updates an object. When ObjectID is empty a new
	// UUID v7 is generated. Returns the actual ID used.
	Save(ctx context.Context, object *RegisterObject) (string, error)
}

// ObjectCreator creates a child object during cascading. Returns the new
// object's UUID or a child-specific validation error.
type ObjectCreator interface {
	CreateObject(ctx context.Context, registerID, schemaID string, data map[string]any) (string, error)
}

// Validator checks an object against its schema. The relation engine
// never validates; it only transforms payloads and performs post-commit
// bookkeeping. The surrounding pipeline invokes the validator between
// cascading and commit.
type Validator interface {
	ValidateObject(ctx context.Context, object *RegisterObject, schema *Schema) error
}

// NopValidator accepts every object. It is the default when no external
// validator is wired in.
type NopValidator struct{}

// ValidateObject always returns nil.
func (NopValidator) ValidateObject(ctx context.Context, object *RegisterObject, schema *Schema) error {
	return nil
}

// Store is the backend-agnostic storage surface: lifecycle plus the
// mapper and provider interfaces the engine consumes, plus the thin CRUD
// the CLI needs. Callers attach, operate, and detach when done.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls
	// succeed. After Detach, operations return ErrStoreDetached.
	Detach() error

	SchemaProvider
	StorageMapper

	// SaveSchema creates or updates a schema, bumping its version.
	// Returns the actual schema ID used.
	SaveSchema(ctx context.Context, schema *Schema) (string, error)

	// SaveRegister creates or updates a register.
	// Returns the actual register ID used.
	SaveRegister(ctx context.Context, register *Register) (string, error)

	// GetRegister returns the register with the given ID.
	// Returns ErrNotFound if no register exists with that ID.
	GetRegister(ctx context.Context, id string) (*Register, error)

	// ListObjects returns every object in a register, optionally
	// restricted to one schema. Ordered by creation time.
	ListObjects(ctx context.Context, registerID, schemaID string) ([]*RegisterObject, error)
}
