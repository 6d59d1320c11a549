package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Entity lookup and persistence errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
)

// Configuration errors abort the whole batch. A schema that cannot be
// fetched or analyzed makes every object of that schema unprocessable.
var (
	ErrConfiguration  = errors.New("invalid schema configuration")
	ErrSchemaNotFound = errors.New("schema not found")
	ErrSchemaCycle    = errors.New("schema composition cycle")
)

// Object- and target-level errors. These are collected into the batch
// result; they never abort the batch.
var (
	// ErrReferenceUnresolved marks a value that looked like a reference
	// but could not be resolved. The value is kept as a literal.
	ErrReferenceUnresolved = errors.New("reference could not be resolved")

	// ErrCascadeFailed marks a parent object whose inline child could not
	// be created. Only that parent fails; siblings are unaffected.
	ErrCascadeFailed = errors.New("inline child creation failed")

	// ErrWriteBackFailed marks a target whose inverse-property update
	// could not be persisted. The operation is retryable.
	ErrWriteBackFailed = errors.New("inverse relation write-back failed")

	// ErrConcurrencyConflict is returned by the storage mapper when an
	// optimistic concurrency check fails during a property update. The
	// writer retries with a fresh read a bounded number of times.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)

// Batch configuration validation errors.
var (
	ErrScanDepthInvalid     = errors.New("max scan depth must be positive")
	ErrRetryBoundInvalid    = errors.New("max write-back retries must be positive")
	ErrLegacyBoundsInvalid  = errors.New("legacy ID bounds must satisfy 0 < min <= max")
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
)
