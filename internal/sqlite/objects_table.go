// This file implements object persistence for the SQLite backend: lookup
// by UUID or legacy numeric ID, batched legacy-ID resolution, display-name
// lookup, optimistically-guarded single-property updates, and save.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

const objectColumns = `object_id, register_id, schema_id, schema_version,
	name, data, legacy_id, object_version, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for hydration.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateObject scans one objects row into a RegisterObject.
func hydrateObject(row rowScanner) (*types.RegisterObject, error) {
	var (
		obj          types.RegisterObject
		dataStr      string
		legacyID     sql.NullInt64
		createdAtStr string
		updatedAtStr string
	)
	err := row.Scan(
		&obj.ObjectID, &obj.RegisterID, &obj.SchemaID, &obj.SchemaVersion,
		&obj.Name, &dataStr, &legacyID, &obj.ObjectVersion,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}
	if legacyID.Valid {
		obj.LegacyID = legacyID.Int64
	}
	if err := json.Unmarshal([]byte(dataStr), &obj.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling object data: %w", err)
	}
	if obj.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if obj.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &obj, nil
}

// FindByUUIDOrLegacyID returns the object identified by a canonical UUID
// or a legacy numeric ID string. Returns ErrNotFound if no object
// matches, ErrInvalidID if the value is neither form.
func (b *Backend) FindByUUIDOrLegacyID(ctx context.Context, value string) (*types.RegisterObject, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	var row *sql.Row
	switch {
	case isUUID(value):
		row = db.QueryRowContext(ctx,
			"SELECT "+objectColumns+" FROM objects WHERE object_id = ?", value)
	case isNumeric(value):
		id, _ := strconv.ParseInt(value, 10, 64)
		row = db.QueryRowContext(ctx,
			"SELECT "+objectColumns+" FROM objects WHERE legacy_id = ?", id)
	default:
		return nil, types.ErrInvalidID
	}

	obj, err := hydrateObject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("finding object %s: %w", value, err)
	}
	return obj, nil
}

// ResolveLegacyIDs maps legacy numeric IDs to object UUIDs in one query.
// IDs with no mapping are absent from the result.
func (b *Backend) ResolveLegacyIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	result := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx,
		"SELECT legacy_id, object_id FROM objects WHERE legacy_id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving legacy IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			legacyID int64
			objectID string
		)
		if err := rows.Scan(&legacyID, &objectID); err != nil {
			return nil, fmt.Errorf("scanning legacy ID row: %w", err)
		}
		result[legacyID] = objectID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy ID rows: %w", err)
	}
	return result, nil
}

// LookupName returns the display name of the object with the given UUID.
func (b *Backend) LookupName(ctx context.Context, id string) (string, error) {
	db, err := b.handle()
	if err != nil {
		return "", err
	}

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM objects WHERE object_id = ?", id,
	).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", types.ErrNotFound
		}
		return "", fmt.Errorf("looking up name for %s: %w", id, err)
	}
	return name, nil
}

// UpdateProperty sets a single data property on the object. The write is
// guarded by the version the caller observed when it read the object: a
// write landing in between bumps the stored version, the guarded UPDATE
// matches zero rows, and ErrConcurrencyConflict tells the caller to
// re-read and retry.
func (b *Backend) UpdateProperty(ctx context.Context, id string, property string, value any, expectedVersion int64) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	if id == "" || property == "" {
		return types.ErrInvalidID
	}

	var (
		dataStr string
		version int64
	)
	err = db.QueryRowContext(ctx,
		"SELECT data, object_version FROM objects WHERE object_id = ?", id,
	).Scan(&dataStr, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.ErrNotFound
		}
		return fmt.Errorf("reading object %s: %w", id, err)
	}
	if version != expectedVersion {
		return fmt.Errorf("updating object %s: %w", id, types.ErrConcurrencyConflict)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(dataStr), &data); err != nil {
		return fmt.Errorf("unmarshaling object data: %w", err)
	}
	data[property] = value

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling object data: %w", err)
	}

	res, err := db.ExecContext(ctx,
		`UPDATE objects SET data = ?, object_version = object_version + 1, updated_at = ?
			WHERE object_id = ? AND object_version = ?`,
		string(encoded), time.Now().UTC().Format(time.RFC3339), id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating object %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of object %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("updating object %s: %w", id, types.ErrConcurrencyConflict)
	}
	return nil
}

// Save creates or updates an object. When ObjectID is empty a new UUID v7
// is generated and timestamps initialized. Updates bump the object
// version. Returns the actual ID used.
func (b *Backend) Save(ctx context.Context, object *types.RegisterObject) (string, error) {
	db, err := b.handle()
	if err != nil {
		return "", err
	}
	if err := object.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	isCreate := object.ObjectID == ""
	if isCreate {
		object.ObjectID = generateUUID()
		object.ObjectVersion = 1
		object.CreatedAt = now
	}
	object.UpdatedAt = now
	if object.Name == "" {
		object.Name = deriveName(object.Data)
	}

	encoded, err := json.Marshal(object.Data)
	if err != nil {
		return "", fmt.Errorf("marshaling object data: %w", err)
	}
	var legacyID sql.NullInt64
	if object.LegacyID != 0 {
		legacyID = sql.NullInt64{Int64: object.LegacyID, Valid: true}
	}

	var exists bool
	if !isCreate {
		err = db.QueryRowContext(ctx,
			"SELECT 1 FROM objects WHERE object_id = ?", object.ObjectID,
		).Scan(&exists)
		if err != nil && err != sql.ErrNoRows {
			return "", fmt.Errorf("checking object existence: %w", err)
		}
	}

	if exists {
		_, err = db.ExecContext(ctx,
			`UPDATE objects SET register_id = ?, schema_id = ?, schema_version = ?,
				name = ?, data = ?, legacy_id = ?,
				object_version = object_version + 1, updated_at = ?
				WHERE object_id = ?`,
			object.RegisterID, object.SchemaID, object.SchemaVersion,
			object.Name, string(encoded), legacyID,
			now.Format(time.RFC3339), object.ObjectID,
		)
		if err == nil {
			err = db.QueryRowContext(ctx,
				"SELECT object_version FROM objects WHERE object_id = ?", object.ObjectID,
			).Scan(&object.ObjectVersion)
		}
	} else {
		if object.CreatedAt.IsZero() {
			object.CreatedAt = now
		}
		if object.ObjectVersion == 0 {
			object.ObjectVersion = 1
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO objects (object_id, register_id, schema_id, schema_version,
				name, data, legacy_id, object_version, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			object.ObjectID, object.RegisterID, object.SchemaID, object.SchemaVersion,
			object.Name, string(encoded), legacyID, object.ObjectVersion,
			object.CreatedAt.Format(time.RFC3339), now.Format(time.RFC3339),
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting object: %w", err)
	}
	return object.ObjectID, nil
}

// ListObjects returns every object in a register, optionally restricted
// to one schema. Ordered by creation time, then ID for determinism.
func (b *Backend) ListObjects(ctx context.Context, registerID, schemaID string) ([]*types.RegisterObject, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + objectColumns + " FROM objects WHERE register_id = ?"
	args := []any{registerID}
	if schemaID != "" {
		query += " AND schema_id = ?"
		args = append(args, schemaID)
	}
	query += " ORDER BY created_at, object_id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	var objects []*types.RegisterObject
	for rows.Next() {
		obj, err := hydrateObject(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating object row: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating object rows: %w", err)
	}
	return objects, nil
}

// deriveName picks a display label from common label-bearing properties.
func deriveName(data map[string]any) string {
	for _, key := range []string{"name", "title", "label"} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// isUUID reports whether value is a parseable canonical UUID.
func isUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// isNumeric reports whether value is a positive decimal integer.
func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
