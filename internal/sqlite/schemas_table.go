// This file implements schema persistence for the SQLite backend. The
// property descriptors, required list, and allOf composition are stored
// together as one JSON definition column.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// schemaDefinition is the JSON shape of the schemas.definition column.
type schemaDefinition struct {
	Properties map[string]*types.Property `json:"properties,omitempty"`
	Required   []string                   `json:"required,omitempty"`
	AllOf      []string                   `json:"allOf,omitempty"`
}

// GetSchema returns the schema with the given ID.
func (b *Backend) GetSchema(ctx context.Context, id string) (*types.Schema, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var (
		schema        types.Schema
		definitionStr string
		createdAtStr  string
		updatedAtStr  string
	)
	err = db.QueryRowContext(ctx,
		`SELECT schema_id, title, description, version, definition, created_at, updated_at
			FROM schemas WHERE schema_id = ?`, id,
	).Scan(&schema.SchemaID, &schema.Title, &schema.Description, &schema.Version,
		&definitionStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("schema %s: %w", id, types.ErrSchemaNotFound)
		}
		return nil, fmt.Errorf("getting schema %s: %w", id, err)
	}

	var def schemaDefinition
	if err := json.Unmarshal([]byte(definitionStr), &def); err != nil {
		return nil, fmt.Errorf("unmarshaling schema definition: %w", err)
	}
	schema.Properties = def.Properties
	schema.Required = def.Required
	schema.AllOf = def.AllOf
	if schema.Properties == nil {
		schema.Properties = make(map[string]*types.Property)
	}

	if schema.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if schema.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &schema, nil
}

// SaveSchema creates or updates a schema. New schemas get a UUID v7 when
// no ID is set and start at version 1; updates bump the version so cached
// analyses keyed by (ID, version) are never reused stale. Returns the
// actual schema ID used.
func (b *Backend) SaveSchema(ctx context.Context, schema *types.Schema) (string, error) {
	db, err := b.handle()
	if err != nil {
		return "", err
	}
	if err := schema.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if schema.SchemaID == "" {
		schema.SchemaID = generateUUID()
	}

	def := schemaDefinition{
		Properties: schema.Properties,
		Required:   schema.Required,
		AllOf:      schema.AllOf,
	}
	encoded, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("marshaling schema definition: %w", err)
	}

	var currentVersion int
	err = db.QueryRowContext(ctx,
		"SELECT version FROM schemas WHERE schema_id = ?", schema.SchemaID,
	).Scan(&currentVersion)
	switch {
	case err == sql.ErrNoRows:
		schema.Version = 1
		schema.CreatedAt = now
		schema.UpdatedAt = now
		_, err = db.ExecContext(ctx,
			`INSERT INTO schemas (schema_id, title, description, version, definition, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			schema.SchemaID, schema.Title, schema.Description, schema.Version,
			string(encoded), now.Format(time.RFC3339), now.Format(time.RFC3339),
		)
	case err != nil:
		return "", fmt.Errorf("checking schema existence: %w", err)
	default:
		schema.Version = currentVersion + 1
		schema.UpdatedAt = now
		_, err = db.ExecContext(ctx,
			`UPDATE schemas SET title = ?, description = ?, version = ?, definition = ?, updated_at = ?
				WHERE schema_id = ?`,
			schema.Title, schema.Description, schema.Version, string(encoded),
			now.Format(time.RFC3339), schema.SchemaID,
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting schema: %w", err)
	}
	return schema.SchemaID, nil
}
