// This file implements register persistence for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// GetRegister returns the register with the given ID.
func (b *Backend) GetRegister(ctx context.Context, id string) (*types.Register, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var (
		register     types.Register
		schemaIDsStr string
		createdAtStr string
		updatedAtStr string
	)
	err = db.QueryRowContext(ctx,
		`SELECT register_id, title, description, schema_ids, created_at, updated_at
			FROM registers WHERE register_id = ?`, id,
	).Scan(&register.RegisterID, &register.Title, &register.Description,
		&schemaIDsStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting register %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(schemaIDsStr), &register.SchemaIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling register schema IDs: %w", err)
	}
	if register.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if register.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &register, nil
}

// SaveRegister creates or updates a register. New registers get a UUID v7
// when no ID is set. Returns the actual register ID used.
func (b *Backend) SaveRegister(ctx context.Context, register *types.Register) (string, error) {
	db, err := b.handle()
	if err != nil {
		return "", err
	}
	if err := register.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if register.RegisterID == "" {
		register.RegisterID = generateUUID()
	}
	if register.SchemaIDs == nil {
		register.SchemaIDs = []string{}
	}
	encoded, err := json.Marshal(register.SchemaIDs)
	if err != nil {
		return "", fmt.Errorf("marshaling register schema IDs: %w", err)
	}

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT 1 FROM registers WHERE register_id = ?", register.RegisterID,
	).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("checking register existence: %w", err)
	}

	register.UpdatedAt = now
	if exists {
		_, err = db.ExecContext(ctx,
			`UPDATE registers SET title = ?, description = ?, schema_ids = ?, updated_at = ?
				WHERE register_id = ?`,
			register.Title, register.Description, string(encoded),
			now.Format(time.RFC3339), register.RegisterID,
		)
	} else {
		register.CreatedAt = now
		_, err = db.ExecContext(ctx,
			`INSERT INTO registers (register_id, title, description, schema_ids, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
			register.RegisterID, register.Title, register.Description, string(encoded),
			now.Format(time.RFC3339), now.Format(time.RFC3339),
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting register: %w", err)
	}
	return register.RegisterID, nil
}
