package sqlite

// schemaDDL holds the table and index definitions applied on Attach.
// Statements are idempotent so an existing database attaches cleanly.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS registers (
		register_id TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		schema_ids  TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schemas (
		schema_id   TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		version     INTEGER NOT NULL DEFAULT 1,
		definition  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS objects (
		object_id      TEXT PRIMARY KEY,
		register_id    TEXT NOT NULL DEFAULT '',
		schema_id      TEXT NOT NULL,
		schema_version INTEGER NOT NULL DEFAULT 1,
		name           TEXT NOT NULL DEFAULT '',
		data           TEXT NOT NULL,
		legacy_id      INTEGER,
		object_version INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_schema_id ON objects (schema_id)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_register_id ON objects (register_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_objects_legacy_id
		ON objects (legacy_id) WHERE legacy_id IS NOT NULL`,
}
