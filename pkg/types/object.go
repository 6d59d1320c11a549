package types

import "time"

// RegisterObject is one schema-described domain object. Data holds the
// property values; relation properties hold references to other objects in
// any textual form (UUID, URL, legacy numeric ID).
type RegisterObject struct {
	ObjectID      string         // UUID v7, generated on creation.
	RegisterID    string         // Owning register (tenant grouping).
	SchemaID      string         // Schema describing Data.
	SchemaVersion int            // Schema version the object was saved under.
	Name          string         // Denormalized display label; may be empty.
	Data          map[string]any // Property values keyed by property name.
	LegacyID      int64          // Pre-migration numeric ID; 0 when none.
	ObjectVersion int64          // Optimistic concurrency counter, bumped on every write.
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks that the object is well-formed enough to save.
func (o *RegisterObject) Validate() error {
	if o.SchemaID == "" {
		return ErrInvalidData
	}
	if o.Data == nil {
		return ErrInvalidData
	}
	return nil
}

// Register groups schemas into one tenant-level store.
type Register struct {
	RegisterID  string   // UUID v7, generated on creation.
	Title       string   // Human-readable name (required, non-empty).
	Description string   // Optional explanation.
	SchemaIDs   []string // Schemas available in this register.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that the register is well-formed enough to store.
func (r *Register) Validate() error {
	if r.Title == "" {
		return ErrInvalidData
	}
	return nil
}
