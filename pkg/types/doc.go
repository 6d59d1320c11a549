// Package types defines the register, schema, and object entity types, the
// external collaborator interfaces (schema provider, storage mapper, object
// creator, validator), batch configuration, and the standard error values
// for the register store.
package types
