// Package integration provides end-to-end tests for the register store:
// the SQLite backend, the relation engine on top of it, and the CLI.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ConductionNL/openregister-sub015/internal/sqlite"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// newStore attaches a SQLite backend on a temporary directory and
// detaches it when the test finishes.
func newStore(t *testing.T) *sqlite.Backend {
	t.Helper()
	backend := sqlite.NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	require.NoError(t, backend.Attach(config))
	t.Cleanup(func() { backend.Detach() })
	return backend
}

// seedShelterSchemas saves a person schema and a pet schema whose owner
// property cascades and declares an inverse "pets" collection on the
// person. Returns (personSchemaID, petSchemaID).
func seedShelterSchemas(t *testing.T, store *sqlite.Backend) (string, string) {
	t.Helper()
	ctx := t.Context()

	personID, err := store.SaveSchema(ctx, &types.Schema{
		Title: "Person",
		Properties: map[string]*types.Property{
			"name": {Type: types.TypeString},
			"pets": {
				Type:  types.TypeArray,
				Items: &types.Property{Type: types.TypeString},
			},
		},
	})
	require.NoError(t, err)

	petID, err := store.SaveSchema(ctx, &types.Schema{
		Title: "Pet",
		Properties: map[string]*types.Property{
			"name": {Type: types.TypeString},
			"owner": {
				Type: types.TypeString,
				ObjectConfiguration: &types.ObjectConfiguration{
					Handling:   types.HandlingRelatedObject,
					Schema:     personID,
					InversedBy: "pets",
					Cascade:    true,
				},
			},
		},
	})
	require.NoError(t, err)

	return personID, petID
}
