package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ConductionNL/openregister-sub015/internal/paths"
	"github.com/ConductionNL/openregister-sub015/internal/sqlite"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// openStore attaches the SQLite backend on the resolved data directory.
// The caller must Detach when done.
func openStore() (*sqlite.Backend, error) {
	dataDir, err := paths.ResolveDataDir(flags.dataDir, configDataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}

	backend := sqlite.NewBackend()
	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach storage: %w", err)
	}
	return backend, nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openInput returns the file to read, or stdin when path is "-" or empty.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
