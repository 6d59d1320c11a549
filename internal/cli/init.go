package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ConductionNL/openregister-sub015/internal/paths"
	"github.com/ConductionNL/openregister-sub015/internal/sqlite"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize register storage",
		Long:  "Create configuration and data directories, then initialize the storage backend.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(exitSysError, fmt.Sprintf("resolve config directory: %s", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return exitError(exitSysError, fmt.Sprintf("create config directory: %s", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return exitError(exitSysError, fmt.Sprintf("write config: %s", err))
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, configDataDir)
	if err != nil {
		return exitError(exitSysError, fmt.Sprintf("resolve data directory: %s", err))
	}

	// Initialize the data directory via Attach then Detach.
	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return exitError(exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	if err := backend.Detach(); err != nil {
		return exitError(exitSysError, fmt.Sprintf("finalize storage: %s", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Register storage initialized in %s\n", dataDir)
	return nil
}
