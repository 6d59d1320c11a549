// Package cli implements the register command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ConductionNL/openregister-sub015/internal/log"
	"github.com/ConductionNL/openregister-sub015/internal/paths"
)

// Exit codes: 0 success, 1 user error, 2 system error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

// NewRootCmd creates the top-level "register" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "register",
		Short: "A schema-driven object store with relation resolution",
		Long: "Register stores schema-described objects grouped into registers.\n" +
			"Bulk saves resolve relation references, cascade inline children,\n" +
			"and write inverse references back to related objects.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.verbose {
				log.InitWriter(os.Stderr)
				log.SetEnabled(true)
			}
			configDir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			configDataDir = cfg.GetString(cfgKeyDataDir)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.register-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "log engine activity to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newObjectCmd())
	root.AddCommand(newRegisterCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// exitError prints the error to stderr and exits with the given code.
func exitError(code int, msg string) error {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
	return nil // unreachable
}
