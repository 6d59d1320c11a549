package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the register CLI version.
const Version = "0.1.0"

const modulePath = "github.com/ConductionNL/openregister-sub015"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the register version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "register v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
