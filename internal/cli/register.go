package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registers",
		Short: "Manage registers",
	}
	cmd.AddCommand(newRegisterCreateCmd())
	cmd.AddCommand(newRegisterGetCmd())
	return cmd
}

func newRegisterCreateCmd() *cobra.Command {
	var (
		title       string
		description string
		schemaIDs   []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a register",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return exitError(exitUserError, "a register requires --title")
			}

			store, err := openStore()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer store.Detach()

			register := &types.Register{
				Title:       title,
				Description: description,
				SchemaIDs:   schemaIDs,
			}
			id, err := store.SaveRegister(cmd.Context(), register)
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("save register: %s", err))
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"register_id": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "register title (required)")
	cmd.Flags().StringVar(&description, "description", "", "register description")
	cmd.Flags().StringSliceVar(&schemaIDs, "schema", nil, "schema ID available in this register (repeatable)")
	return cmd
}

func newRegisterGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <register-id>",
		Short: "Print a register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer store.Detach()

			register, err := store.GetRegister(cmd.Context(), args[0])
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("get register: %s", err))
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"register_id": register.RegisterID,
					"title":       register.Title,
					"description": register.Description,
					"schemas":     register.SchemaIDs,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d schemas\n",
				register.RegisterID, register.Title, len(register.SchemaIDs))
			return nil
		},
	}
}
