package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// schemaDocument is the JSON shape accepted by "schema import": either a
// single document or an array of them.
type schemaDocument struct {
	ID          string                     `json:"id,omitempty"`
	Title       string                     `json:"title"`
	Description string                     `json:"description,omitempty"`
	Properties  map[string]*types.Property `json:"properties"`
	Required    []string                   `json:"required,omitempty"`
	AllOf       []string                   `json:"allOf,omitempty"`
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage schemas",
	}
	cmd.AddCommand(newSchemaImportCmd())
	cmd.AddCommand(newSchemaGetCmd())
	return cmd
}

func newSchemaImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import one or more schema definitions from a JSON file",
		Long: "Read a JSON schema document (or array of documents) from a file\n" +
			"or stdin and save each one. Re-importing an existing schema ID\n" +
			"bumps its version.",
		Args: cobra.MaximumNArgs(1),
		RunE: runSchemaImport,
	}
}

func runSchemaImport(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	in, err := openInput(path)
	if err != nil {
		return exitError(exitUserError, err.Error())
	}
	defer in.Close()

	docs, err := decodeSchemaDocuments(in)
	if err != nil {
		return exitError(exitUserError, fmt.Sprintf("parse schemas: %s", err))
	}
	if len(docs) == 0 {
		return exitError(exitUserError, "no schemas in input")
	}

	store, err := openStore()
	if err != nil {
		return exitError(exitSysError, err.Error())
	}
	defer store.Detach()

	ctx := cmd.Context()
	var ids []string
	for _, doc := range docs {
		schema := &types.Schema{
			SchemaID:    doc.ID,
			Title:       doc.Title,
			Description: doc.Description,
			Properties:  doc.Properties,
			Required:    doc.Required,
			AllOf:       doc.AllOf,
		}
		if schema.Properties == nil {
			schema.Properties = make(map[string]*types.Property)
		}
		id, err := store.SaveSchema(ctx, schema)
		if err != nil {
			return exitError(exitUserError, fmt.Sprintf("save schema %q: %s", doc.Title, err))
		}
		ids = append(ids, id)
	}

	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]any{"imported": ids})
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

// decodeSchemaDocuments parses one document or an array of documents.
func decodeSchemaDocuments(r io.Reader) ([]schemaDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var docs []schemaDocument
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var doc schemaDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return []schemaDocument{doc}, nil
}

func newSchemaGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <schema-id>",
		Short: "Print a schema definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer store.Detach()

			schema, err := store.GetSchema(cmd.Context(), args[0])
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("get schema: %s", err))
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), schemaDocument{
					ID:          schema.SchemaID,
					Title:       schema.Title,
					Description: schema.Description,
					Properties:  schema.Properties,
					Required:    schema.Required,
					AllOf:       schema.AllOf,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\t%d properties\n",
				schema.SchemaID, schema.Title, schema.Version, len(schema.Properties))
			return nil
		},
	}
}
