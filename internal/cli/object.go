package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ConductionNL/openregister-sub015/internal/relations"
	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Manage register objects",
	}
	cmd.AddCommand(newObjectSaveCmd())
	cmd.AddCommand(newObjectGetCmd())
	cmd.AddCommand(newObjectListCmd())
	return cmd
}

func newObjectSaveCmd() *cobra.Command {
	var (
		registerID string
		schemaID   string
		noCascade  bool
		scanDepth  int
		retries    int
	)
	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Bulk-save objects from a JSONL file",
		Long: "Read one JSON object payload per line from a file or stdin and\n" +
			"save the batch: relation references are scanned and resolved,\n" +
			"inline children on cascading relations are pre-created, and\n" +
			"inverse references are written back to related objects.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaID == "" {
				return exitError(exitUserError, "bulk save requires --schema")
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			in, err := openInput(path)
			if err != nil {
				return exitError(exitUserError, err.Error())
			}
			defer in.Close()

			var objects []*types.RegisterObject
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			line := 0
			for scanner.Scan() {
				line++
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				var data map[string]any
				if err := json.Unmarshal([]byte(text), &data); err != nil {
					return exitError(exitUserError, fmt.Sprintf("line %d: %s", line, err))
				}
				objects = append(objects, &types.RegisterObject{
					RegisterID: registerID,
					SchemaID:   schemaID,
					Data:       data,
				})
			}
			if err := scanner.Err(); err != nil {
				return exitError(exitUserError, fmt.Sprintf("read input: %s", err))
			}

			store, err := openStore()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer store.Detach()

			cfg := types.DefaultBatchConfig()
			cfg.Cascade = !noCascade
			if scanDepth > 0 {
				cfg.MaxScanDepth = scanDepth
			}
			if retries > 0 {
				cfg.MaxWriteBackRetries = retries
			}

			processor, err := relations.NewProcessor(store, store, nil, nil, cfg)
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("configure batch: %s", err))
			}

			result, err := processor.SaveObjects(cmd.Context(), objects)
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("save objects: %s", err))
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "saved %d object(s), %d failed, %d write-back update(s)\n",
				len(result.Succeeded), len(result.Failed), result.WriteBack.Updated)
			for _, f := range result.Failed {
				fmt.Fprintf(out, "failed: %s: %s\n", f.ObjectID, f.Reason)
			}
			for _, f := range result.WriteBack.Failed {
				fmt.Fprintf(out, "write-back failed: %s: %s\n", f.TargetUUID, f.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&registerID, "register", "", "register ID the objects belong to")
	cmd.Flags().StringVar(&schemaID, "schema", "", "schema ID describing the objects (required)")
	cmd.Flags().BoolVar(&noCascade, "no-cascade", false, "disable pre-creation of inline child objects")
	cmd.Flags().IntVar(&scanDepth, "scan-depth", 0, "maximum nesting depth for the relation scan")
	cmd.Flags().IntVar(&retries, "retries", 0, "write-back retry bound on concurrency conflicts")
	return cmd
}

func newObjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <uuid-or-legacy-id>",
		Short: "Print one object by UUID or legacy numeric ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer store.Detach()

			obj, err := store.FindByUUIDOrLegacyID(cmd.Context(), args[0])
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("get object: %s", err))
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), objectView(obj))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tv%d\n",
				obj.ObjectID, obj.SchemaID, obj.Name, obj.ObjectVersion)
			return nil
		},
	}
}

func newObjectListCmd() *cobra.Command {
	var (
		registerID string
		schemaID   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List objects in a register",
		RunE: func(cmd *cobra.Command, args []string) error {
			if registerID == "" {
				return exitError(exitUserError, "listing requires --register")
			}

			store, err := openStore()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer store.Detach()

			objects, err := store.ListObjects(cmd.Context(), registerID, schemaID)
			if err != nil {
				return exitError(exitUserError, fmt.Sprintf("list objects: %s", err))
			}

			if flags.jsonMode {
				views := make([]map[string]any, 0, len(objects))
				for _, obj := range objects {
					views = append(views, objectView(obj))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			out := cmd.OutOrStdout()
			for _, obj := range objects {
				fmt.Fprintf(out, "%s\t%s\t%s\n", obj.ObjectID, obj.SchemaID, obj.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&registerID, "register", "", "register ID to list (required)")
	cmd.Flags().StringVar(&schemaID, "schema", "", "restrict to one schema ID")
	return cmd
}

// objectView is the JSON output shape for a single object.
func objectView(obj *types.RegisterObject) map[string]any {
	view := map[string]any{
		"object_id":      obj.ObjectID,
		"register_id":    obj.RegisterID,
		"schema_id":      obj.SchemaID,
		"schema_version": obj.SchemaVersion,
		"name":           obj.Name,
		"data":           obj.Data,
		"object_version": obj.ObjectVersion,
	}
	if obj.LegacyID != 0 {
		view["legacy_id"] = obj.LegacyID
	}
	return view
}
