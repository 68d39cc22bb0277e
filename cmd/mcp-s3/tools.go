package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ilkoid/mcp-s3/pkg/tools"
	"github.com/ilkoid/mcp-s3/pkg/tools/std"
)

func init() {
	rootCmd.AddCommand(toolsCmd)
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print tool definitions as JSON",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

// Описания не зависят от хранилища, поэтому конфиг не нужен.
func runTools(cmd *cobra.Command, args []string) error {
	registry := tools.NewRegistry()
	if err := registry.Register(std.NewSimilarFilesTool(nil)); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(registry.GetDefinitions())
}
