package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ilkoid/mcp-s3/pkg/lookup"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

var queryJSON bool

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the raw JSON array the tool would return")
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a single lookup and print the matches",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

// --- Стили ---
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	rankStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, shutdown := utils.SetupGracefulShutdown(cmd.Context())
	defer shutdown()

	comps, err := setup(ctx, true)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	names, err := comps.Service.FindSimilar(ctx, query)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(lookup.Kind(err)+": ")+err.Error())
		return err
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		data, err := json.Marshal(names)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	cfg := comps.Service.Config()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("s3://%s/%s  %q", cfg.Bucket, cfg.Prefix, query)))
	fmt.Fprint(out, formatMatches(names))
	return nil
}

// formatMatches печатает ключи с порядковым номером.
func formatMatches(names []string) string {
	if len(names) == 0 {
		return "No objects under prefix.\n"
	}

	var b strings.Builder
	for i, name := range names {
		fmt.Fprintf(&b, "%s %s\n", rankStyle.Render(fmt.Sprintf("%d.", i+1)), name)
	}
	return b.String()
}
