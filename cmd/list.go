package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all entries of a profile",
	Long: `Load the configured profile and print every entry.

Examples:
  bindcfg list
  bindcfg list --format json
  bindcfg list --profile userdialog`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json)")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.broker.Close()

	if err := a.bridge.Load(cmd.Context(), a.cfg.Storage.Profile); err != nil {
		return err
	}

	entries := a.broker.Store().All()

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tKIND\tVALUE")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Key, entry.Value.Kind(), entry.Value.Text())
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q (expected table or json)", listFormat)
	}
}
