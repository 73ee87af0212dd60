package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a value from a profile",
	Long: `Load the configured profile and print the value stored under a key.

Examples:
  bindcfg get username
  bindcfg get username --profile userdialog`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().Bool("show-kind", false, "Also print the value kind")
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.broker.Close()

	if err := a.bridge.Load(cmd.Context(), a.cfg.Storage.Profile); err != nil {
		return err
	}

	key := args[0]
	entry, exists := a.broker.Store().Get(key)
	if !exists {
		return fmt.Errorf("key %q not found in profile %q", key, a.cfg.Storage.Profile)
	}

	showKind, _ := cmd.Flags().GetBool("show-kind")
	if showKind {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", entry.Value.Text(), entry.Value.Kind())
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), entry.Value.Text())
	return nil
}
