package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bindcfg/internal/store"
)

var setKind string

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in a profile",
	Long: `Load the configured profile, publish a new value for a key, and save
the profile back. The value is stored as a string unless --kind says
otherwise.

Examples:
  bindcfg set username alice
  bindcfg set port 8080 --kind int
  bindcfg set debug true --kind bool --profile userdialog`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().StringVarP(&setKind, "kind", "k", "string", "Value kind (string, int, bool, float)")
}

func runSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.broker.Close()

	if err := a.bridge.Load(cmd.Context(), a.cfg.Storage.Profile); err != nil {
		return err
	}

	key, text := args[0], args[1]
	value, err := store.ParseValue(store.Kind(setKind), text)
	if err != nil {
		return err
	}

	if err := a.broker.Publish(cmd.Context(), store.NewEntry(key, value)); err != nil {
		return err
	}

	if err := a.bridge.Save(cmd.Context(), a.cfg.Storage.Profile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value.Text())
	return nil
}
