package cmd

import (
	"strings"

	"github.com/spf13/pflag"
)

// wordSepNormalizeFunc lets users write --log_level as well as
// --log-level.
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	rootCmd.PersistentFlags().SetNormalizeFunc(wordSepNormalizeFunc)
}
