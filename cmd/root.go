// Package cmd provides the command-line interface for bindcfg with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. BINDCFG_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (BINDCFG_SERVER_PORT, etc.)
//	4. Configuration files (.bindcfg.yml) - lowest priority
//
// Environment Variables:
//
//	BINDCFG_CONFIG_FILE: Path to custom configuration file
//	BINDCFG_SERVER_PORT: Override server port
//	BINDCFG_SERVER_HOST: Override server host
//	BINDCFG_STORAGE_DIR: Override configs directory
//	And more following the BINDCFG_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bindcfg",
	Short: "A reactive configuration store with live field synchronization",
	Long: `bindcfg keeps any number of bound fields synchronized with a
key-value configuration store, persisted as JSON profiles.

Key Features:
  • Publish/subscribe change propagation with echo suppression
  • Typed values that survive the JSON round-trip exactly
  • HTTP + WebSocket sync server for remote fields
  • Automatic reload when profile files change on disk

Quick Start:
  bindcfg init                    Write a default .bindcfg.yml
  bindcfg serve                   Start the sync server
  bindcfg set username alice      Set a value in the default profile
  bindcfg get username            Read a value back
  bindcfg list                    List all entries of a profile`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bindcfg.yml, can also use BINDCFG_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("dir", "", "configs directory (default \"configs\")")
	rootCmd.PersistentFlags().String("profile", "", "profile id (default \"default\")")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("storage.dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("storage.profile", rootCmd.PersistentFlags().Lookup("profile"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. BINDCFG_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .bindcfg.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BINDCFG_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bindcfg")
	}

	// Enable automatic environment variable binding with BINDCFG_ prefix
	// Examples: BINDCFG_SERVER_PORT, BINDCFG_STORAGE_DIR
	viper.SetEnvPrefix("BINDCFG")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// If the file doesn't exist or has errors, Viper uses defaults without
	// failing, so a missing config file never blocks the CLI.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
