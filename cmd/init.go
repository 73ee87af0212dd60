package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".bindcfg.yml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a commented default .bindcfg.yml into the current directory.

Examples:
  bindcfg init
  bindcfg init --force   # Overwrite an existing file`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

// defaultConfig mirrors the defaults applied by config.Load.
type defaultConfig struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Storage struct {
		Dir     string `yaml:"dir"`
		Profile string `yaml:"profile"`
	} `yaml:"storage"`
	Sync struct {
		AutoReload bool `yaml:"auto_reload"`
		DebounceMS int  `yaml:"debounce_ms"`
	} `yaml:"sync"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(defaultConfigFile); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigFile)
	}

	var cfg defaultConfig
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 7710
	cfg.Server.AllowedOrigins = []string{}
	cfg.Storage.Dir = "configs"
	cfg.Storage.Profile = "default"
	cfg.Sync.AutoReload = true
	cfg.Sync.DebounceMS = 300
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(defaultConfigFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", defaultConfigFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", defaultConfigFile)
	return nil
}
