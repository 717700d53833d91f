package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage mymovies configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (MYMOVIES_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the defaults",
	Long: `Create a configuration file holding every option at its default value.

The file will be created in the current directory as '.mymovies.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

The password is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration from every source and check it.

This command checks:
  - YAML syntax
  - Required fields and URLs
  - CSS selector syntax
  - Value ranges`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".mymovies.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return errors.New(errors.ErrorTypeConfig, "config init", fmt.Sprintf("%s already exists, remove it first to start over", configPath))
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "config init", err, "")
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.PrintInfo("Next", "review the site section and run 'mymovies config validate'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "config show", err, "")
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "config show", err, "failed to format configuration")
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "config validate", err, "")
	}

	if cfg.Site.LoginURL != "" && (cfg.Credentials.Username == "" || cfg.Credentials.Password == "") {
		ui.PrintWarning("No login in the configuration", "a stored login or a prompt will be used")
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Mode", cfg.Scrape.Mode)
	ui.PrintInfo("Library", cfg.Site.LibraryURL)
	ui.PrintInfo("Output", cfg.Output.Path)
	ui.PrintInfo("Passes", fmt.Sprintf("%d", cfg.Scrape.MaxPasses))
	return nil
}
