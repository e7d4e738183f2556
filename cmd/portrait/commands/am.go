package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/portrait/am"
	"github.com/teranos/portrait/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage portrait configuration",
	Long: `am - Manage portrait configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (PORTRAIT_* prefix, e.g. PORTRAIT_FILL_FILE_SUFFIX)
2. Project config (portrait.toml, searched up from the working directory)
3. User config (~/.portrait/portrait.toml)
4. System config (/etc/portrait/portrait.toml)
5. Default values

Examples:
  portrait am show                    # Show current configuration
  portrait am show --format json      # Show configuration in JSON format
  portrait am get fill.file_suffix    # Get specific config value
  portrait am init                    # Write ./portrait.toml with defaults
  portrait am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current portrait configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., fill.file_suffix, watch.debounce_ms)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with defaults",
	Long: `Write portrait.toml with the default settings to the working directory,
or to the user config with --user. An existing file is only replaced with
--force; the previous content is kept in rotating .back1-3 files.`,
	Args: cobra.NoArgs,
	RunE: runAmInit,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate the merged configuration and report unknown keys in every config file",
	RunE:  runAmValidate,
}

var (
	configFormat string
	initForce    bool
	initUser     bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", am.FormatTOML, "Output format: toml, json, yaml")
	amInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	amInitCmd.Flags().BoolVar(&initUser, "user", false, "Write the user config instead of ./portrait.toml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data, err := am.Marshal(cfg, configFormat)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if configFormat != am.FormatJSON {
		fmt.Fprintln(out, "# portrait configuration")
	}
	fmt.Fprint(out, string(data))
	if configFormat == am.FormatJSON {
		fmt.Fprintln(out)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if initUser {
		path = am.UserConfigPath()
		if path == "" {
			return errors.New("no home directory for the user config")
		}
	}
	if err := am.WriteDefault(path, initForce); err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", abs)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, path := range am.ConfigPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		keys, err := am.UnknownKeys(path)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(out, "⚠ %s: unknown key %s\n", path, k)
		}
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(out, "✓ Configuration is valid")
	return nil
}
