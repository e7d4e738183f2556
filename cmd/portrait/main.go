package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/portrait/am"
	"github.com/teranos/portrait/cmd/portrait/commands"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/logger"
)

var rootCmd = &cobra.Command{
	Use:   "portrait",
	Short: "portrait - interface implementations from directives",
	Long: `portrait - fills in Go interface implementations from directives.

An interface marked //portrait:make is captured into a companion file next
to its source. A //portrait:fill directive on an assertion, or a
//portrait:derive directive on a type, completes the implementation with a
generator and writes it to a _portrait_gen.go file.

Available commands:
  make     - Capture interfaces into companion files
  fill     - Complete //portrait:fill assertions
  derive   - Complete //portrait:derive types
  generate - make, then fill and derive
  check    - Report generated files that are out of date
  am       - Manage portrait configuration ("I am")
  version  - Show version information

Examples:
  portrait generate ./...          # Regenerate the whole module
  portrait generate --watch ./...  # Regenerate on every change
  portrait check ./...             # Fail if generated files drift
  portrait fill --dry-run ./shapes # Show what fill would write`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if !jsonLog {
			// a broken config is reported by the command itself
			if cfg, err := am.Load(); err == nil {
				jsonLog = cfg.Log.JSON
			}
		}
		if err := logger.Initialize(jsonLog, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbosity), "json", jsonLog)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Log as JSON")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Compute outputs without writing files")

	rootCmd.AddCommand(commands.MakeCmd)
	rootCmd.AddCommand(commands.FillCmd)
	rootCmd.AddCommand(commands.DeriveCmd)
	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
