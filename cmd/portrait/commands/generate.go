package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/portrait/logger"
	"github.com/teranos/portrait/watch"
)

// MakeCmd captures //portrait:make interfaces
var MakeCmd = &cobra.Command{
	Use:   "make [dirs... | ./...]",
	Short: "Capture interfaces into companion files",
	Long: `Capture every interface marked //portrait:make into a companion file
(<file>_portrait.go) next to its source. Companions of files that no
longer hold a make directive are removed.`,
	RunE: execute(runMake),
}

// FillCmd completes //portrait:fill assertions
var FillCmd = &cobra.Command{
	Use:   "fill [dirs... | ./...]",
	Short: "Complete //portrait:fill assertions",
	Long: `Regenerate the output of every source file holding a //portrait:fill
directive. Interfaces are read from companion files, so run make (or
generate) after changing an interface.`,
	RunE: execute(runFill),
}

// DeriveCmd completes //portrait:derive types
var DeriveCmd = &cobra.Command{
	Use:   "derive [dirs... | ./...]",
	Short: "Complete //portrait:derive types",
	Long:  `Regenerate the output of every source file holding a //portrait:derive directive.`,
	RunE:  execute(runDerive),
}

// GenerateCmd runs make, then fill and derive
var GenerateCmd = &cobra.Command{
	Use:   "generate [dirs... | ./...]",
	Short: "Run make, fill and derive",
	Long: `Capture interfaces, then complete every fill and derive directive.

With --watch, generate keeps running and regenerates whenever a Go source
in one of the directories changes. Generated files are ignored.

Examples:
  portrait generate ./...
  portrait generate --watch ./internal/...`,
	RunE: runGenerateCmd,
}

var generateWatch bool

func init() {
	GenerateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate on change until interrupted")
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	if !generateWatch {
		return execute(runGenerate)(cmd, args)
	}

	cfg, dirs, err := setup(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	w, err := watch.New(dirs, cfg, func(ctx context.Context, dirs []string) error {
		res, err := newRunner(cmd, cfg).Generate(ctx, dirs)
		if err != nil {
			return err
		}
		// diagnostics are printed; watching goes on
		_ = report(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, dryRun)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Infow("Watching for changes", logger.FieldCount, len(dirs))
	return w.Run(ctx)
}
