package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/portrait/am"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/internal/discover"
	"github.com/teranos/portrait/runner"
)

// runFunc is one of the runner commands
type runFunc func(r *runner.Runner, ctx context.Context, dirs []string) (*runner.Result, error)

var (
	runMake     runFunc = (*runner.Runner).Make
	runFill     runFunc = (*runner.Runner).Fill
	runDerive   runFunc = (*runner.Runner).Derive
	runGenerate runFunc = (*runner.Runner).Generate
)

// setup loads the configuration and expands args into package directories
func setup(args []string) (*am.Config, []string, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load config")
	}
	dirs, err := discover.Expand(args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, dirs, nil
}

func newRunner(cmd *cobra.Command, cfg *am.Config) *runner.Runner {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return runner.New(runner.Options{
		Config: cfg,
		DryRun: dryRun,
		Debug:  cmd.OutOrStdout(),
	})
}

// execute runs fn over the directories named by args and reports the result
func execute(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, dirs, err := setup(args)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		res, err := fn(newRunner(cmd, cfg), cmd.Context(), dirs)
		if err != nil {
			return err
		}
		return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, dryRun)
	}
}

// report prints outputs and diagnostics. It returns an error when any
// diagnostic is an error so the process exits non-zero.
func report(out, errOut io.Writer, res *runner.Result, dryRun bool) error {
	wd, _ := os.Getwd()
	for _, o := range res.Outputs {
		path := relPath(wd, o.Path)
		switch {
		case dryRun && o.Delete:
			fmt.Fprintf(out, "  would remove %s\n", path)
		case dryRun:
			fmt.Fprintf(out, "  would write %s\n", path)
		case o.Delete:
			fmt.Fprintf(out, "✓ Removed %s\n", path)
		default:
			fmt.Fprintf(out, "✓ Generated %s\n", path)
		}
	}

	errs := 0
	for _, d := range res.Diagnostics {
		fmt.Fprintln(errOut, d.Format(diag.FormatTerminal))
		if d.IsError() {
			errs++
		}
	}
	if errs > 0 {
		return errors.Newf("%d error(s)", errs)
	}
	return nil
}

func relPath(wd, path string) string {
	if wd == "" {
		return path
	}
	if r, err := filepath.Rel(wd, path); err == nil {
		return r
	}
	return path
}
