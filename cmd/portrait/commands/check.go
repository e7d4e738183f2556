package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/errors"
)

// CheckCmd reports generated files that generate would change
var CheckCmd = &cobra.Command{
	Use:   "check [dirs... | ./...]",
	Short: "Report generated files that are out of date",
	Long: `Run generate in memory and compare the result with the files on disk.
Exits non-zero when a generated file is missing, outdated or stale.
Template aliases in companion files are random and not compared.

Examples:
  portrait check ./...   # in CI, after go generate`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, dirs, err := setup(args)
	if err != nil {
		return err
	}
	drift, res, err := newRunner(cmd, cfg).Check(cmd.Context(), dirs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range res.Diagnostics {
		fmt.Fprintln(cmd.ErrOrStderr(), d.Format(diag.FormatTerminal))
	}
	if res.Diagnostics.HasErrors() {
		return errors.New("generation failed, cannot check")
	}

	wd, _ := os.Getwd()
	for _, d := range drift {
		fmt.Fprintf(out, "✗ %s (%s)\n", relPath(wd, d.Path), d.Reason)
	}
	if len(drift) > 0 {
		return errors.WithHint(errors.Newf("%d generated file(s) out of date", len(drift)), "run portrait generate")
	}
	fmt.Fprintln(out, "✓ Generated files are up to date")
	return nil
}
