package runner

import (
	"bytes"
	"context"
	"os"
	"regexp"
)

var aliasPattern = regexp.MustCompile(`portraitItems_[A-Za-z0-9]+`)

// Drift is a generated file that does not match what generate would write
type Drift struct {
	Path string
	// Reason is "missing", "stale" or "outdated"
	Reason string
}

// Check regenerates dirs in memory and compares the result with the disk.
// Template aliases are random, so they are ignored in the comparison.
func (r *Runner) Check(ctx context.Context, dirs []string) ([]Drift, *Result, error) {
	dry := *r
	dry.opts.DryRun = true

	res, err := dry.Generate(ctx, dirs)
	if err != nil {
		return nil, nil, err
	}

	var drift []Drift
	for _, o := range res.Outputs {
		old, err := os.ReadFile(o.Path)
		switch {
		case o.Delete:
			if err == nil {
				drift = append(drift, Drift{Path: o.Path, Reason: "stale"})
			}
		case err != nil:
			drift = append(drift, Drift{Path: o.Path, Reason: "missing"})
		case !sameOutput(old, o.Src):
			drift = append(drift, Drift{Path: o.Path, Reason: "outdated"})
		}
	}
	return drift, res, nil
}

func sameOutput(a, b []byte) bool {
	norm := []byte("portraitItems_")
	return bytes.Equal(aliasPattern.ReplaceAll(a, norm), aliasPattern.ReplaceAll(b, norm))
}
