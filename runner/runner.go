// Package runner drives make, fill, derive and check over directories.
//
// Every directory is one package and is processed independently; a failing
// directive aborts only the file that holds it and is reported as a
// diagnostic. Outputs are collected per run and written at the end unless
// the run is a dry run.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/portrait/am"
	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/fillers"
	"github.com/teranos/portrait/logger"
)

// Options configures a Runner
type Options struct {
	Config *am.Config
	// DryRun collects outputs without touching the file system
	DryRun   bool
	Registry *fillers.Registry
	// Resolver maps import paths to directories; nil uses go/packages
	Resolver capture.Resolver
	// Debug receives __debug_print and @DEBUG_PRINT_FILLER_OUTPUT dumps
	Debug io.Writer
	// Jobs bounds concurrent packages; <= 0 uses GOMAXPROCS
	Jobs int
}

// Output is one file a run produces or removes
type Output struct {
	Path   string
	Src    []byte
	Delete bool
}

// Result is what a run produced
type Result struct {
	Outputs     []Output
	Diagnostics diag.List

	// debug sections, printed when the run is over
	dumps []dump
}

type dump struct {
	path  string
	title string
	body  []byte
}

func (r *Result) merge(o *Result) {
	r.Outputs = append(r.Outputs, o.Outputs...)
	r.Diagnostics = append(r.Diagnostics, o.Diagnostics...)
	r.dumps = append(r.dumps, o.dumps...)
}

func (r *Result) dump(path, title string, body []byte) {
	r.dumps = append(r.dumps, dump{path: path, title: title, body: body})
}

// Runner runs generation commands. A Runner keeps the companions it
// renders so a later fill in the same run sees them before they reach the
// disk.
type Runner struct {
	opts   Options
	loader *capture.Loader
}

// New creates a runner
func New(opts Options) *Runner {
	if opts.Config == nil {
		opts.Config = am.Default()
	}
	if opts.Registry == nil {
		opts.Registry = fillers.NewRegistry()
	}
	if opts.Debug == nil {
		opts.Debug = os.Stdout
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		opts:   opts,
		loader: capture.NewLoader(opts.Resolver, opts.Config.Cache.Portraits),
	}
}

// Make captures the annotated interfaces of dirs into companion files
func (r *Runner) Make(ctx context.Context, dirs []string) (*Result, error) {
	return r.run(ctx, "make", dirs, r.makeDir)
}

// Fill completes the implementations of dirs that carry fill directives
func (r *Runner) Fill(ctx context.Context, dirs []string) (*Result, error) {
	return r.run(ctx, "fill", dirs, r.fillDir(kindFill))
}

// Derive generates the implementations of dirs requested by derive directives
func (r *Runner) Derive(ctx context.Context, dirs []string) (*Result, error) {
	return r.run(ctx, "derive", dirs, r.fillDir(kindDerive))
}

// Generate runs make over all dirs, then fill and derive. Interfaces
// captured in the first phase are visible to the second even in a dry run.
func (r *Runner) Generate(ctx context.Context, dirs []string) (*Result, error) {
	res, err := r.Make(ctx, dirs)
	if err != nil {
		return nil, err
	}
	filled, err := r.run(ctx, "generate", dirs, r.fillDir(kindAll))
	if err != nil {
		return nil, err
	}
	res.merge(filled)
	return res, nil
}

type dirFunc func(ctx context.Context, dir string) (*Result, error)

func (r *Runner) run(ctx context.Context, command string, dirs []string, fn dirFunc) (*Result, error) {
	start := time.Now()
	results := make([]*Result, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)
	for i, dir := range dirs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := fn(gctx, dir)
			if err != nil {
				return errors.Wrapf(err, "%s %s", command, dir)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{}
	for _, res := range results {
		if res != nil {
			out.merge(res)
		}
	}
	out.Diagnostics.Sort()
	sort.SliceStable(out.Outputs, func(i, j int) bool { return out.Outputs[i].Path < out.Outputs[j].Path })
	r.printDumps(out)

	if !r.opts.DryRun {
		if err := write(out.Outputs); err != nil {
			return nil, err
		}
	}

	logger.Infow("Run complete",
		"command", command,
		logger.FieldCount, len(out.Outputs),
		"diagnostics", len(out.Diagnostics),
		logger.FieldDuration, time.Since(start).Milliseconds())
	return out, nil
}

// write applies outputs, leaving files whose content is unchanged alone
func write(outputs []Output) error {
	for _, o := range outputs {
		if o.Delete {
			if err := os.Remove(o.Path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "remove %s", o.Path)
			}
			logger.Infow("Removed stale file", logger.FieldFile, o.Path)
			continue
		}
		if old, err := os.ReadFile(o.Path); err == nil && bytes.Equal(old, o.Src) {
			continue
		}
		if err := os.WriteFile(o.Path, o.Src, 0644); err != nil {
			return errors.Wrapf(err, "write %s", o.Path)
		}
		logger.Infow("Wrote file", logger.FieldFile, o.Path)
	}
	return nil
}

// printDumps writes the debug sections of a run in path order. Directories
// run concurrently, so nothing is printed before all of them are done.
func (r *Runner) printDumps(res *Result) {
	sort.SliceStable(res.dumps, func(i, j int) bool { return res.dumps[i].path < res.dumps[j].path })
	for _, d := range res.dumps {
		fmt.Fprintln(r.opts.Debug, pterm.DefaultSection.Sprint(d.title))
		fmt.Fprintln(r.opts.Debug, string(d.body))
	}
	res.dumps = nil
}

// rel shortens path for messages
func rel(dir, path string) string {
	if p, err := filepath.Rel(dir, path); err == nil {
		return p
	}
	return path
}
