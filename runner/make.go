package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/gosrc"
	"github.com/teranos/portrait/logger"
	"github.com/teranos/portrait/version"
)

func (r *Runner) makeDir(_ context.Context, dir string) (*Result, error) {
	res := &Result{}
	pkg, err := gosrc.LoadPackage(dir)
	if err != nil {
		res.Diagnostics.Add(diag.From(err, dirPos(dir)))
		return res, nil
	}
	if pkg == nil {
		return res, nil
	}

	targets, diags := pkg.MakeTargets()
	res.Diagnostics = append(res.Diagnostics, diags...)

	byFile := map[*gosrc.File][]*gosrc.MakeTarget{}
	var files []*gosrc.File
	for _, t := range targets {
		if byFile[t.File] == nil {
			files = append(files, t.File)
		}
		byFile[t.File] = append(byFile[t.File], t)
	}
	// a file with a broken directive keeps its old companion
	broken := map[string]bool{}
	for _, d := range diags {
		broken[d.Pos.Filename] = true
	}

	live := map[string]bool{}
	for _, f := range files {
		path := capture.CompanionPath(f.Path)
		live[path] = true
		if broken[f.Path] {
			continue
		}
		src, c, err := r.makeFile(res, pkg, path, byFile[f])
		if err != nil {
			res.Diagnostics.Add(diag.From(err, byFile[f][0].Pos))
			continue
		}
		r.loader.Overlay(path, c)
		res.Outputs = append(res.Outputs, Output{Path: path, Src: src})
	}
	for _, f := range pkg.Files {
		if broken[f.Path] {
			live[capture.CompanionPath(f.Path)] = true
		}
	}

	stale, err := staleFiles(dir, capture.CompanionSuffix, capture.IsCompanion, live)
	if err != nil {
		return nil, err
	}
	for _, path := range stale {
		res.Outputs = append(res.Outputs, Output{Path: path, Delete: true})
	}
	return res, nil
}

// makeFile captures the targets of one source file into its companion
func (r *Runner) makeFile(res *Result, pkg *gosrc.Package, path string, targets []*gosrc.MakeTarget) ([]byte, *capture.Companion, error) {
	previous := existingAliases(path)

	c := &capture.Companion{PkgName: pkg.Name, Format: version.FormatVersion}
	for _, t := range targets {
		tmpl, err := capture.Capture(t.Source(pkg), t.Opts, previous[t.Spec.Name.Name])
		if err != nil {
			return nil, nil, diag.From(err, t.Pos)
		}
		c.Templates = append(c.Templates, tmpl)
		logger.Debugw("Captured interface",
			logger.FieldInterface, tmpl.Name,
			logger.FieldPortrait, tmpl.Alias,
			logger.FieldCount, len(tmpl.Scope.Imports)+len(tmpl.Scope.Locals))
	}

	src, err := c.Render()
	if err != nil {
		return nil, nil, err
	}
	for _, t := range targets {
		if t.Opts.DebugPrint {
			res.dump(path, "portrait make "+t.Spec.Name.Name+" -> "+rel(pkg.Dir, path), src)
			break
		}
	}
	return src, c, nil
}

// existingAliases maps interface names to the aliases of the companion
// already on disk so rerunning make leaves it unchanged
func existingAliases(path string) map[string]string {
	out := map[string]string{}
	src, err := os.ReadFile(path)
	if err != nil || !capture.IsCompanion(src) {
		return out
	}
	c, err := capture.ParseCompanion(path, src)
	if err != nil {
		logger.Debugw("Ignoring unreadable companion", logger.FieldFile, path, logger.FieldError, err.Error())
		return out
	}
	for _, t := range c.Templates {
		out[t.Name] = t.Alias
	}
	return out
}

// staleFiles lists generated files in dir named *suffix that are not live
func staleFiles(dir, suffix string, generated func([]byte) bool, live map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if live[path] {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil || !generated(src) {
			continue
		}
		out = append(out, path)
	}
	return out, nil
}
