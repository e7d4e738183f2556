package runner

import (
	"context"
	"fmt"
	"go/token"
	"strings"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/gosrc"
	"github.com/teranos/portrait/logger"
	"github.com/teranos/portrait/model"
)

// kinds selects which directives make a file worth regenerating
type kinds int

const (
	kindFill kinds = 1 << iota
	kindDerive

	kindAll = kindFill | kindDerive
)

func (k kinds) has(t *gosrc.Target) bool {
	if t.Derive != nil {
		return k&kindDerive != 0
	}
	return k&kindFill != 0
}

func dirPos(dir string) token.Position {
	return token.Position{Filename: dir}
}

// fillDir regenerates the output of every source file holding a directive
// of the selected kinds. fill and derive blocks of one source file share
// one output file, so a selected file is always regenerated whole.
func (r *Runner) fillDir(selected kinds) dirFunc {
	return func(ctx context.Context, dir string) (*Result, error) {
		res := &Result{}
		pkg, err := gosrc.LoadPackage(dir)
		if err != nil {
			res.Diagnostics.Add(diag.From(err, dirPos(dir)))
			return res, nil
		}
		if pkg == nil {
			return res, nil
		}

		targets, diags := pkg.Targets(gosrc.FillOptions{Receiver: r.opts.Config.Derive.Receiver})
		res.Diagnostics = append(res.Diagnostics, diags...)

		broken := map[string]bool{}
		for _, d := range diags {
			broken[d.Pos.Filename] = true
		}
		byFile := map[*gosrc.File][]*gosrc.Target{}
		var files []*gosrc.File
		for _, t := range targets {
			if byFile[t.File] == nil {
				files = append(files, t.File)
			}
			byFile[t.File] = append(byFile[t.File], t)
		}

		suffix := r.opts.Config.Fill.FileSuffix
		live := map[string]bool{}
		for _, f := range pkg.Files {
			if broken[f.Path] {
				live[gosrc.OutputPath(f.Path, suffix)] = true
			}
		}

		for _, f := range files {
			path := gosrc.OutputPath(f.Path, suffix)
			live[path] = true
			if broken[f.Path] || !anyOf(selected, byFile[f]) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			src, ds := r.fillFile(res, pkg, path, byFile[f])
			res.Diagnostics = append(res.Diagnostics, ds...)
			if ds.HasErrors() {
				continue
			}
			res.Outputs = append(res.Outputs, Output{Path: path, Src: src})
		}

		stale, err := staleFiles(dir, suffix, gosrc.IsOutput, live)
		if err != nil {
			return nil, err
		}
		for _, path := range stale {
			res.Outputs = append(res.Outputs, Output{Path: path, Delete: true})
		}
		return res, nil
	}
}

func anyOf(k kinds, ts []*gosrc.Target) bool {
	for _, t := range ts {
		if k.has(t) {
			return true
		}
	}
	return false
}

// fillFile completes every target of one source file and renders the
// output. Any error diagnostic means no output.
func (r *Runner) fillFile(res *Result, pkg *gosrc.Package, path string, targets []*gosrc.Target) ([]byte, diag.List) {
	var (
		blocks []*model.ImplBlock
		diags  diag.List
	)
	for _, t := range targets {
		blk, err := r.complete(t)
		if err != nil {
			diags.Add(diag.From(err, t.Pos))
			continue
		}
		diags = append(diags, gosrc.CheckConstraints(blk, r.opts.Config.Fill.StrictConstraints)...)
		blocks = append(blocks, blk)

		if t.Fill.DebugPrint {
			res.dump(path, fmt.Sprintf("portrait %s %s for %s", t.Kind(), blk.Interface.String(), blk.Type.Name), debugItems(blk))
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	src, err := gosrc.RenderFile(path, pkg.Name, blocks)
	if err != nil {
		diags.Add(diag.From(err, targets[0].Pos))
		return nil, diags
	}
	return src, diags
}

func (r *Runner) complete(t *gosrc.Target) (*model.ImplBlock, error) {
	impl := t.Impl
	tmpl, err := r.loader.Load(&impl.Site, impl.Interface, t.Fill.ModPath)
	if err != nil {
		return nil, err
	}

	mode := complete.ModeFill
	if t.Derive != nil {
		mode = complete.ModeDerive
	}
	filler := &complete.Filler{Generators: r.opts.Registry, Mode: mode}
	out, err := tmpl.Invoke(filler, t.Fill.Call(), impl)
	if err != nil {
		return nil, err
	}
	logger.Debugw("Completed implementation",
		logger.FieldFile, t.Pos.Filename,
		logger.FieldInterface, impl.Interface.String(),
		logger.FieldType, impl.Type.Name,
		logger.FieldGenerator, t.Fill.Generator,
		logger.FieldCount, len(out.Items))
	return out, nil
}

func debugItems(blk *model.ImplBlock) []byte {
	var b strings.Builder
	for _, c := range blk.Constraints {
		fmt.Fprintf(&b, "// Requires: %s\n", c)
	}
	for _, item := range blk.Items {
		b.WriteString(item.Decl)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
