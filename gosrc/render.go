package gosrc

import (
	"bytes"
	"fmt"
	"go/build/constraint"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// OutputHeader starts every file written by fill and derive
const OutputHeader = "// Code generated by portrait; DO NOT EDIT."

// IsOutput reports whether src was written by fill or derive
func IsOutput(src []byte) bool {
	return bytes.HasPrefix(src, []byte(OutputHeader))
}

// OutputPath names the generated file for a source file:
// shape.go -> shape<suffix>
func OutputPath(source, suffix string) string {
	return strings.TrimSuffix(source, ".go") + suffix
}

// RenderFile renders the generated file at path holding blocks. The build
// constraints of all blocks are combined with &&.
func RenderFile(path, pkgName string, blocks []*model.ImplBlock) ([]byte, error) {
	build, err := combineBuild(blocks)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	fmt.Fprintln(&b, OutputHeader)
	if build != "" {
		fmt.Fprintf(&b, "\n%s\n", build)
	}
	fmt.Fprintf(&b, "\npackage %s\n", pkgName)

	var imps []model.Import
	for _, blk := range blocks {
		imps = model.MergeImports(imps, blk.Imports...)
	}
	if len(imps) > 0 {
		b.WriteString("\nimport (\n")
		for _, imp := range imps {
			if imp.Name != "" {
				fmt.Fprintf(&b, "\t%s %s\n", imp.Name, strconv.Quote(imp.Path))
			} else {
				fmt.Fprintf(&b, "\t%s\n", strconv.Quote(imp.Path))
			}
		}
		b.WriteString(")\n")
	}

	for _, blk := range blocks {
		fmt.Fprintf(&b, "\n// %s implements %s.\n", blk.Type.Name, blk.Interface.String())
		for _, c := range blk.Constraints {
			fmt.Fprintf(&b, "// Requires: %s\n", c)
		}
		for _, item := range blk.Items {
			b.WriteString("\n")
			b.WriteString(item.Decl)
		}
	}

	out, err := imports.Process(path, b.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
	if err != nil {
		return nil, errors.WithDetail(errors.Wrapf(err, "format %s", path), b.String())
	}
	return out, nil
}

func combineBuild(blocks []*model.ImplBlock) (string, error) {
	var (
		expr constraint.Expr
		seen = map[string]bool{}
	)
	for _, blk := range blocks {
		for _, attr := range blk.Attrs {
			if !constraint.IsGoBuild(attr) || seen[attr] {
				continue
			}
			seen[attr] = true
			x, err := constraint.Parse(attr)
			if err != nil {
				return "", errors.Wrapf(errors.ErrParse, "%s: %s", attr, err.Error())
			}
			if expr == nil {
				expr = x
			} else {
				expr = &constraint.AndExpr{X: expr, Y: x}
			}
		}
	}
	if expr == nil {
		return "", nil
	}
	return "//go:build " + expr.String(), nil
}

// CheckConstraints reports required constraints on type parameters that
// the declared constraint does not visibly satisfy. They are warnings
// unless strict is set; constraints on concrete types are left to the
// compiler.
func CheckConstraints(blk *model.ImplBlock, strict bool) diag.List {
	declared := map[string]string{}
	for _, tp := range blk.Type.TypeParams {
		declared[tp.Name] = tp.Constraint
	}

	var out diag.List
	for _, c := range blk.Constraints {
		if !c.TypeParam {
			continue
		}
		bound, ok := declared[c.Type]
		if ok && strings.Contains(bound, interfaceName(c.Interface)) {
			continue
		}
		d := diag.Newf(diag.KindShape, "type parameter %s of %s is constrained by %q, the generated code needs %s",
			c.Type, blk.Type.Name, bound, c).
			At(blk.Pos).
			WithSuggestion(fmt.Sprintf("constrain %s by %s", c.Type, c.Interface)).
			WithErr(errors.ErrShape)
		if !strict {
			d = d.WithSeverity(diag.SeverityWarning)
		}
		out.Add(d)
	}
	return out
}

// interfaceName strips qualifier and type arguments: shapes.Eq[T] -> Eq
func interfaceName(ref string) string {
	if i := strings.IndexByte(ref, '['); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		ref = ref[i+1:]
	}
	return ref
}
