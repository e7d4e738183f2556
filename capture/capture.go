package capture

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// Source locates an interface declaration in a parsed file
type Source struct {
	Fset *token.FileSet
	File *ast.File
	Src  []byte
	Spec *ast.TypeSpec
}

// FileImports returns the imports of a parsed file
func FileImports(f *ast.File) []model.Import {
	var out []model.Import
	for _, is := range f.Imports {
		path, err := strconv.Unquote(is.Path.Value)
		if err != nil {
			continue
		}
		imp := model.Import{Path: path}
		if is.Name != nil {
			imp.Name = is.Name.Name
		}
		out = append(out, imp)
	}
	return out
}

// Capture records the interface declared by src. alias reuses the alias of
// a previous capture; empty picks a fresh one.
func Capture(src Source, opts *directive.Make, alias string) (*Template, error) {
	origin := src.Fset.Position(src.Spec.Pos())
	if _, ok := src.Spec.Type.(*ast.InterfaceType); !ok {
		return nil, diag.Newf(diag.KindParse, "//portrait:make must annotate an interface type, %s is not one", src.Spec.Name.Name).
			At(origin).WithErr(errors.ErrParse)
	}
	if opts == nil {
		opts = &directive.Make{}
	}

	start := src.Fset.Position(src.Spec.Pos()).Offset
	end := src.Fset.Position(src.Spec.End()).Offset
	if start < 0 || end > len(src.Src) || start >= end {
		return nil, errors.AssertionFailedf("interface %s outside its source", src.Spec.Name.Name)
	}
	text := "type " + string(src.Src[start:end])

	iface, err := ParseInterface(text, origin)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = ScopeName(iface.Name)
	}
	scope, err := BuildScope(name, iface, FileImports(src.File), opts.Imports, opts.AutoImports)
	if err != nil {
		return nil, diag.From(err, origin)
	}

	if alias == "" {
		alias = NewAlias()
	}
	return &Template{
		Name:    iface.Name,
		Alias:   alias,
		Text:    text,
		PkgName: src.File.Name.Name,
		Origin:  origin,
		Scope:   scope,
	}, nil
}
