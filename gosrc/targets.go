package gosrc

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// MakeTarget is an interface annotated with //portrait:make
type MakeTarget struct {
	File *File
	Spec *ast.TypeSpec
	Opts *directive.Make
	Pos  token.Position
}

// Source returns the capture input for the target
func (t *MakeTarget) Source(p *Package) capture.Source {
	return capture.Source{Fset: p.Fset, File: t.File.AST, Src: t.File.Src, Spec: t.Spec}
}

// MakeTargets finds the //portrait:make directives of the package. Files
// with a malformed directive report a diagnostic and are skipped.
func (p *Package) MakeTargets() ([]*MakeTarget, diag.List) {
	var (
		out   []*MakeTarget
		diags diag.List
	)
	for _, f := range p.Files {
		if f.Generated {
			continue
		}
		for _, decl := range f.AST.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				td := &TypeDecl{Decl: gd, Spec: ts, File: f}
				ds := directive.Find(directive.NameMake, td.Doc()...)
				if len(ds) == 0 {
					continue
				}
				pos := p.Position(ds[0].Pos)
				if len(ds) > 1 {
					diags.Add(diag.Newf(diag.KindParse, "%s has more than one //portrait:make", ts.Name.Name).
						At(p.Position(ds[1].Pos)).WithErr(errors.ErrParse))
					continue
				}
				opts, err := directive.ParseMake(ds[0].Args)
				if err != nil {
					diags.Add(diag.From(err, pos))
					continue
				}
				out = append(out, &MakeTarget{File: f, Spec: ts, Opts: opts, Pos: pos})
			}
		}
	}
	return out, diags
}

// Target is a fill or derive directive with the implementation block it
// applies to
type Target struct {
	File *File
	// Derive is set for //portrait:derive, Fill for both kinds
	Derive *directive.Derive
	Fill   *directive.Fill
	Impl   *model.ImplBlock
	Pos    token.Position
}

// Kind names the directive
func (t *Target) Kind() string {
	if t.Derive != nil {
		return directive.NameDerive
	}
	return directive.NameFill
}

// FillOptions tunes how implementation blocks are built
type FillOptions struct {
	// Receiver selects value, pointer or auto receivers for derived methods
	Receiver string
}

// Receiver forms for derived methods
const (
	ReceiverAuto    = "auto"
	ReceiverValue   = "value"
	ReceiverPointer = "pointer"
)

type marker struct {
	pos  token.Pos
	kind string
	spec *ast.ValueSpec // fill
	td   *TypeDecl      // derive
	args string
}

// Targets finds the fill and derive directives of the package, grouped by
// file in source order.
func (p *Package) Targets(opts FillOptions) ([]*Target, diag.List) {
	var (
		out   []*Target
		diags diag.List
	)
	for _, f := range p.Files {
		if f.Generated {
			continue
		}
		marks := p.markers(f)
		for i, m := range marks {
			end := f.AST.FileEnd
			if i+1 < len(marks) {
				end = marks[i+1].pos
			}
			var (
				t   *Target
				err error
			)
			if m.kind == directive.NameFill {
				t, err = p.fillTarget(f, m, end)
			} else {
				t, err = p.deriveTarget(f, m, opts)
			}
			if err != nil {
				diags.Add(diag.From(err, p.Position(m.pos)))
				continue
			}
			out = append(out, t)
		}
	}
	return out, diags
}

func (p *Package) markers(f *File) []marker {
	var out []marker
	for _, decl := range f.AST.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gd.Specs {
			switch s := spec.(type) {
			case *ast.ValueSpec:
				if gd.Tok != token.VAR {
					continue
				}
				var groups []*ast.CommentGroup
				if gd.Lparen == token.NoPos {
					groups = append(groups, gd.Doc)
				}
				groups = append(groups, s.Doc)
				for _, d := range directive.Find(directive.NameFill, groups...) {
					out = append(out, marker{pos: d.Pos, kind: directive.NameFill, spec: s, args: d.Args})
				}
			case *ast.TypeSpec:
				td := &TypeDecl{Decl: gd, Spec: s, File: f}
				for _, d := range directive.Find(directive.NameDerive, td.Doc()...) {
					out = append(out, marker{pos: d.Pos, kind: directive.NameDerive, td: td, args: d.Args})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

func (p *Package) fillTarget(f *File, m marker, end token.Pos) (*Target, error) {
	opts, err := directive.ParseFill(m.args)
	if err != nil {
		return nil, err
	}
	s := m.spec
	if len(s.Names) != 1 || s.Names[0].Name != "_" || s.Type == nil || len(s.Values) != 1 {
		return nil, errors.WithHint(
			errors.Parsef("//portrait:fill must annotate an interface assertion"),
			"write it as var _ Iface = T{} or var _ Iface = (*T)(nil)")
	}

	typeExpr, pointer, err := assertedType(s.Values[0])
	if err != nil {
		return nil, err
	}
	name, _ := receiverBase(typeExpr)
	td, ok := p.Types[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnresolved, "type %s is not declared in package %s", p.text(typeExpr), p.Name)
	}

	ref, err := p.interfaceRef(s.Type)
	if err != nil {
		return nil, err
	}
	// Generic implementations name a concrete instantiation in the
	// assertion; the interface is filled for the type in general.
	if td.Spec.TypeParams != nil && len(td.Spec.TypeParams.List) > 0 {
		inst := p.text(typeExpr)
		for i, a := range ref.TypeArgs {
			if a == inst {
				ref.TypeArgs[i] = model.SelfName
			}
		}
	}

	impl, err := p.implBlock(f, td, ref, pointer, m.pos)
	if err != nil {
		return nil, err
	}
	impl.Provided, impl.Elsewhere = p.members(td, f, m.pos, end)
	return &Target{File: f, Fill: opts, Impl: impl, Pos: p.Position(m.pos)}, nil
}

func (p *Package) deriveTarget(f *File, m marker, opts FillOptions) (*Target, error) {
	d, err := directive.ParseDerive(m.args)
	if err != nil {
		return nil, err
	}
	expr, err := parser.ParseExpr(d.Interface)
	if err != nil {
		return nil, errors.Parsef("malformed interface reference %q", d.Interface)
	}
	ref, err := refOf(expr, func(e ast.Expr) string { return slice(d.Interface, e) })
	if err != nil {
		return nil, err
	}

	pointer := false
	switch opts.Receiver {
	case ReceiverPointer:
		pointer = true
	case ReceiverValue:
	default:
		for _, fd := range p.Methods(m.td.Spec.Name.Name) {
			if _, ptr := receiverBase(fd.Recv.List[0].Type); ptr {
				pointer = true
				break
			}
		}
	}

	impl, err := p.implBlock(f, m.td, ref, pointer, m.pos)
	if err != nil {
		return nil, err
	}
	provided, elsewhere := p.members(m.td, f, token.NoPos, token.NoPos)
	impl.Elsewhere = append(provided, elsewhere...)
	return &Target{File: f, Derive: d, Fill: &d.Fill, Impl: impl, Pos: p.Position(m.pos)}, nil
}

// slice returns the source of e parsed out of src by parser.ParseExpr
func slice(src string, e ast.Expr) string {
	start, end := int(e.Pos())-1, int(e.End())-1
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return strings.TrimSpace(src[start:end])
}

// assertedType unwraps T{}, &T{} and (*T)(nil)
func assertedType(e ast.Expr) (ast.Expr, bool, error) {
	switch x := e.(type) {
	case *ast.CompositeLit:
		if x.Type != nil {
			return x.Type, false, nil
		}
	case *ast.UnaryExpr:
		if lit, ok := x.X.(*ast.CompositeLit); ok && x.Op == token.AND && lit.Type != nil {
			return lit.Type, true, nil
		}
	case *ast.CallExpr:
		paren, ok := x.Fun.(*ast.ParenExpr)
		if !ok || len(x.Args) != 1 {
			break
		}
		if star, ok := paren.X.(*ast.StarExpr); ok {
			if id, ok := x.Args[0].(*ast.Ident); ok && id.Name == "nil" {
				return star.X, true, nil
			}
		}
	}
	return nil, false, errors.WithHint(
		errors.Parsef("cannot tell the implementing type from the asserted value"),
		"assert a composite literal T{}, &T{} or (*T)(nil)")
}

func (p *Package) interfaceRef(e ast.Expr) (model.InterfaceRef, error) {
	return refOf(e, func(x ast.Expr) string { return p.text(x) })
}

// refOf splits pkg.Name[Args] into an interface reference
func refOf(e ast.Expr, text func(ast.Expr) string) (model.InterfaceRef, error) {
	var ref model.InterfaceRef
	switch x := e.(type) {
	case *ast.IndexExpr:
		ref.TypeArgs = []string{text(x.Index)}
		e = x.X
	case *ast.IndexListExpr:
		for _, idx := range x.Indices {
			ref.TypeArgs = append(ref.TypeArgs, text(idx))
		}
		e = x.X
	}
	switch x := e.(type) {
	case *ast.Ident:
		ref.Name = x.Name
	case *ast.SelectorExpr:
		q, ok := x.X.(*ast.Ident)
		if !ok {
			return ref, errors.Parsef("malformed interface reference")
		}
		ref.Qualifier, ref.Name = q.Name, x.Sel.Name
	default:
		return ref, errors.Parsef("malformed interface reference")
	}
	return ref, nil
}

func (p *Package) implBlock(f *File, td *TypeDecl, ref model.InterfaceRef, pointer bool, pos token.Pos) (*model.ImplBlock, error) {
	typ := model.TypeRef{
		Name:       td.Spec.Name.Name,
		TypeParams: p.typeParams(td.Spec.TypeParams),
		Pointer:    pointer,
		Recv:       p.receiverName(td.Spec.Name.Name),
	}

	site := model.Site{
		Dir:      p.Dir,
		PkgName:  p.Name,
		Imports:  f.Imports,
		Declared: p.Declared,
	}
	if ref.Qualifier != "" {
		path, ok := site.ImportPath(ref.Qualifier)
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnresolved, "%s is not imported in %s", ref.Qualifier, f.Path)
		}
		site.Iface = model.Import{Path: path}
		if model.AssumedName(path) != ref.Qualifier {
			site.Iface.Name = ref.Qualifier
		}
	}

	layout, err := p.LayoutOf(td)
	if err != nil {
		return nil, err
	}

	impl := &model.ImplBlock{
		Type:      typ,
		Interface: ref,
		Layout:    layout,
		Site:      site,
		Pos:       p.Position(pos),
	}
	if f.Build != "" {
		impl.Attrs = []string{f.Build}
	}
	return impl, nil
}

func (p *Package) typeParams(fl *ast.FieldList) []model.TypeParam {
	if fl == nil {
		return nil
	}
	var out []model.TypeParam
	for _, field := range fl.List {
		c := p.text(field.Type)
		for _, n := range field.Names {
			out = append(out, model.TypeParam{Name: n.Name, Constraint: c})
		}
	}
	return out
}

// receiverName reuses the receiver name of the type's existing methods
func (p *Package) receiverName(typeName string) string {
	for _, fd := range p.Methods(typeName) {
		names := fd.Recv.List[0].Names
		if len(names) == 1 && names[0].Name != "_" {
			return names[0].Name
		}
	}
	return ""
}

// members collects what the package already declares for td: methods and
// <Type><Member> package-level declarations. Those in file between from
// and to are provided; everything else is elsewhere.
func (p *Package) members(td *TypeDecl, file *File, from, to token.Pos) (provided, elsewhere []model.Member) {
	typeName := td.Spec.Name.Name
	add := func(f *File, at token.Pos, m model.Member) {
		if f == file && from <= at && at < to {
			provided = append(provided, m)
			return
		}
		elsewhere = append(elsewhere, m)
	}

	for _, f := range p.Files {
		for _, decl := range f.AST.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv != nil {
					if len(d.Recv.List) > 0 {
						if n, _ := receiverBase(d.Recv.List[0].Type); n == typeName {
							add(f, d.Pos(), &model.Func{Name: d.Name.Name, Receiver: true, Pos: p.Position(d.Name.Pos())})
						}
					}
					continue
				}
				if name, ok := staticMember(typeName, d.Name.Name); ok {
					add(f, d.Pos(), &model.Func{Name: name, Pos: p.Position(d.Name.Pos())})
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.ValueSpec:
						for _, n := range s.Names {
							if name, ok := staticMember(typeName, n.Name); ok {
								add(f, s.Pos(), &model.Const{Name: name, Pos: p.Position(n.Pos())})
							}
						}
					case *ast.TypeSpec:
						if name, ok := staticMember(typeName, s.Name.Name); ok {
							add(f, s.Pos(), &model.TypeAlias{Name: name, Pos: p.Position(s.Name.Pos())})
						}
					}
				}
			}
		}
	}
	return provided, elsewhere
}

// staticMember splits PairZero into Zero for type Pair
func staticMember(typeName, ident string) (string, bool) {
	rest := strings.TrimPrefix(ident, typeName)
	if rest == ident || rest == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return rest, unicode.IsUpper(r)
}
