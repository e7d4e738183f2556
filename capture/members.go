package capture

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

const snippetHeader = "package p\n\n"

// snippet parses generated Go text and maps its positions back to origin
type snippet struct {
	fset   *token.FileSet
	file   *ast.File
	src    string
	origin token.Position
}

func parseSnippet(text string, origin token.Position) (*snippet, error) {
	src := snippetHeader + text
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, origin.Filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, diag.New(diag.KindParse, err.Error()).At(origin).WithErr(errors.ErrParse)
	}
	return &snippet{fset: fset, file: f, src: src, origin: origin}, nil
}

// position maps a snippet position to the original source
func (s *snippet) position(p token.Pos) token.Position {
	pos := s.fset.Position(p)
	line := pos.Line - strings.Count(snippetHeader, "\n")
	out := s.origin
	if out.Line > 0 {
		out.Line += line - 1
		if line > 1 {
			out.Column = pos.Column
		}
	}
	return out
}

func (s *snippet) text(n ast.Node) string {
	start := s.fset.Position(n.Pos()).Offset
	end := s.fset.Position(n.End()).Offset
	return s.src[start:end]
}

// ParseInterface parses captured interface text into its members, in
// declaration order. origin is the position of the declaration in its
// source file and anchors diagnostics.
func ParseInterface(text string, origin token.Position) (*model.Interface, error) {
	s, err := parseSnippet(text, origin)
	if err != nil {
		return nil, err
	}

	var spec *ast.TypeSpec
	for _, d := range s.file.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE || len(gd.Specs) != 1 {
			continue
		}
		spec = gd.Specs[0].(*ast.TypeSpec)
		break
	}
	if spec == nil {
		return nil, diag.New(diag.KindParse, "expected a single interface type declaration").At(origin).WithErr(errors.ErrParse)
	}
	it, ok := spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, diag.Newf(diag.KindParse, "%s is not an interface type", spec.Name.Name).At(origin).WithErr(errors.ErrParse)
	}

	iface := &model.Interface{
		Name:       spec.Name.Name,
		TypeParams: s.typeParams(spec.TypeParams),
		Pos:        origin,
	}
	iface.Members, err = s.members(it)
	if err != nil {
		return nil, err
	}
	if _, err := model.NewIndex(iface.Members); err != nil {
		return nil, diag.From(err, origin)
	}
	return iface, nil
}

type bodyEvent struct {
	pos     token.Pos
	comment *ast.Comment
	field   *ast.Field
}

func (s *snippet) members(it *ast.InterfaceType) ([]model.Member, error) {
	var events []bodyEvent
	for _, cg := range s.file.Comments {
		if cg.Pos() < it.Interface || cg.End() > it.End() {
			continue
		}
		for _, c := range cg.List {
			events = append(events, bodyEvent{pos: c.Slash, comment: c})
		}
	}
	for _, f := range it.Methods.List {
		events = append(events, bodyEvent{pos: f.Pos(), field: f})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].pos < events[j].pos })

	var (
		out     []model.Member
		pending []model.Attr
	)
	for _, ev := range events {
		if ev.comment != nil {
			name, args, ok := directive.Split(ev.comment.Text)
			if !ok {
				continue
			}
			pos := s.position(ev.comment.Slash)
			var m model.Member
			var err error
			switch name {
			case directive.NameConst:
				m, err = parseConstLine(args, pos)
			case directive.NameType:
				m, err = parseTypeLine(args, pos)
			case directive.NameFunc:
				m, err = parseFuncLine(args, pos)
			case directive.NameMake, directive.NameFill, directive.NameDerive, directive.NameUnion:
				err = diag.Newf(diag.KindParse, "//portrait:%s is not allowed inside an interface body", name).At(pos).WithErr(errors.ErrParse)
			default:
				pending = append(pending, model.Attr{Name: name, Args: args, Pos: pos})
				continue
			}
			if err != nil {
				return nil, err
			}
			setAttrs(m, pending)
			pending = nil
			out = append(out, m)
			continue
		}

		f := ev.field
		pos := s.position(f.Pos())
		if len(f.Names) == 0 {
			return nil, diag.Newf(diag.KindParse, "embedded element %s cannot be captured", s.text(f.Type)).
				At(pos).
				WithSuggestion("declare its methods in the interface body").
				WithErr(errors.ErrParse)
		}
		ft, ok := f.Type.(*ast.FuncType)
		if !ok {
			return nil, diag.Newf(diag.KindParse, "unsupported interface element %s", s.text(f)).At(pos).WithErr(errors.ErrParse)
		}
		for _, n := range f.Names {
			out = append(out, &model.Func{
				Name:     n.Name,
				Receiver: true,
				Params:   s.params(ft.Params),
				Results:  s.params(ft.Results),
				Attrs:    pending,
				Pos:      pos,
			})
		}
		pending = nil
	}
	if len(pending) > 0 {
		return nil, diag.Newf(diag.KindParse, "//portrait:%s is not followed by a member", pending[0].Name).
			At(pending[0].Pos).WithErr(errors.ErrParse)
	}
	return out, nil
}

func setAttrs(m model.Member, attrs []model.Attr) {
	switch x := m.(type) {
	case *model.Const:
		x.Attrs = attrs
	case *model.Func:
		x.Attrs = attrs
	case *model.TypeAlias:
		x.Attrs = attrs
	}
}

func lineError(pos token.Position, format string, args ...interface{}) error {
	return diag.Newf(diag.KindParse, format, args...).At(pos).WithErr(errors.ErrParse)
}

// parseConstLine parses "Name Type [= default]"
func parseConstLine(args string, pos token.Position) (model.Member, error) {
	s, err := parseSnippet("var "+args, pos)
	if err != nil {
		return nil, lineError(pos, "malformed //portrait:const %q", args)
	}
	gd, ok := s.file.Decls[0].(*ast.GenDecl)
	if !ok || len(gd.Specs) != 1 {
		return nil, lineError(pos, "malformed //portrait:const %q", args)
	}
	vs := gd.Specs[0].(*ast.ValueSpec)
	if len(vs.Names) != 1 || len(vs.Values) > 1 {
		return nil, lineError(pos, "//portrait:const declares exactly one constant, got %q", args)
	}
	if vs.Type == nil {
		return nil, lineError(pos, "//portrait:const %s needs a type", vs.Names[0].Name)
	}
	c := &model.Const{Name: vs.Names[0].Name, Type: s.text(vs.Type), Pos: pos}
	if len(vs.Values) == 1 {
		c.Default = s.text(vs.Values[0])
	}
	return c, nil
}

// parseTypeLine parses "Name[TypeParams]"
func parseTypeLine(args string, pos token.Position) (model.Member, error) {
	s, err := parseSnippet("type "+args+" struct{}", pos)
	if err != nil {
		return nil, lineError(pos, "malformed //portrait:type %q", args)
	}
	gd, ok := s.file.Decls[0].(*ast.GenDecl)
	if !ok || len(gd.Specs) != 1 {
		return nil, lineError(pos, "malformed //portrait:type %q", args)
	}
	ts := gd.Specs[0].(*ast.TypeSpec)
	if _, ok := ts.Type.(*ast.StructType); !ok || ts.Assign.IsValid() {
		return nil, lineError(pos, "malformed //portrait:type %q", args)
	}
	return &model.TypeAlias{Name: ts.Name.Name, TypeParams: s.typeParams(ts.TypeParams), Pos: pos}, nil
}

// parseFuncLine parses "Name[TypeParams](params) results"
func parseFuncLine(args string, pos token.Position) (model.Member, error) {
	s, err := parseSnippet("func "+args, pos)
	if err != nil || len(s.file.Decls) != 1 {
		return nil, lineError(pos, "malformed //portrait:func %q", args)
	}
	fd, ok := s.file.Decls[0].(*ast.FuncDecl)
	if !ok || fd.Recv != nil || fd.Body != nil {
		return nil, lineError(pos, "malformed //portrait:func %q", args)
	}
	return &model.Func{
		Name:       fd.Name.Name,
		TypeParams: s.typeParams(fd.Type.TypeParams),
		Params:     s.params(fd.Type.Params),
		Results:    s.params(fd.Type.Results),
		Pos:        pos,
	}, nil
}

func (s *snippet) typeParams(fl *ast.FieldList) []model.TypeParam {
	if fl == nil {
		return nil
	}
	var out []model.TypeParam
	for _, f := range fl.List {
		c := s.text(f.Type)
		for _, n := range f.Names {
			out = append(out, model.TypeParam{Name: n.Name, Constraint: c})
		}
	}
	return out
}

func (s *snippet) params(fl *ast.FieldList) []model.Param {
	if fl == nil {
		return nil
	}
	var out []model.Param
	for _, f := range fl.List {
		typ := f.Type
		variadic := false
		if el, ok := typ.(*ast.Ellipsis); ok {
			typ, variadic = el.Elt, true
		}
		p := model.Param{Type: s.text(typ), Variadic: variadic, Self: selfRef(typ)}
		if len(f.Names) == 0 {
			out = append(out, p)
			continue
		}
		for _, n := range f.Names {
			p.Name = n.Name
			out = append(out, p)
		}
	}
	return out
}

func selfRef(e ast.Expr) model.SelfRef {
	switch x := e.(type) {
	case *ast.Ident:
		if x.Name == model.SelfName {
			return model.SelfValue
		}
	case *ast.StarExpr:
		if id, ok := x.X.(*ast.Ident); ok && id.Name == model.SelfName {
			return model.SelfPointer
		}
	}
	return model.NotSelf
}
