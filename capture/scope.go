package capture

import (
	"go/ast"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/internal/util"
	"github.com/teranos/portrait/model"
)

// Scope is the companion scope of a captured interface: the packages and
// interface-package symbols its members may reference.
type Scope struct {
	Name    string
	Imports []model.Import // Name is always set
	Locals  []string
}

// ScopeName derives the companion scope name: snake_case(Interface)_portrait
func ScopeName(iface string) string {
	return util.ToSnakeCase(iface) + "_portrait"
}

func (s *Scope) importNamed(name string) (model.Import, bool) {
	for _, imp := range s.Imports {
		if imp.Name == name {
			return imp, true
		}
	}
	return model.Import{}, false
}

func (s *Scope) hasLocal(name string) bool {
	for _, l := range s.Locals {
		if l == name {
			return true
		}
	}
	return false
}

func (s *Scope) addImport(imp model.Import) {
	if _, ok := s.importNamed(imp.Name); !ok {
		s.Imports = append(s.Imports, imp)
	}
}

func (s *Scope) addLocal(name string) {
	if !s.hasLocal(name) {
		s.Locals = append(s.Locals, name)
	}
}

func (s *Scope) sort() {
	sort.Slice(s.Imports, func(i, j int) bool { return s.Imports[i].Name < s.Imports[j].Name })
	sort.Strings(s.Locals)
}

// Text renders the scope as the body of its companion constant
func (s *Scope) Text() string {
	var lines []string
	for _, imp := range s.Imports {
		lines = append(lines, "import "+imp.Name+" "+imp.Path)
	}
	for _, l := range s.Locals {
		lines = append(lines, "local "+l)
	}
	return strings.Join(lines, "\n")
}

// ParseScope parses the body of a companion scope constant
func ParseScope(name, text string) (*Scope, error) {
	s := &Scope{Name: name}
	for _, line := range strings.Split(text, "\n") {
		f := strings.Fields(line)
		switch {
		case len(f) == 0:
		case f[0] == "import" && len(f) == 3:
			s.Imports = append(s.Imports, model.Import{Name: f[1], Path: f[2]})
		case f[0] == "local" && len(f) == 2:
			s.Locals = append(s.Locals, f[1])
		default:
			return nil, errors.Parsef("malformed scope entry %q in %s", line, name)
		}
	}
	return s, nil
}

// BuildScope derives the companion scope of iface declared in a file with
// the given imports. Explicit entries are import paths, name=path pairs,
// import names of the declaring file, or exported identifiers of the
// interface's package. With auto, every qualifier and every non-predeclared
// identifier used by a member is collected as well.
func BuildScope(name string, iface *model.Interface, fileImports []model.Import, explicit []string, auto bool) (*Scope, error) {
	s := &Scope{Name: name}

	fileImport := func(qual string) (model.Import, bool) {
		for _, imp := range fileImports {
			n := imp.Name
			if n == "" {
				n = model.AssumedName(imp.Path)
			}
			if n == qual {
				return model.Import{Name: n, Path: imp.Path}, true
			}
		}
		return model.Import{}, false
	}

	for _, e := range explicit {
		if n, p, ok := strings.Cut(e, "="); ok {
			n, p = strings.TrimSpace(n), strings.Trim(strings.TrimSpace(p), `"`)
			if !directive.IsIdent(n) || p == "" {
				return nil, errors.Parsef("malformed import entry %q", e)
			}
			s.addImport(model.Import{Name: n, Path: p})
			continue
		}
		e = strings.Trim(e, `"`)
		if imp, ok := fileImport(e); ok {
			s.addImport(imp)
			continue
		}
		if directive.IsIdent(e) && unicode.IsUpper([]rune(e)[0]) {
			s.addLocal(e)
			continue
		}
		if directive.IsIdent(e) && !strings.Contains(e, "/") && !stdLike(e) {
			return nil, errors.Parsef("import entry %q is neither an import of this file, a path nor an exported identifier", e)
		}
		name := model.AssumedName(e)
		for _, imp := range fileImports {
			if imp.Path == e && imp.Name != "" {
				name = imp.Name
			}
		}
		s.addImport(model.Import{Name: name, Path: e})
	}

	if auto {
		err := visitMemberSymbols(iface, func(m model.Member, qual, ident string) error {
			if qual != "" {
				imp, ok := fileImport(qual)
				if !ok {
					user, pos := iface.Name, iface.Pos
					if m != nil {
						user, pos = m.MemberName(), m.Position()
					}
					return diag.Newf(diag.KindResolve, "%s uses unknown package %s", user, qual).
						At(pos).WithErr(errors.ErrUnresolved)
				}
				s.addImport(imp)
				return nil
			}
			if ident != model.SelfName && !IsPredeclared(ident) {
				s.addLocal(ident)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.sort()
	return s, nil
}

// stdLike reports whether a bare identifier plausibly names a standard
// library package path such as "fmt" or "strings"
func stdLike(s string) bool {
	for _, r := range s {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// visitMemberSymbols calls visit for every symbol referenced by member
// types and default values, skipping type parameters in scope.
func visitMemberSymbols(iface *model.Interface, visit func(m model.Member, qual, ident string) error) error {
	outer := bound(iface.TypeParams)
	walk := func(m model.Member, inner map[string]bool, s string) error {
		return walkSymbols(s, func(q, n string) error {
			if q == "" && (outer[n] || inner[n]) {
				return nil
			}
			return visit(m, q, n)
		})
	}
	for _, tp := range iface.TypeParams {
		if err := walk(nil, nil, tp.Constraint); err != nil {
			return err
		}
	}
	for _, m := range iface.Members {
		switch x := m.(type) {
		case *model.Const:
			if err := walk(m, nil, x.Type); err != nil {
				return err
			}
			if err := walk(m, nil, x.Default); err != nil {
				return err
			}
		case *model.Func:
			inner := bound(x.TypeParams)
			for _, tp := range x.TypeParams {
				if err := walk(m, inner, tp.Constraint); err != nil {
					return err
				}
			}
			for _, p := range append(append([]model.Param(nil), x.Params...), x.Results...) {
				if err := walk(m, inner, p.Type); err != nil {
					return err
				}
			}
		case *model.TypeAlias:
			inner := bound(x.TypeParams)
			for _, tp := range x.TypeParams {
				if err := walk(m, inner, tp.Constraint); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func bound(tps []model.TypeParam) map[string]bool {
	out := make(map[string]bool, len(tps))
	for _, tp := range tps {
		out[tp.Name] = true
	}
	return out
}

// localizer rewrites member symbols from the interface's scope into the
// scope of an implementation site
type localizer struct {
	scope   *Scope
	site    *model.Site
	subst   map[string]string
	imports []model.Import
	// qualifier renames chosen for scope imports at this site
	renames map[string]string
	iface   string
	pos     token.Position
}

// Localize rewrites iface for the implementation site of impl. Self and the
// interface's type parameters become the implementing type and the
// reference's type arguments; scope symbols become site symbols. It returns
// the rewritten interface and the imports the rewritten members need.
func (p *Portrait) Localize(impl *model.ImplBlock) (*model.Interface, []model.Import, error) {
	iface := p.Interface
	self := impl.Type.Expr()

	args := impl.Interface.TypeArgs
	params := iface.TypeParams
	selfIdx := iface.SelfIndex()
	if selfIdx >= 0 && len(args) == len(params)-1 {
		args = append(append(append([]string(nil), args[:selfIdx]...), model.SelfName), args[selfIdx:]...)
	}
	if len(args) != len(params) {
		return nil, nil, diag.Newf(diag.KindShape, "%s has %d type parameters, got %d type arguments",
			iface.Name, len(params), len(impl.Interface.TypeArgs)).At(impl.Pos).WithErr(errors.ErrShape)
	}

	subst := map[string]string{model.SelfName: self}
	for i, tp := range params {
		a, err := rewriteString(args[i], func(q, n string) (ast.Expr, error) {
			if q == "" && n == model.SelfName {
				return parseExpr(self)
			}
			return nil, nil
		})
		if err != nil {
			return nil, nil, diag.From(err, impl.Pos)
		}
		subst[tp.Name] = a
	}

	l := &localizer{
		scope:   p.Scope,
		site:    &impl.Site,
		subst:   subst,
		renames: map[string]string{},
		iface:   iface.Name,
		pos:     impl.Pos,
	}

	out := &model.Interface{
		Name:       iface.Name,
		PkgName:    iface.PkgName,
		TypeParams: iface.TypeParams,
		Pos:        iface.Pos,
	}
	for _, tp := range params {
		out.TypeArgs = append(out.TypeArgs, subst[tp.Name])
	}
	for _, m := range iface.Members {
		lm, err := l.member(m)
		if err != nil {
			return nil, nil, err
		}
		out.Members = append(out.Members, lm)
	}
	return out, model.MergeImports(nil, l.imports...), nil
}

func (l *localizer) member(m model.Member) (model.Member, error) {
	switch x := m.(type) {
	case *model.Const:
		c := *x
		var err error
		if c.Type, err = l.rewrite(m, nil, x.Type); err != nil {
			return nil, err
		}
		if c.Default, err = l.rewrite(m, nil, x.Default); err != nil {
			return nil, err
		}
		return &c, nil
	case *model.Func:
		f := *x
		inner := bound(x.TypeParams)
		var err error
		if f.TypeParams, err = l.typeParams(m, inner, x.TypeParams); err != nil {
			return nil, err
		}
		if f.Params, err = l.params(m, inner, x.Params); err != nil {
			return nil, err
		}
		if f.Results, err = l.params(m, inner, x.Results); err != nil {
			return nil, err
		}
		return &f, nil
	case *model.TypeAlias:
		t := *x
		var err error
		if t.TypeParams, err = l.typeParams(m, bound(x.TypeParams), x.TypeParams); err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, errors.AssertionFailedf("unknown member %T", m)
	}
}

func (l *localizer) params(m model.Member, inner map[string]bool, ps []model.Param) ([]model.Param, error) {
	if ps == nil {
		return nil, nil
	}
	out := make([]model.Param, len(ps))
	for i, p := range ps {
		t, err := l.rewrite(m, inner, p.Type)
		if err != nil {
			return nil, err
		}
		p.Type = t
		out[i] = p
	}
	return out, nil
}

func (l *localizer) typeParams(m model.Member, inner map[string]bool, tps []model.TypeParam) ([]model.TypeParam, error) {
	if tps == nil {
		return nil, nil
	}
	out := make([]model.TypeParam, len(tps))
	for i, tp := range tps {
		c, err := l.rewrite(m, inner, tp.Constraint)
		if err != nil {
			return nil, err
		}
		out[i] = model.TypeParam{Name: tp.Name, Constraint: c}
	}
	return out, nil
}

func (l *localizer) rewrite(m model.Member, inner map[string]bool, s string) (string, error) {
	return rewriteString(s, func(q, n string) (ast.Expr, error) {
		if q == "" {
			return l.ident(m, inner, n)
		}
		return l.qualified(m, q, n)
	})
}

func (l *localizer) ident(m model.Member, inner map[string]bool, n string) (ast.Expr, error) {
	if inner[n] {
		return nil, nil
	}
	if a, ok := l.subst[n]; ok {
		return parseExpr(a)
	}
	if IsPredeclared(n) {
		return nil, nil
	}
	if l.scope.hasLocal(n) || (l.site.Iface.Path == "" && l.site.Declared[n]) {
		if l.site.Iface.Path == "" {
			return nil, nil
		}
		name := l.site.Iface.Name
		if name == "" {
			name = model.AssumedName(l.site.Iface.Path)
		}
		l.use(l.site.Iface)
		return &ast.SelectorExpr{X: ast.NewIdent(name), Sel: ast.NewIdent(n)}, nil
	}
	if l.site.Declared[n] {
		return nil, nil
	}
	return nil, l.unresolved(m, n)
}

func (l *localizer) qualified(m model.Member, q, n string) (ast.Expr, error) {
	if imp, ok := l.scope.importNamed(q); ok {
		name := l.siteName(imp)
		if name == q {
			return nil, nil
		}
		return &ast.SelectorExpr{X: ast.NewIdent(name), Sel: ast.NewIdent(n)}, nil
	}
	if _, ok := l.site.ImportPath(q); ok {
		return nil, nil
	}
	return nil, l.unresolved(m, q+"."+n)
}

// siteName picks the qualifier for a scope import at the site and records
// the import
func (l *localizer) siteName(imp model.Import) string {
	if name, ok := l.site.ImportName(imp.Path); ok {
		return name
	}
	if name, ok := l.renames[imp.Path]; ok {
		return name
	}
	name := imp.Name
	for i := 2; l.taken(name, imp.Path); i++ {
		name = imp.Name + strconv.Itoa(i)
	}
	l.renames[imp.Path] = name
	if name == model.AssumedName(imp.Path) {
		l.use(model.Import{Path: imp.Path})
	} else {
		l.use(model.Import{Name: name, Path: imp.Path})
	}
	return name
}

func (l *localizer) taken(name, path string) bool {
	if p, ok := l.site.ImportPath(name); ok && p != path {
		return true
	}
	for p, n := range l.renames {
		if n == name && p != path {
			return true
		}
	}
	return l.site.Declared[name]
}

func (l *localizer) use(imp model.Import) {
	if imp.Path == "" {
		return
	}
	l.imports = append(l.imports, imp)
}

func (l *localizer) unresolved(m model.Member, sym string) error {
	return diag.Newf(diag.KindResolve, "undefined: %s (used by %s.%s)", sym, l.iface, m.MemberName()).
		At(l.pos).
		WithSuggestion("list it in the interface's //portrait:make import(...) or enable auto_imports").
		WithErr(errors.ErrUnresolved)
}
