package capture

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/version"
)

// CompanionSuffix names companion files: shape.go -> shape_portrait.go
const CompanionSuffix = "_portrait.go"

const (
	generatedHeader = "// Code generated by portrait make; DO NOT EDIT."
	formatPrefix    = "// portrait format "
)

// Companion is a generated file holding the templates captured from one
// source file
type Companion struct {
	PkgName   string
	Format    string
	Templates []*Template

	// file name when read from disk
	path string
}

// CompanionPath returns the companion file path for a source file
func CompanionPath(source string) string {
	return strings.TrimSuffix(source, ".go") + CompanionSuffix
}

// Lookup finds a template by interface name
func (c *Companion) Lookup(name string) (*Template, bool) {
	for _, t := range c.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Render produces the companion file source
func (c *Companion) Render() ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintln(&b, generatedHeader)
	fmt.Fprintf(&b, "%s%s\n\n", formatPrefix, version.FormatVersion)
	fmt.Fprintf(&b, "package %s\n", c.PkgName)

	for _, t := range c.Templates {
		origin := "-"
		if t.Origin.Filename != "" {
			origin = filepath.Base(t.Origin.Filename)
		}
		if t.Origin.Filename != "" && t.Origin.Line > 0 {
			origin += ":" + strconv.Itoa(t.Origin.Line)
		}
		fmt.Fprintf(&b, "\n%s%s %s %s %s\n", directive.Prefix, directive.NameTemplate, t.Name, t.Alias, origin)
		fmt.Fprintf(&b, "const %s = %s\n", t.Alias, quote(t.Text))

		scope := t.Scope
		if scope == nil {
			scope = &Scope{Name: ScopeName(t.Name)}
		}
		fmt.Fprintf(&b, "\n%s%s %s\n", directive.Prefix, directive.NameScope, t.Name)
		fmt.Fprintf(&b, "const %s = %s\n", scope.Name, quote(scope.Text()))
	}

	out, err := format.Source(b.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "format companion")
	}
	return out, nil
}

func quote(s string) string {
	if strings.ContainsAny(s, "`\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

// IsCompanion reports whether src starts with the companion header
func IsCompanion(src []byte) bool {
	return bytes.HasPrefix(src, []byte(generatedHeader))
}

// ParseCompanion parses a companion file. Templates keep their origin
// relative to the companion's directory.
func ParseCompanion(path string, src []byte) (*Companion, error) {
	if !IsCompanion(src) {
		return nil, errors.Newf("%s is not a portrait companion file", path)
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "%s: %s", path, err.Error())
	}

	c := &Companion{PkgName: f.Name.Name}
	for _, cg := range f.Comments {
		for _, cm := range cg.List {
			if strings.HasPrefix(cm.Text, formatPrefix) {
				c.Format = strings.TrimSpace(strings.TrimPrefix(cm.Text, formatPrefix))
			}
		}
	}
	if err := checkFormat(path, c.Format); err != nil {
		return nil, err
	}

	consts := map[string]string{}
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			if len(vs.Names) != 1 || len(vs.Values) != 1 {
				continue
			}
			lit, ok := vs.Values[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			v, err := strconv.Unquote(lit.Value)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrParse, "%s: %s", path, err.Error())
			}
			consts[vs.Names[0].Name] = v
		}
	}

	dir := filepath.Dir(path)
	scopes := map[string]*Scope{}
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST || len(gd.Specs) != 1 {
			continue
		}
		constName := gd.Specs[0].(*ast.ValueSpec).Names[0].Name
		for _, dv := range directive.FromGroup(gd.Doc) {
			fields := strings.Fields(dv.Args)
			switch dv.Name {
			case directive.NameTemplate:
				if len(fields) < 2 || fields[1] != constName {
					return nil, errors.Wrapf(errors.ErrParse, "%s: malformed template directive %q", path, dv.Args)
				}
				t := &Template{Name: fields[0], Alias: fields[1], Text: consts[constName], PkgName: c.PkgName}
				if len(fields) > 2 {
					t.Origin = parseOrigin(dir, fields[2])
				}
				c.Templates = append(c.Templates, t)
			case directive.NameScope:
				if len(fields) != 1 {
					return nil, errors.Wrapf(errors.ErrParse, "%s: malformed scope directive %q", path, dv.Args)
				}
				s, err := ParseScope(constName, consts[constName])
				if err != nil {
					return nil, err
				}
				scopes[fields[0]] = s
			}
		}
	}

	for _, t := range c.Templates {
		t.Scope = scopes[t.Name]
		if t.Scope == nil {
			t.Scope = &Scope{Name: ScopeName(t.Name)}
		}
	}
	return c, nil
}

func parseOrigin(dir, s string) token.Position {
	if s == "-" {
		return token.Position{}
	}
	file, line, ok := strings.Cut(s, ":")
	pos := token.Position{Filename: filepath.Join(dir, file)}
	if ok {
		pos.Line, _ = strconv.Atoi(line)
		pos.Column = 1
	}
	return pos
}

func checkFormat(path, format string) error {
	if format == "" {
		return errors.Wrapf(errors.ErrIncompatible, "%s has no format version", path)
	}
	v, err := semver.NewVersion(format)
	if err != nil {
		return errors.Wrapf(errors.ErrIncompatible, "%s: invalid format version %q", path, format)
	}
	c, err := semver.NewConstraint(version.FormatConstraint)
	if err != nil {
		return errors.Wrap(err, "format constraint")
	}
	if !c.Check(v) {
		return errors.WithHint(
			errors.Wrapf(errors.ErrIncompatible, "%s uses format %s, this portrait reads %s", path, format, version.FormatConstraint),
			"regenerate it with portrait make")
	}
	return nil
}
