// Package gosrc reads the Go packages portrait annotates and writes the
// files it generates for them.
//
// A package is parsed file by file with go/parser; nothing is type checked.
// Directives are found on declaration doc comments:
//
//	//portrait:make                         on an interface type
//	//portrait:fill <generator>             on var _ I = T{}
//	//portrait:derive <I> with <generator>  on a type declaration
//	//portrait:union                        on a struct of pointer variants
package gosrc

import (
	"bytes"
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/logger"
	"github.com/teranos/portrait/model"
)

// File is one parsed source file
type File struct {
	Path    string
	AST     *ast.File
	Src     []byte
	Imports []model.Import
	// Build is the file's //go:build line, or ""
	Build string
	// Generated files contribute declarations but no directives
	Generated bool
}

// TypeDecl is a package-level type declaration
type TypeDecl struct {
	Decl *ast.GenDecl
	Spec *ast.TypeSpec
	File *File
}

// Doc returns the comment groups documenting the declaration
func (t *TypeDecl) Doc() []*ast.CommentGroup {
	var out []*ast.CommentGroup
	if t.Decl.Lparen == token.NoPos && t.Decl.Doc != nil {
		out = append(out, t.Decl.Doc)
	}
	if t.Spec.Doc != nil {
		out = append(out, t.Spec.Doc)
	}
	return out
}

// Package is the parsed view of one directory
type Package struct {
	Dir   string
	Name  string
	Fset  *token.FileSet
	Files []*File
	Types map[string]*TypeDecl
	// Declared holds every package-level identifier
	Declared map[string]bool
}

// Position converts pos to a file position
func (p *Package) Position(pos token.Pos) token.Position {
	return p.Fset.Position(pos)
}

// LoadPackage parses the Go files of dir. Test files, files excluded with
// //go:build ignore and files portrait generated itself are skipped. A
// directory without Go files yields a nil package.
func LoadPackage(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") {
			continue
		}
		if strings.HasPrefix(n, ".") || strings.HasPrefix(n, "_") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	p := &Package{
		Dir:      dir,
		Fset:     token.NewFileSet(),
		Types:    map[string]*TypeDecl{},
		Declared: map[string]bool{},
	}
	for _, n := range names {
		path := filepath.Join(dir, n)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		if IsOutput(src) || capture.IsCompanion(src) {
			continue
		}
		f, err := parseFile(p.Fset, path, src)
		if err != nil {
			return nil, err
		}
		if f.Build == "//go:build ignore" {
			continue
		}
		if p.Name == "" {
			p.Name = f.AST.Name.Name
		} else if f.AST.Name.Name != p.Name {
			return nil, errors.WithHint(
				errors.Newf("%s: package %s, expected %s", path, f.AST.Name.Name, p.Name),
				"keep a single package per directory")
		}
		p.Files = append(p.Files, f)
		p.index(f)
	}
	if len(p.Files) == 0 {
		return nil, nil
	}

	logger.Debugw("Loaded package",
		logger.FieldDir, dir,
		logger.FieldCount, len(p.Files))
	return p, nil
}

func parseFile(fset *token.FileSet, path string, src []byte) (*File, error) {
	af, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "%s", err.Error())
	}
	return &File{
		Path:      path,
		AST:       af,
		Src:       src,
		Imports:   capture.FileImports(af),
		Build:     buildLine(af),
		Generated: ast.IsGenerated(af),
	}, nil
}

// buildLine returns the //go:build line in the file header
func buildLine(f *ast.File) string {
	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			break
		}
		for _, c := range cg.List {
			if constraint.IsGoBuild(c.Text) {
				return strings.TrimSpace(c.Text)
			}
		}
	}
	return ""
}

func (p *Package) index(f *File) {
	for _, decl := range f.AST.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				p.Declared[d.Name.Name] = true
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					p.Declared[s.Name.Name] = true
					p.Types[s.Name.Name] = &TypeDecl{Decl: d, Spec: s, File: f}
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.Name != "_" {
							p.Declared[n.Name] = true
						}
					}
				}
			}
		}
	}
}

// Methods returns the method declarations of the named type in file order
func (p *Package) Methods(typeName string) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for _, f := range p.Files {
		for _, decl := range f.AST.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
				continue
			}
			if name, _ := receiverBase(fd.Recv.List[0].Type); name == typeName {
				out = append(out, fd)
			}
		}
	}
	return out
}

// receiverBase unwraps *T, T[A] and (*T)
func receiverBase(e ast.Expr) (string, bool) {
	pointer := false
	for {
		switch x := e.(type) {
		case *ast.StarExpr:
			pointer = true
			e = x.X
		case *ast.ParenExpr:
			e = x.X
		case *ast.IndexExpr:
			e = x.X
		case *ast.IndexListExpr:
			e = x.X
		case *ast.Ident:
			return x.Name, pointer
		default:
			return "", pointer
		}
	}
}

// fileOf returns the file containing pos
func (p *Package) fileOf(pos token.Pos) *File {
	for _, f := range p.Files {
		if f.AST.FileStart <= pos && pos <= f.AST.FileEnd {
			return f
		}
	}
	return nil
}

// text returns the source of n
func (p *Package) text(n ast.Node) string {
	f := p.fileOf(n.Pos())
	if f == nil {
		return ""
	}
	start := p.Fset.Position(n.Pos()).Offset
	end := p.Fset.Position(n.End()).Offset
	if start < 0 || end > len(f.Src) || start > end {
		return ""
	}
	return string(bytes.TrimSpace(f.Src[start:end]))
}
