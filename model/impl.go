package model

import (
	"go/token"
	"sort"
	"strings"
)

// TypeRef names the implementing type
type TypeRef struct {
	Name       string
	TypeParams []TypeParam
	Pointer    bool
	Recv       string
}

// Expr renders the type with its parameters, e.g. Pair[A, B]
func (t TypeRef) Expr() string {
	return t.Name + FormatTypeArgs(t.TypeParams)
}

// ReceiverType renders the receiver type, e.g. *Pair[A, B]
func (t TypeRef) ReceiverType() string {
	if t.Pointer {
		return "*" + t.Expr()
	}
	return t.Expr()
}

// InterfaceRef is an interface reference as written at an implementation site
type InterfaceRef struct {
	Qualifier string
	Name      string
	TypeArgs  []string
}

func (r InterfaceRef) String() string {
	s := r.Name
	if r.Qualifier != "" {
		s = r.Qualifier + "." + s
	}
	if len(r.TypeArgs) > 0 {
		s += "[" + strings.Join(r.TypeArgs, ", ") + "]"
	}
	return s
}

// Import is one import spec. Name is empty when the package name is
// implied by the path.
type Import struct {
	Name string
	Path string
}

// Constraint requires Type to implement Interface
type Constraint struct {
	Type      string
	Interface string
	// TypeParam is set when Type is a type parameter of the implementing type
	TypeParam bool
}

func (c Constraint) String() string {
	return c.Type + " implements " + c.Interface
}

// Item is one synthesized declaration
type Item struct {
	Member Member
	Decl   string
}

// Site describes the lexical scope of an implementation
type Site struct {
	Dir     string
	PkgName string
	// Imports of the file holding the implementation
	Imports []Import
	// Declared holds package-level identifiers of the implementing package
	Declared map[string]bool
	// Iface is how the interface's package is imported; zero when it is
	// the implementing package itself
	Iface Import
}

// ImportName returns the name under which path is imported at the site
func (s *Site) ImportName(path string) (string, bool) {
	for _, imp := range s.Imports {
		if imp.Path == path {
			if imp.Name != "" {
				return imp.Name, true
			}
			return AssumedName(path), true
		}
	}
	return "", false
}

// ImportPath returns the path imported under name at the site
func (s *Site) ImportPath(name string) (string, bool) {
	for _, imp := range s.Imports {
		n := imp.Name
		if n == "" {
			n = AssumedName(imp.Path)
		}
		if n == name {
			return imp.Path, true
		}
	}
	return "", false
}

// ImplBlock is a type's (partial) realization of an interface
type ImplBlock struct {
	Type      TypeRef
	Interface InterfaceRef
	// Provided members have explicit bodies in the implementation region
	Provided []Member
	// Elsewhere holds members declared outside the region; they are not
	// synthesized but are not checked against the interface either
	Elsewhere   []Member
	Items       []Item
	Constraints []Constraint
	// Attrs are file-level directive lines (build constraints) for the output
	Attrs   []string
	Imports []Import
	Layout  *Layout
	Site    Site
	Pos     token.Position
}

// AddImports merges imps into the block, dropping duplicates
func (b *ImplBlock) AddImports(imps ...Import) {
	b.Imports = MergeImports(b.Imports, imps...)
}

// MergeImports returns base plus imps without duplicates, sorted by path
func MergeImports(base []Import, imps ...Import) []Import {
	seen := make(map[Import]bool, len(base)+len(imps))
	var out []Import
	for _, imp := range append(append([]Import(nil), base...), imps...) {
		if imp.Path == "" || seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// AssumedName guesses a package name from its import path the way goimports
// does: the last element without a major version suffix, "go-" prefix or
// ".vN" suffix.
func AssumedName(path string) string {
	elems := strings.Split(path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
