package gosrc

import (
	"go/ast"

	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// IsUnion reports whether td carries //portrait:union
func IsUnion(td *TypeDecl) bool {
	return len(directive.Find(directive.NameUnion, td.Doc()...)) > 0
}

// LayoutOf returns the field layout of td, or nil when td is not a struct.
// A union's variants are its pointer fields; a variant pointing to a
// non-generic struct of the package exposes that struct's fields, any
// other variant is opaque.
func (p *Package) LayoutOf(td *TypeDecl) (*model.Layout, error) {
	st, ok := td.Spec.Type.(*ast.StructType)
	if !ok {
		if IsUnion(td) {
			return nil, errors.Shapef("//portrait:union needs a struct, %s is not one", td.Spec.Name.Name)
		}
		return nil, nil
	}

	l := &model.Layout{
		TypeName:   td.Spec.Name.Name,
		TypeParams: p.typeParams(td.Spec.TypeParams),
	}
	if td.File.Build != "" {
		l.Attrs = []string{td.File.Build}
	}

	if !IsUnion(td) {
		l.Kind = model.Product
		l.Fields = p.fields(st, l.TypeParams)
		return l, nil
	}

	l.Kind = model.Union
	for _, f := range p.fields(st, l.TypeParams) {
		star, ok := fieldType(st, f.Name).(*ast.StarExpr)
		if !ok {
			return nil, errors.WithHint(
				errors.Shapef("union %s: variant %s is not a pointer", td.Spec.Name.Name, f.Name),
				"declare every variant as a pointer field; exactly one is set")
		}
		v := model.Variant{Name: f.Name, Type: p.text(star.X)}
		if payload, ok := p.localStruct(star.X); ok {
			v.Fields = p.fields(payload, nil)
		} else {
			v.Opaque = true
		}
		l.Variants = append(l.Variants, v)
	}
	if len(l.Variants) == 0 {
		return nil, errors.Shapef("union %s has no variants", td.Spec.Name.Name)
	}
	return l, nil
}

// fields flattens a struct's field list. Embedded fields are named after
// their type; blank fields are skipped.
func (p *Package) fields(st *ast.StructType, tps []model.TypeParam) []model.Field {
	bound := map[string]bool{}
	for _, tp := range tps {
		bound[tp.Name] = true
	}

	var out []model.Field
	for _, field := range st.Fields.List {
		typ := p.text(field.Type)
		id, isIdent := field.Type.(*ast.Ident)
		typeParam := isIdent && bound[id.Name]

		if len(field.Names) == 0 {
			out = append(out, model.Field{Name: embeddedName(field.Type), Type: typ, Embedded: true, TypeParam: typeParam})
			continue
		}
		for _, n := range field.Names {
			if n.Name == "_" {
				continue
			}
			out = append(out, model.Field{Name: n.Name, Type: typ, TypeParam: typeParam})
		}
	}
	return out
}

func fieldType(st *ast.StructType, name string) ast.Expr {
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 && embeddedName(field.Type) == name {
			return field.Type
		}
		for _, n := range field.Names {
			if n.Name == name {
				return field.Type
			}
		}
	}
	return nil
}

// embeddedName is the implicit field name of an embedded type
func embeddedName(e ast.Expr) string {
	for {
		switch x := e.(type) {
		case *ast.StarExpr:
			e = x.X
		case *ast.IndexExpr:
			e = x.X
		case *ast.IndexListExpr:
			e = x.X
		case *ast.SelectorExpr:
			return x.Sel.Name
		case *ast.Ident:
			return x.Name
		default:
			return ""
		}
	}
}

// localStruct resolves a bare identifier to a non-generic struct of the package
func (p *Package) localStruct(e ast.Expr) (*ast.StructType, bool) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return nil, false
	}
	td, ok := p.Types[id.Name]
	if !ok || td.Spec.TypeParams != nil || td.Spec.Assign.IsValid() {
		return nil, false
	}
	st, ok := td.Spec.Type.(*ast.StructType)
	return st, ok
}
