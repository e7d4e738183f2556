package capture

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"

	"github.com/teranos/portrait/errors"
)

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true,
	"complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"true": true, "false": true, "iota": true, "nil": true,
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

// IsPredeclared reports whether name is a predeclared Go identifier
func IsPredeclared(name string) bool {
	return predeclared[name]
}

// symbolFunc sees every identifier in a type or value position. qual is the
// package qualifier of a selector, or empty for a bare identifier. The
// returned expression replaces the visited node; return nil to keep it.
type symbolFunc func(qual, name string) (ast.Expr, error)

// parseExpr parses a type or value expression
func parseExpr(s string) (ast.Expr, error) {
	e, err := parser.ParseExpr(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "malformed expression %q: %s", s, err.Error())
	}
	return e, nil
}

// rewriteString parses s, rewrites its symbols and prints the result
func rewriteString(s string, fn symbolFunc) (string, error) {
	if s == "" {
		return "", nil
	}
	e, err := parseExpr(s)
	if err != nil {
		return "", err
	}
	out, err := rewrite(e, fn)
	if err != nil {
		return "", err
	}
	return exprString(out), nil
}

// exprString prints e on one line. Positions are ignored, so nodes from
// different parses can be mixed.
func exprString(e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), e); err != nil {
		return ""
	}
	return buf.String()
}

// walkSymbols visits the symbols of s without changing it
func walkSymbols(s string, visit func(qual, name string) error) error {
	_, err := rewriteString(s, func(q, n string) (ast.Expr, error) {
		return nil, visit(q, n)
	})
	return err
}

func rewrite(e ast.Expr, fn symbolFunc) (ast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	var err error
	sub := func(x ast.Expr) ast.Expr {
		if err != nil || x == nil {
			return x
		}
		var r ast.Expr
		r, err = rewrite(x, fn)
		return r
	}
	fields := func(fl *ast.FieldList) {
		if fl == nil {
			return
		}
		for _, f := range fl.List {
			f.Type = sub(f.Type)
		}
	}

	switch x := e.(type) {
	case *ast.Ident:
		r, ferr := fn("", x.Name)
		if ferr != nil {
			return nil, ferr
		}
		if r != nil {
			return r, nil
		}
		return x, nil
	case *ast.SelectorExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			r, ferr := fn(id.Name, x.Sel.Name)
			if ferr != nil {
				return nil, ferr
			}
			if r != nil {
				return r, nil
			}
			return x, nil
		}
		x.X = sub(x.X)
	case *ast.StarExpr:
		x.X = sub(x.X)
	case *ast.ParenExpr:
		x.X = sub(x.X)
	case *ast.UnaryExpr:
		x.X = sub(x.X)
	case *ast.BinaryExpr:
		x.X = sub(x.X)
		x.Y = sub(x.Y)
	case *ast.ArrayType:
		if _, ok := x.Len.(*ast.Ellipsis); !ok {
			x.Len = sub(x.Len)
		}
		x.Elt = sub(x.Elt)
	case *ast.Ellipsis:
		x.Elt = sub(x.Elt)
	case *ast.MapType:
		x.Key = sub(x.Key)
		x.Value = sub(x.Value)
	case *ast.ChanType:
		x.Value = sub(x.Value)
	case *ast.FuncType:
		fields(x.Params)
		fields(x.Results)
	case *ast.InterfaceType:
		fields(x.Methods)
	case *ast.StructType:
		fields(x.Fields)
	case *ast.IndexExpr:
		x.X = sub(x.X)
		x.Index = sub(x.Index)
	case *ast.IndexListExpr:
		x.X = sub(x.X)
		for i := range x.Indices {
			x.Indices[i] = sub(x.Indices[i])
		}
	case *ast.CallExpr:
		x.Fun = sub(x.Fun)
		for i := range x.Args {
			x.Args[i] = sub(x.Args[i])
		}
	case *ast.CompositeLit:
		x.Type = sub(x.Type)
		for i, elt := range x.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				kv.Value = sub(kv.Value)
				continue
			}
			x.Elts[i] = sub(elt)
		}
	case *ast.SliceExpr:
		x.X = sub(x.X)
		x.Low = sub(x.Low)
		x.High = sub(x.High)
		x.Max = sub(x.Max)
	case *ast.TypeAssertExpr:
		x.X = sub(x.X)
		x.Type = sub(x.Type)
	}
	return e, err
}
