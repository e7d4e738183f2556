// Package complete fills the members an implementation leaves out.
//
// Complete subtracts the members an implementation provides from the
// interface's member list and asks a Generator for each member that
// remains, in declaration order. Generators can additionally require
// constraints of the implementation and propagate build constraints onto
// the generated file.
package complete

import (
	"github.com/teranos/portrait/model"
)

// Generator synthesizes exactly one declaration per missing member.
// Generators that cannot produce a kind return an errors.Unsupported error.
type Generator interface {
	GenerateConst(ctx *Context, c *model.Const) (*model.Item, error)
	GenerateFunc(ctx *Context, f *model.Func) (*model.Item, error)
	GenerateType(ctx *Context, t *model.TypeAlias) (*model.Item, error)
}

// ConstraintExtender is implemented by generators whose output only
// compiles when additional types implement the interface
type ConstraintExtender interface {
	ExtendConstraints(ctx *Context) ([]model.Constraint, error)
}

// AttrExtender is implemented by generators that add file-level directive
// lines to the output. attrs holds the lines collected so far.
type AttrExtender interface {
	ExtendAttrs(ctx *Context, attrs []string) ([]string, error)
}

// Lookup resolves a generator by id with its argument text
type Lookup interface {
	Lookup(id, args string) (Generator, error)
}
