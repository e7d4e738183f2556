// Package fielddelegate implements derive_delegate: every operation is
// forwarded to the same interface on each field of the implementing type,
// and the per-field results are combined into one.
//
// Results are combined by the first rule that applies:
//
//   - a single field returns its call's result directly, unless the
//     operation returns Self
//   - operations without results call every field for effect
//   - operations returning Self build a new value from the field results,
//     even for a single field: the field's method returns the field type,
//     so its result is wrapped as T{F: call} rather than returned as is
//   - a configured reduce folds the results left to right
//
// Anything else is an aggregation error. Operations whose last result is
// error stop at the first failing field.
//
// Union types (structs marked //portrait:union) dispatch on the variant
// that is set and delegate to that variant's fields only.
package fielddelegate

import (
	"strings"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// Name is the generator id and the attribute name of its options
const Name = "derive_delegate"

// Generator is the field delegation generator
type Generator struct{}

// New returns a field delegation generator
func New() *Generator {
	return &Generator{}
}

var (
	_ complete.Generator          = (*Generator)(nil)
	_ complete.ConstraintExtender = (*Generator)(nil)
	_ complete.AttrExtender       = (*Generator)(nil)
)

func (g *Generator) GenerateConst(_ *complete.Context, c *model.Const) (*model.Item, error) {
	return nil, errors.WithHint(errors.Unsupported(Name, "const"),
		"a constant has no per-field meaning, declare "+c.Name+" yourself")
}

func (g *Generator) GenerateType(_ *complete.Context, t *model.TypeAlias) (*model.Item, error) {
	return nil, errors.WithHint(errors.Unsupported(Name, "type"),
		"a type alias has no per-field meaning, declare "+t.Name+" yourself")
}

func (g *Generator) GenerateFunc(ctx *complete.Context, f *model.Func) (*model.Item, error) {
	opts, err := parseOptions(f)
	if err != nil {
		return nil, err
	}
	if opts.try && !f.ReturnsError() {
		return nil, errors.Shapef("try needs %s to return error as its last result", f.Name)
	}
	if opts.ctor != "" && len(f.ValueResults()) == 0 {
		return nil, errors.Shapef("try=%s needs %s to return a value besides error", opts.ctor, f.Name)
	}
	if ctx.Layout == nil {
		return nil, errors.Shapef("%s needs a struct type, %s has no field layout", Name, ctx.Impl.Type.Name)
	}

	s := &synth{
		ctx:   ctx,
		f:     f,
		opts:  opts,
		names: ctx.ParamNames(f),
	}
	if f.Receiver {
		s.recv = ctx.Receiver()
	}

	var body []string
	switch ctx.Layout.Kind {
	case model.Union:
		body, err = s.union(ctx.Layout)
	default:
		body, err = s.product(ctx.Layout)
	}
	if err != nil {
		return nil, err
	}
	return &model.Item{Member: f, Decl: ctx.FuncDecl(f, s.names, body)}, nil
}

// ExtendConstraints requires every field type to implement the interface
func (g *Generator) ExtendConstraints(ctx *complete.Context) ([]model.Constraint, error) {
	if ctx.Layout == nil {
		return nil, nil
	}
	var out []model.Constraint
	seen := map[string]bool{}
	add := func(typ string, typeParam bool) {
		if seen[typ] {
			return
		}
		seen[typ] = true
		out = append(out, model.Constraint{Type: typ, Interface: ctx.InterfaceFor(typ), TypeParam: typeParam})
	}
	for _, f := range ctx.Layout.Fields {
		add(f.Type, f.TypeParam)
	}
	for _, v := range ctx.Layout.Variants {
		if v.Opaque {
			add(v.Type, false)
			continue
		}
		for _, f := range v.Fields {
			add(f.Type, f.TypeParam)
		}
	}
	return out, nil
}

// ExtendAttrs carries the build constraint of the file declaring the type
func (g *Generator) ExtendAttrs(ctx *complete.Context, attrs []string) ([]string, error) {
	if ctx.Layout == nil {
		return attrs, nil
	}
	out := append([]string(nil), attrs...)
	for _, a := range ctx.Layout.Attrs {
		if !contains(out, a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l != "" {
			l = "\t" + l
		}
		out[i] = l
	}
	return out
}

func typeList(ps []model.Param) string {
	types := make([]string, len(ps))
	for i, p := range ps {
		types[i] = p.Type
	}
	return strings.Join(types, ", ")
}
