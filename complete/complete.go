package complete

import (
	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/logger"
	"github.com/teranos/portrait/model"
)

// Complete fills the members of iface that impl does not provide. A
// provided member the interface lacks fails the whole completion before
// anything is generated. The input block is not modified.
func Complete(iface *model.Interface, impl *model.ImplBlock, gen Generator) (*model.ImplBlock, error) {
	return run(iface, impl, impl.Provided, gen)
}

// Derive generates a fresh implementation of iface for impl's type
func Derive(iface *model.Interface, impl *model.ImplBlock, gen Generator) (*model.ImplBlock, error) {
	return run(iface, impl, nil, gen)
}

func run(iface *model.Interface, impl *model.ImplBlock, provided []model.Member, gen Generator) (*model.ImplBlock, error) {
	ix, err := model.NewIndex(iface.Members)
	if err != nil {
		return nil, diag.From(err, iface.Pos)
	}
	for _, m := range provided {
		if _, ok := ix.Lookup(m.Kind(), m.MemberName()); !ok {
			return nil, diag.From(errors.UnknownMember(m.MemberName(), m.Kind().String()), m.Position()).
				WithSuggestion("remove it or declare it in " + iface.Name)
		}
	}
	if err := ix.Minus(provided); err != nil {
		return nil, errors.AssertionFailedf("minus after lookup: %v", err)
	}
	ix.Drop(impl.Elsewhere)

	ctx := &Context{Interface: iface, Impl: impl, Layout: impl.Layout}
	var items []model.Item
	for _, m := range ix.Remaining() {
		item, err := generate(ctx, gen, m)
		if err != nil {
			return nil, diag.From(errors.Wrapf(err, "%s.%s", iface.Name, m.MemberName()), impl.Pos)
		}
		items = append(items, *item)
		logger.Debugw("Generated member",
			logger.FieldInterface, iface.Name,
			logger.FieldType, impl.Type.Name,
			logger.FieldMember, m.MemberName(),
			logger.FieldKind, m.Kind().String())
	}

	out := *impl
	out.Items = append(append([]model.Item(nil), impl.Items...), items...)
	out.Constraints = append([]model.Constraint(nil), impl.Constraints...)
	out.Attrs = append([]string(nil), impl.Attrs...)

	if ce, ok := gen.(ConstraintExtender); ok {
		cs, err := ce.ExtendConstraints(ctx)
		if err != nil {
			return nil, diag.From(err, impl.Pos)
		}
		out.Constraints = append(out.Constraints, cs...)
	}
	if ae, ok := gen.(AttrExtender); ok {
		attrs, err := ae.ExtendAttrs(ctx, out.Attrs)
		if err != nil {
			return nil, diag.From(err, impl.Pos)
		}
		out.Attrs = attrs
	}
	return &out, nil
}

func generate(ctx *Context, gen Generator, m model.Member) (*model.Item, error) {
	var (
		item *model.Item
		err  error
	)
	switch x := m.(type) {
	case *model.Const:
		item, err = gen.GenerateConst(ctx, x)
	case *model.Func:
		item, err = gen.GenerateFunc(ctx, x)
	case *model.TypeAlias:
		item, err = gen.GenerateType(ctx, x)
	default:
		return nil, errors.AssertionFailedf("unknown member %T", m)
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.AssertionFailedf("generator returned no item for %s", m.MemberName())
	}
	return item, nil
}

// Mode selects between completing and deriving
type Mode int

const (
	ModeFill Mode = iota
	ModeDerive
)

// Filler receives invoked portraits and runs the requested generator
type Filler struct {
	Generators Lookup
	Mode       Mode
}

// Fill implements capture.Target. args is the generator call, e.g.
// delegate(Inner; p.inner).
func (f *Filler) Fill(p *capture.Portrait, args string, impl *model.ImplBlock) (*model.ImplBlock, error) {
	id, genArgs, err := directive.ParseCall(args)
	if err != nil {
		return nil, diag.From(err, impl.Pos)
	}
	iface, imps, err := p.Localize(impl)
	if err != nil {
		return nil, err
	}
	gen, err := f.Generators.Lookup(id, genArgs)
	if err != nil {
		return nil, diag.From(err, impl.Pos)
	}
	logger.Debugw("Filling",
		logger.FieldInterface, iface.Name,
		logger.FieldType, impl.Type.Name,
		logger.FieldGenerator, id)

	var out *model.ImplBlock
	if f.Mode == ModeDerive {
		out, err = Derive(iface, impl, gen)
	} else {
		out, err = Complete(iface, impl, gen)
	}
	if err != nil {
		return nil, err
	}
	out.AddImports(imps...)
	return out, nil
}
