package complete

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// stubGenerator emits one marker declaration per member
type stubGenerator struct {
	calls       []string
	noTypes     bool
	constraints []model.Constraint
	attrs       []string
}

func (g *stubGenerator) GenerateConst(ctx *Context, c *model.Const) (*model.Item, error) {
	g.calls = append(g.calls, "const "+c.Name)
	return &model.Item{Member: c, Decl: ctx.ConstDecl(c, ZeroValue(c.Type))}, nil
}

func (g *stubGenerator) GenerateFunc(ctx *Context, f *model.Func) (*model.Item, error) {
	g.calls = append(g.calls, "func "+f.Name)
	names := ctx.ParamNames(f)
	return &model.Item{Member: f, Decl: ctx.FuncDecl(f, names, []string{ZeroReturn(f)})}, nil
}

func (g *stubGenerator) GenerateType(ctx *Context, t *model.TypeAlias) (*model.Item, error) {
	if g.noTypes {
		return nil, errors.Unsupported("stub", "type")
	}
	g.calls = append(g.calls, "type "+t.Name)
	return &model.Item{Member: t, Decl: ctx.TypeDecl(t, "struct{}")}, nil
}

func (g *stubGenerator) ExtendConstraints(*Context) ([]model.Constraint, error) {
	return g.constraints, nil
}

func (g *stubGenerator) ExtendAttrs(_ *Context, attrs []string) ([]string, error) {
	return append(attrs, g.attrs...), nil
}

func shapeInterface() *model.Interface {
	return &model.Interface{
		Name:       "Shape",
		TypeParams: []model.TypeParam{{Name: "Self", Constraint: "any"}},
		TypeArgs:   []string{"Square"},
		Members: []model.Member{
			&model.Const{Name: "Sides", Type: "int"},
			&model.Func{Name: "Area", Receiver: true, Results: []model.Param{{Type: "float64"}}},
			&model.Func{Name: "Scale", Receiver: true, Params: []model.Param{{Name: "f", Type: "float64"}}},
			&model.TypeAlias{Name: "Unit", TypeParams: []model.TypeParam{{Name: "U", Constraint: "any"}}},
			&model.Func{Name: "New", Params: []model.Param{{Type: "float64"}}, Results: []model.Param{{Type: "Square"}}},
		},
	}
}

func squareImpl(provided ...model.Member) *model.ImplBlock {
	return &model.ImplBlock{
		Type:      model.TypeRef{Name: "Square", Pointer: true, Recv: "s"},
		Interface: model.InterfaceRef{Name: "Shape"},
		Provided:  provided,
		Pos:       token.Position{Filename: "square.go", Line: 3, Column: 1},
	}
}

func memberSet(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Member.Kind().String() + " " + it.Member.MemberName()
	}
	return out
}

func TestComplete_FillsExactlyTheMissingMembers(t *testing.T) {
	gen := &stubGenerator{}
	impl := squareImpl(&model.Func{Name: "Area"})

	out, err := Complete(shapeInterface(), impl, gen)
	require.NoError(t, err)

	assert.Equal(t, []string{"const Sides", "func Scale", "type Unit", "func New"}, memberSet(out.Items))
	assert.Equal(t, gen.calls, memberSet(out.Items))
	assert.Empty(t, impl.Items, "input block is not modified")
}

func TestComplete_UnknownMemberGeneratesNothing(t *testing.T) {
	gen := &stubGenerator{}
	bogus := &model.Func{Name: "Perimeter", Pos: token.Position{Filename: "square.go", Line: 20, Column: 1}}

	_, err := Complete(shapeInterface(), squareImpl(&model.Func{Name: "Area"}, bogus), gen)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownMemberError(err))
	assert.Contains(t, err.Error(), "square.go:20:1")
	assert.Empty(t, gen.calls)
}

func TestComplete_KindMismatchIsUnknown(t *testing.T) {
	_, err := Complete(shapeInterface(), squareImpl(&model.Const{Name: "Area"}), &stubGenerator{})
	require.Error(t, err)
	assert.True(t, errors.IsUnknownMemberError(err))
}

func TestComplete_Idempotent(t *testing.T) {
	impl := squareImpl(&model.Const{Name: "Sides"})
	a, err := Complete(shapeInterface(), impl, &stubGenerator{})
	require.NoError(t, err)
	b, err := Complete(shapeInterface(), impl, &stubGenerator{})
	require.NoError(t, err)
	assert.Equal(t, a.Items, b.Items)
}

func TestComplete_UnsupportedKindFails(t *testing.T) {
	_, err := Complete(shapeInterface(), squareImpl(), &stubGenerator{noTypes: true})
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedError(err))
	assert.Contains(t, err.Error(), "square.go:3:1")
	assert.Contains(t, err.Error(), "Shape.Unit")
}

func TestComplete_ElsewhereIsDroppedLeniently(t *testing.T) {
	impl := squareImpl()
	impl.Elsewhere = []model.Member{&model.Func{Name: "Area"}, &model.Func{Name: "String"}}

	out, err := Complete(shapeInterface(), impl, &stubGenerator{})
	require.NoError(t, err)
	assert.NotContains(t, memberSet(out.Items), "func Area")
	assert.Len(t, out.Items, 4)
}

func TestComplete_Extenders(t *testing.T) {
	gen := &stubGenerator{
		constraints: []model.Constraint{{Type: "T", Interface: "Shape[T]", TypeParam: true}},
		attrs:       []string{"//go:build linux"},
	}
	impl := squareImpl()
	impl.Attrs = []string{"//go:build amd64"}

	out, err := Complete(shapeInterface(), impl, gen)
	require.NoError(t, err)
	assert.Equal(t, gen.constraints, out.Constraints)
	assert.Equal(t, []string{"//go:build amd64", "//go:build linux"}, out.Attrs)
	assert.Equal(t, []string{"//go:build amd64"}, impl.Attrs)
}

func TestDerive_IgnoresProvided(t *testing.T) {
	impl := squareImpl(&model.Func{Name: "Area"})
	out, err := Derive(shapeInterface(), impl, &stubGenerator{})
	require.NoError(t, err)
	assert.Len(t, out.Items, 5)
}

func TestStubOutput(t *testing.T) {
	out, err := Complete(shapeInterface(), squareImpl(), &stubGenerator{})
	require.NoError(t, err)

	assert.Equal(t, "const SquareSides int = 0\n", out.Items[0].Decl)
	assert.Equal(t, "func (s *Square) Area() float64 {\n\treturn 0\n}\n", out.Items[1].Decl)
	assert.Equal(t, "func (s *Square) Scale(f float64) {\n\treturn\n}\n", out.Items[2].Decl)
	assert.Equal(t, "type SquareUnit[U any] = struct{}\n", out.Items[3].Decl)
	assert.Equal(t, "func SquareNew(arg0 float64) Square {\n\treturn *new(Square)\n}\n", out.Items[4].Decl)
}

type stubLookup map[string]Generator

func (l stubLookup) Lookup(id, _ string) (Generator, error) {
	if g, ok := l[id]; ok {
		return g, nil
	}
	return nil, errors.Parsef("unknown generator %q", id)
}

func TestFiller_LocalizesAndCompletes(t *testing.T) {
	iface, err := capture.ParseInterface("type Shape[Self any] interface {\n\tArea() Measure\n\tClone() Self\n}", token.Position{Filename: "shape.go", Line: 1})
	require.NoError(t, err)
	p := &capture.Portrait{
		Interface: iface,
		Scope:     &capture.Scope{Name: "shape_portrait", Locals: []string{"Measure"}},
	}
	impl := &model.ImplBlock{
		Type:      model.TypeRef{Name: "Square"},
		Interface: model.InterfaceRef{Qualifier: "geo", Name: "Shape"},
		Site: model.Site{
			Imports: []model.Import{{Path: "example.com/geo"}},
			Iface:   model.Import{Path: "example.com/geo"},
		},
	}

	gen := &stubGenerator{}
	f := &Filler{Generators: stubLookup{"stub": gen}}
	out, err := f.Fill(p, "stub", impl)
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "func (s Square) Area() geo.Measure {\n\treturn *new(geo.Measure)\n}\n", out.Items[0].Decl)
	assert.Equal(t, "func (s Square) Clone() Square {\n\treturn *new(Square)\n}\n", out.Items[1].Decl)
	assert.Equal(t, []model.Import{{Path: "example.com/geo"}}, out.Imports)

	_, err = f.Fill(p, "nope(1)", impl)
	require.Error(t, err)
	assert.True(t, errors.IsParseError(err))
}
