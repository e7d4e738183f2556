package fielddelegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

func contextFor(typ model.TypeRef, layout *model.Layout) *complete.Context {
	return &complete.Context{
		Interface: &model.Interface{
			Name:       "Value",
			TypeParams: []model.TypeParam{{Name: "Self", Constraint: "any"}},
			TypeArgs:   []string{typ.Expr()},
		},
		Impl: &model.ImplBlock{
			Type:      typ,
			Interface: model.InterfaceRef{Name: "Value"},
			Layout:    layout,
		},
		Layout: layout,
	}
}

func product(name string, fields ...model.Field) *complete.Context {
	return contextFor(model.TypeRef{Name: name}, &model.Layout{Kind: model.Product, TypeName: name, Fields: fields})
}

func pair() *complete.Context {
	return product("Pair", model.Field{Name: "A", Type: "Num"}, model.Field{Name: "B", Type: "Text"})
}

func self(typ string) model.Param {
	return model.Param{Type: typ, Self: model.SelfValue}
}

func attr(args string) []model.Attr {
	return []model.Attr{{Name: Name, Args: args}}
}

func generate(t *testing.T, ctx *complete.Context, f *model.Func) string {
	t.Helper()
	item, err := New().GenerateFunc(ctx, f)
	require.NoError(t, err)
	assert.Same(t, f, item.Member)
	return item.Decl
}

func TestSingleFieldIsOneDirectCall(t *testing.T) {
	ctx := product("Wrapper", model.Field{Name: "Inner", Type: "Num"})

	tests := []struct {
		name string
		f    *model.Func
		want string
	}{
		{
			name: "value result",
			f:    &model.Func{Name: "Describe", Receiver: true, Results: []model.Param{{Type: "string"}}},
			want: "func (w Wrapper) Describe() string {\n\treturn w.Inner.Describe()\n}\n",
		},
		{
			name: "unit",
			f:    &model.Func{Name: "Reset", Receiver: true},
			want: "func (w Wrapper) Reset() {\n\tw.Inner.Reset()\n}\n",
		},
		{
			name: "fallible",
			f:    &model.Func{Name: "Len", Receiver: true, Results: []model.Param{{Type: "int"}, {Type: "error"}}},
			want: "func (w Wrapper) Len() (int, error) {\n\treturn w.Inner.Len()\n}\n",
		},
		{
			name: "no reduce needed",
			f:    &model.Func{Name: "Weight", Receiver: true, Results: []model.Param{{Type: "float64"}}},
			want: "func (w Wrapper) Weight() float64 {\n\treturn w.Inner.Weight()\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generate(t, ctx, tt.f))
		})
	}
}

func TestSingleFieldSelfStillRebuilds(t *testing.T) {
	ctx := product("Wrapper", model.Field{Name: "Inner", Type: "Num"})
	f := &model.Func{Name: "Clone", Receiver: true, Results: []model.Param{self("Wrapper")}}
	assert.Equal(t, "func (w Wrapper) Clone() Wrapper {\n\treturn Wrapper{Inner: w.Inner.Clone()}\n}\n", generate(t, ctx, f))
}

func TestUnitCallsEveryField(t *testing.T) {
	ctx := product("Triple",
		model.Field{Name: "A", Type: "Num"},
		model.Field{Name: "B", Type: "Num"},
		model.Field{Name: "C", Type: "Text"})
	f := &model.Func{Name: "Reset", Receiver: true}

	assert.Equal(t, "func (t Triple) Reset() {\n\tt.A.Reset()\n\tt.B.Reset()\n\tt.C.Reset()\n}\n", generate(t, ctx, f))
}

func TestSelfReconstructs(t *testing.T) {
	f := &model.Func{Name: "Clone", Receiver: true, Results: []model.Param{self("Pair")}}
	assert.Equal(t, "func (p Pair) Clone() Pair {\n\treturn Pair{A: p.A.Clone(), B: p.B.Clone()}\n}\n", generate(t, pair(), f))
}

func TestSelfPointerResult(t *testing.T) {
	f := &model.Func{Name: "Dup", Receiver: true, Results: []model.Param{{Type: "*Pair", Self: model.SelfPointer}}}
	assert.Equal(t, "func (p Pair) Dup() *Pair {\n\treturn &Pair{A: *p.A.Dup(), B: *p.B.Dup()}\n}\n", generate(t, pair(), f))
}

func TestReduceOperator(t *testing.T) {
	f := &model.Func{
		Name:     "Equal",
		Receiver: true,
		Params:   []model.Param{{Name: "other", Type: "Pair", Self: model.SelfValue}},
		Results:  []model.Param{{Type: "bool"}},
		Attrs:    attr("reduce=&&"),
	}
	assert.Equal(t, "func (p Pair) Equal(other Pair) bool {\n\treturn p.A.Equal(other.A) && p.B.Equal(other.B)\n}\n", generate(t, pair(), f))
}

func TestReduceFunctionWithBase(t *testing.T) {
	f := &model.Func{
		Name:     "Weight",
		Receiver: true,
		Results:  []model.Param{{Type: "float64"}},
		Attrs:    attr(`reduce='func(x, y float64) float64 { return x * y }' reduce_base=1`),
	}
	assert.Equal(t, "func (p Pair) Weight() float64 {\n"+
		"\treduce := func(x, y float64) float64 { return x * y }\n"+
		"\treturn reduce(reduce(1, p.A.Weight()), p.B.Weight())\n"+
		"}\n", generate(t, pair(), f))
}

func TestReduceNamedFunction(t *testing.T) {
	f := &model.Func{Name: "Weight", Receiver: true, Results: []model.Param{{Type: "float64"}}, Attrs: attr("reduce=max")}
	assert.Equal(t, "func (p Pair) Weight() float64 {\n\treturn max(p.A.Weight(), p.B.Weight())\n}\n", generate(t, pair(), f))
}

func TestReduceBinaryBaseIsParenthesized(t *testing.T) {
	f := &model.Func{Name: "Ok", Receiver: true, Results: []model.Param{{Type: "bool"}}, Attrs: attr(`reduce=&& "reduce_base=a || b"`)}
	assert.Equal(t, "func (p Pair) Ok() bool {\n\treturn (a || b) && p.A.Ok() && p.B.Ok()\n}\n", generate(t, pair(), f))
}

func TestAmbiguousAggregation(t *testing.T) {
	f := &model.Func{Name: "Weight", Receiver: true, Results: []model.Param{{Type: "float64"}}}
	_, err := New().GenerateFunc(pair(), f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAggregation))
	assert.Contains(t, err.Error(), "float64")
	require.NotEmpty(t, errors.GetAllHints(err))
	assert.Contains(t, errors.GetAllHints(err)[0], "reduce")
}

func TestReduceWithoutFieldsNeedsBase(t *testing.T) {
	ctx := product("Empty")
	f := &model.Func{Name: "Weight", Receiver: true, Results: []model.Param{{Type: "float64"}}, Attrs: attr("reduce=+")}
	_, err := New().GenerateFunc(ctx, f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAggregation))

	f.Attrs = attr("reduce=+ reduce_base=0")
	assert.Equal(t, "func (e Empty) Weight() float64 {\n\treturn 0\n}\n", generate(t, ctx, f))
}

func TestFallibleSelf(t *testing.T) {
	f := &model.Func{Name: "Normalize", Receiver: true, Results: []model.Param{self("Pair"), {Type: "error"}}}
	assert.Equal(t, "func (p Pair) Normalize() (Pair, error) {\n"+
		"\ta, err := p.A.Normalize()\n"+
		"\tif err != nil {\n"+
		"\t\treturn *new(Pair), err\n"+
		"\t}\n"+
		"\tb, err := p.B.Normalize()\n"+
		"\tif err != nil {\n"+
		"\t\treturn *new(Pair), err\n"+
		"\t}\n"+
		"\treturn Pair{A: a, B: b}, nil\n"+
		"}\n", generate(t, pair(), f))
}

func TestFallibleReduceWithConstructor(t *testing.T) {
	f := &model.Func{
		Name:     "Size",
		Receiver: true,
		Results:  []model.Param{{Type: "int"}, {Type: "error"}},
		Attrs:    attr("reduce=+ try=checked"),
	}
	assert.Equal(t, "func (p Pair) Size() (int, error) {\n"+
		"\ta, err := p.A.Size()\n"+
		"\tif err != nil {\n"+
		"\t\treturn 0, err\n"+
		"\t}\n"+
		"\tb, err := p.B.Size()\n"+
		"\tif err != nil {\n"+
		"\t\treturn 0, err\n"+
		"\t}\n"+
		"\treturn checked(a + b), nil\n"+
		"}\n", generate(t, pair(), f))
}

func TestFallibleUnit(t *testing.T) {
	f := &model.Func{Name: "Close", Receiver: true, Results: []model.Param{{Type: "error"}}}
	assert.Equal(t, "func (p Pair) Close() error {\n"+
		"\tif err := p.A.Close(); err != nil {\n"+
		"\t\treturn err\n"+
		"\t}\n"+
		"\tif err := p.B.Close(); err != nil {\n"+
		"\t\treturn err\n"+
		"\t}\n"+
		"\treturn nil\n"+
		"}\n", generate(t, pair(), f))
}

func TestFallibleLocalsAvoidParameters(t *testing.T) {
	f := &model.Func{
		Name:     "Scale",
		Receiver: true,
		Params:   []model.Param{{Name: "a", Type: "float64"}, {Name: "err", Type: "error"}},
		Results:  []model.Param{self("Pair"), {Type: "error"}},
	}
	decl := generate(t, pair(), f)
	assert.Contains(t, decl, "a1, err1 := p.A.Scale(a, err)\n")
	assert.Contains(t, decl, "return Pair{A: a1, B: b}, nil\n")
}

func TestTryRequiresError(t *testing.T) {
	f := &model.Func{Name: "Size", Receiver: true, Results: []model.Param{{Type: "int"}}, Attrs: attr("try reduce=+")}
	_, err := New().GenerateFunc(pair(), f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func TestSelfParameters(t *testing.T) {
	f := &model.Func{
		Name:     "CopyFrom",
		Receiver: true,
		Params:   []model.Param{{Name: "src", Type: "*Pair", Self: model.SelfPointer}, {Name: "deep", Type: "bool"}},
	}
	assert.Equal(t, "func (p Pair) CopyFrom(src *Pair, deep bool) {\n\tp.A.CopyFrom(&src.A, deep)\n\tp.B.CopyFrom(&src.B, deep)\n}\n", generate(t, pair(), f))

	variadic := &model.Func{Name: "Merge", Receiver: true, Params: []model.Param{{Name: "others", Type: "Pair", Self: model.SelfValue, Variadic: true}}}
	_, err := New().GenerateFunc(pair(), variadic)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func TestVariadicPassthrough(t *testing.T) {
	f := &model.Func{Name: "Log", Receiver: true, Params: []model.Param{{Name: "args", Type: "any", Variadic: true}}}
	assert.Equal(t, "func (p Pair) Log(args ...any) {\n\tp.A.Log(args...)\n\tp.B.Log(args...)\n}\n", generate(t, pair(), f))
}

func TestStaticOperation(t *testing.T) {
	ctx := product("Pair", model.Field{Name: "A", Type: "Num"}, model.Field{Name: "B", Type: "geo.Box[int]"})
	f := &model.Func{Name: "Zero", Results: []model.Param{self("Pair")}}
	assert.Equal(t, "func PairZero() Pair {\n\treturn Pair{A: NumZero(), B: geo.BoxZero[int]()}\n}\n", generate(t, ctx, f))
}

func TestStaticOperationOnTypeParamField(t *testing.T) {
	ctx := contextFor(
		model.TypeRef{Name: "Box", TypeParams: []model.TypeParam{{Name: "T", Constraint: "any"}}},
		&model.Layout{Kind: model.Product, TypeName: "Box", Fields: []model.Field{{Name: "V", Type: "T", TypeParam: true}}},
	)
	_, err := New().GenerateFunc(ctx, &model.Func{Name: "Zero", Results: []model.Param{self("Box[T]")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func shapeUnion() *complete.Context {
	return contextFor(model.TypeRef{Name: "Shape"}, &model.Layout{
		Kind:     model.Union,
		TypeName: "Shape",
		Variants: []model.Variant{
			{Name: "Circle", Type: "Circle", Fields: []model.Field{{Name: "R", Type: "Num"}}},
			{Name: "Label", Type: "Text", Opaque: true},
		},
	})
}

func TestUnionDispatch(t *testing.T) {
	f := &model.Func{Name: "Print", Receiver: true}
	assert.Equal(t, "func (s Shape) Print() {\n"+
		"\tswitch {\n"+
		"\tcase s.Circle != nil:\n"+
		"\t\ts.Circle.R.Print()\n"+
		"\tcase s.Label != nil:\n"+
		"\t\ts.Label.Print()\n"+
		"\t}\n"+
		"}\n", generate(t, shapeUnion(), f))
}

func TestUnionSelfAndPanic(t *testing.T) {
	f := &model.Func{Name: "Clone", Receiver: true, Results: []model.Param{self("Shape")}}
	assert.Equal(t, "func (s Shape) Clone() Shape {\n"+
		"\tswitch {\n"+
		"\tcase s.Circle != nil:\n"+
		"\t\treturn Shape{Circle: &Circle{R: s.Circle.R.Clone()}}\n"+
		"\tcase s.Label != nil:\n"+
		"\t\tv := s.Label.Clone()\n"+
		"\t\treturn Shape{Label: &v}\n"+
		"\t}\n"+
		"\tpanic(\"Shape.Clone: no variant set\")\n"+
		"}\n", generate(t, shapeUnion(), f))
}

func TestUnionShapeRestrictions(t *testing.T) {
	_, err := New().GenerateFunc(shapeUnion(), &model.Func{Name: "Zero", Results: []model.Param{self("Shape")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShape))
	assert.Contains(t, err.Error(), "needs a receiver")

	_, err = New().GenerateFunc(shapeUnion(), &model.Func{
		Name:     "Equal",
		Receiver: true,
		Params:   []model.Param{{Name: "other", Type: "Shape", Self: model.SelfValue}},
		Results:  []model.Param{{Type: "bool"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func TestUnionVariantAggregationError(t *testing.T) {
	ctx := contextFor(model.TypeRef{Name: "Shape"}, &model.Layout{
		Kind: model.Union,
		Variants: []model.Variant{
			{Name: "Rect", Type: "Rect", Fields: []model.Field{{Name: "W", Type: "Num"}, {Name: "H", Type: "Num"}}},
		},
	})
	_, err := New().GenerateFunc(ctx, &model.Func{Name: "Area", Receiver: true, Results: []model.Param{{Type: "float64"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAggregation))
	assert.Contains(t, err.Error(), "variant Rect")
}

func TestUnsupportedKinds(t *testing.T) {
	_, err := New().GenerateConst(pair(), &model.Const{Name: "Max", Type: "int"})
	assert.True(t, errors.IsUnsupportedError(err))

	_, err = New().GenerateType(pair(), &model.TypeAlias{Name: "Elem"})
	assert.True(t, errors.IsUnsupportedError(err))
}

func TestNoLayout(t *testing.T) {
	ctx := contextFor(model.TypeRef{Name: "Celsius"}, nil)
	_, err := New().GenerateFunc(ctx, &model.Func{Name: "Reset", Receiver: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func TestOptionErrors(t *testing.T) {
	tests := []struct {
		name  string
		attrs []model.Attr
		want  string
	}{
		{"twice", []model.Attr{{Name: Name, Args: "reduce=+"}, {Name: Name, Args: "reduce=*"}}, `argument "reduce" cannot be set twice`},
		{"unknown", attr("frob=1"), `unknown derive_delegate option "frob"`},
		{"base alone", attr("reduce_base=0"), "reduce_base without reduce"},
		{"empty reduce", attr("reduce="), "reduce needs"},
		{"bad quote", attr("reduce='+"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &model.Func{Name: "Weight", Receiver: true, Results: []model.Param{{Type: "float64"}}, Attrs: tt.attrs}
			_, err := New().GenerateFunc(pair(), f)
			require.Error(t, err)
			assert.True(t, errors.IsParseError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOtherAttrsAreIgnored(t *testing.T) {
	f := &model.Func{
		Name:     "Reset",
		Receiver: true,
		Attrs:    []model.Attr{{Name: "log", Args: "whatever=1"}},
	}
	assert.Equal(t, "func (p Pair) Reset() {\n\tp.A.Reset()\n\tp.B.Reset()\n}\n", generate(t, pair(), f))
}

func TestExtendConstraints(t *testing.T) {
	ctx := contextFor(
		model.TypeRef{Name: "Pair", TypeParams: []model.TypeParam{{Name: "T", Constraint: "any"}}},
		&model.Layout{Kind: model.Product, Fields: []model.Field{
			{Name: "A", Type: "T", TypeParam: true},
			{Name: "B", Type: "Text"},
			{Name: "C", Type: "Text"},
		}},
	)
	cs, err := New().ExtendConstraints(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Constraint{
		{Type: "T", Interface: "Value[T]", TypeParam: true},
		{Type: "Text", Interface: "Value[Text]"},
	}, cs)

	cs, err = New().ExtendConstraints(shapeUnion())
	require.NoError(t, err)
	assert.Equal(t, []model.Constraint{
		{Type: "Num", Interface: "Value[Num]"},
		{Type: "Text", Interface: "Value[Text]"},
	}, cs)
}

func TestExtendAttrs(t *testing.T) {
	ctx := pair()
	ctx.Layout.Attrs = []string{"//go:build linux"}

	out, err := New().ExtendAttrs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"//go:build linux"}, out)

	out, err = New().ExtendAttrs(ctx, []string{"//go:build amd64", "//go:build linux"})
	require.NoError(t, err)
	assert.Equal(t, []string{"//go:build amd64", "//go:build linux"}, out)
}

func TestDeterministic(t *testing.T) {
	f := &model.Func{Name: "Clone", Receiver: true, Results: []model.Param{self("Pair"), {Type: "error"}}}
	assert.Equal(t, generate(t, pair(), f), generate(t, pair(), f))
}

func TestThroughCompletionEngine(t *testing.T) {
	ctx := pair()
	iface := &model.Interface{
		Name:       "Value",
		TypeParams: []model.TypeParam{{Name: "Self", Constraint: "any"}},
		TypeArgs:   []string{"Pair"},
		Members: []model.Member{
			&model.Func{Name: "Clone", Receiver: true, Results: []model.Param{self("Pair")}},
			&model.Func{Name: "Reset", Receiver: true},
		},
	}
	out, err := complete.Complete(iface, ctx.Impl, New())
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Len(t, out.Constraints, 2)
}
