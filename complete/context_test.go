package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

func pairContext() *Context {
	return &Context{
		Interface: &model.Interface{
			Name:       "Equaler",
			TypeParams: []model.TypeParam{{Name: "Self", Constraint: "any"}},
			TypeArgs:   []string{"Pair[A, B]"},
		},
		Impl: &model.ImplBlock{
			Type: model.TypeRef{
				Name:       "Pair",
				TypeParams: []model.TypeParam{{Name: "A", Constraint: "any"}, {Name: "B", Constraint: "any"}},
			},
			Interface: model.InterfaceRef{Qualifier: "eq", Name: "Equaler"},
		},
	}
}

func TestSignature(t *testing.T) {
	ctx := pairContext()

	method := &model.Func{
		Name:     "Equal",
		Receiver: true,
		Params:   []model.Param{{Name: "p", Type: "Pair[A, B]"}, {Name: "opts", Type: "string", Variadic: true}},
		Results:  []model.Param{{Name: "ok", Type: "bool"}, {Type: "error"}},
	}
	names := ctx.ParamNames(method)
	assert.Equal(t, []string{"arg0", "opts"}, names)
	assert.Equal(t, "func (p Pair[A, B]) Equal(arg0 Pair[A, B], opts ...string) (bool, error)", ctx.Signature(method, names))
	assert.Equal(t, "arg0, opts...", CallArgs(method, names))

	static := &model.Func{
		Name:       "Zip",
		TypeParams: []model.TypeParam{{Name: "U", Constraint: "comparable"}},
		Params:     []model.Param{{Name: "_", Type: "U"}},
		Results:    []model.Param{{Type: "Pair[A, B]"}},
	}
	assert.Equal(t, "func PairZip[A any, B any, U comparable](arg0 U) Pair[A, B]", ctx.Signature(static, ctx.ParamNames(static)))
}

func TestInterfaceFor(t *testing.T) {
	ctx := pairContext()
	assert.Equal(t, "eq.Equaler[A]", ctx.InterfaceFor("A"))
	assert.Equal(t, "eq.Equaler[Pair[A, B]]", ctx.InterfaceFor(ctx.Self()))
}

func TestConstAndTypeDecl(t *testing.T) {
	ctx := pairContext()
	assert.Equal(t, "const PairSize int = 2\n", ctx.ConstDecl(&model.Const{Name: "Size", Type: "int"}, "2"))
	assert.Equal(t, "var PairOrigin Pair[A, B] = *new(Pair[A, B])\n",
		ctx.ConstDecl(&model.Const{Name: "Origin", Type: "Pair[A, B]"}, ZeroValue("Pair[A, B]")))
	assert.Equal(t, "type PairOf[A any, B any, U any] = []U\n",
		ctx.TypeDecl(&model.TypeAlias{Name: "Of", TypeParams: []model.TypeParam{{Name: "U", Constraint: "any"}}}, "[]U"))
}

func TestZeroValue(t *testing.T) {
	tests := map[string]string{
		"bool":           "false",
		"string":         `""`,
		"float64":        "0",
		"rune":           "0",
		"error":          "nil",
		"*Node":          "nil",
		"[]byte":         "nil",
		"map[string]int": "nil",
		"chan int":       "nil",
		"func() error":   "nil",
		"[4]int":         "*new([4]int)",
		"time.Duration":  "*new(time.Duration)",
		"T":              "*new(T)",
	}
	for typ, want := range tests {
		assert.Equal(t, want, ZeroValue(typ), typ)
	}
}

func TestZeroReturn(t *testing.T) {
	assert.Equal(t, "return", ZeroReturn(&model.Func{}))
	assert.Equal(t, "return 0, nil", ZeroReturn(&model.Func{Results: []model.Param{{Type: "int"}, {Type: "error"}}}))
}

func TestStaticRef(t *testing.T) {
	tests := []struct {
		typ   string
		extra []string
		want  string
	}{
		{"Inner", nil, "InnerNew"},
		{"*Inner", nil, "InnerNew"},
		{"geo.Box[int]", nil, "geo.BoxNew[int]"},
		{"Box[K, V]", []string{"U"}, "BoxNew[K, V, U]"},
		{"Inner", []string{"U"}, "InnerNew[U]"},
	}
	for _, tt := range tests {
		got, err := StaticRef(tt.typ, "New", tt.extra)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := StaticRef("[]int", "New", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShape))
}
