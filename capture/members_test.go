package capture

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

var origin = token.Position{Filename: "stats.go", Line: 10, Column: 6}

func TestParseInterface_Members(t *testing.T) {
	iface, err := ParseInterface(`type Stats[Self any] interface {
	//portrait:const Zero Self
	//portrait:derive_delegate reduce=+
	Total() float64
	Merge(other Self, rest ...*Self) (Self, error)
	//portrait:func New(n int) Self
	//portrait:type Of[U comparable]
}`, origin)
	require.NoError(t, err)

	assert.Equal(t, "Stats", iface.Name)
	assert.Equal(t, []model.TypeParam{{Name: "Self", Constraint: "any"}}, iface.TypeParams)
	assert.Equal(t, 0, iface.SelfIndex())
	require.Len(t, iface.Members, 5)

	zero := iface.Members[0].(*model.Const)
	assert.Equal(t, "Self", zero.Type)
	assert.Equal(t, 11, zero.Pos.Line)

	total := iface.Members[1].(*model.Func)
	assert.True(t, total.Receiver)
	require.Len(t, total.Attrs, 1)
	assert.Equal(t, model.Attr{Name: "derive_delegate", Args: "reduce=+", Pos: total.Attrs[0].Pos}, total.Attrs[0])
	assert.Equal(t, 12, total.Attrs[0].Pos.Line)

	merge := iface.Members[2].(*model.Func)
	assert.Equal(t, []model.Param{
		{Name: "other", Type: "Self", Self: model.SelfValue},
		{Name: "rest", Type: "*Self", Variadic: true, Self: model.SelfPointer},
	}, merge.Params)
	assert.True(t, merge.ReturnsError())
	assert.Empty(t, merge.Attrs)

	ctor := iface.Members[3].(*model.Func)
	assert.False(t, ctor.Receiver)
	assert.Equal(t, model.SelfValue, ctor.Results[0].Self)

	of := iface.Members[4].(*model.TypeAlias)
	assert.Equal(t, []model.TypeParam{{Name: "U", Constraint: "comparable"}}, of.TypeParams)
}

func TestParseInterface_ConstDefault(t *testing.T) {
	iface, err := ParseInterface("type Sized interface {\n\t//portrait:const Size int = 1 << 4\n}", origin)
	require.NoError(t, err)
	c := iface.Members[0].(*model.Const)
	assert.Equal(t, "int", c.Type)
	assert.Equal(t, "1 << 4", c.Default)
}

func TestParseInterface_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"embedded", "type A interface {\n\tfmt.Stringer\n}", "embedded element fmt.Stringer"},
		{"type set", "type A interface {\n\t~int | ~string\n}", "embedded element ~int | ~string"},
		{"trailing attr", "type A interface {\n\tF()\n\t//portrait:derive_delegate reduce=+\n}", "not followed by a member"},
		{"nested make", "type A interface {\n\t//portrait:make\n\tF()\n}", "not allowed inside an interface body"},
		{"const without type", "type A interface {\n\t//portrait:const N = 3\n}", "needs a type"},
		{"duplicate", "type A interface {\n\tF()\n\t//portrait:func F()\n}", "declared twice"},
		{"not interface", "type A struct{}", "is not an interface type"},
		{"syntax", "type A interface {", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInterface(tt.text, origin)
			require.Error(t, err)
			assert.True(t, errors.IsParseError(err), err.Error())
			assert.Contains(t, err.Error(), tt.want)

			var d *diag.Diagnostic
			require.True(t, errors.As(err, &d))
			assert.Equal(t, "stats.go", d.Pos.Filename)
		})
	}
}

func TestParseInterface_SameNameAcrossKinds(t *testing.T) {
	iface, err := ParseInterface("type A interface {\n\t//portrait:const F int\n\tF()\n}", origin)
	require.NoError(t, err)
	assert.Len(t, iface.Members, 2)
}
