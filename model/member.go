// Package model defines interfaces, their members and implementation blocks.
package model

import (
	"go/token"
	"strings"
)

// Kind is the namespace a member lives in
type Kind int

const (
	KindConst Kind = iota
	KindFunc
	KindType
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindFunc:
		return "func"
	case KindType:
		return "type"
	default:
		return "unknown"
	}
}

// Member is one constant, operation or type alias of an interface.
// Members are immutable once captured.
type Member interface {
	MemberName() string
	Kind() Kind
	Attributes() []Attr
	Position() token.Position
	member()
}

// Attr is a generator configuration line attached to a member:
// //portrait:<Name> <Args>
type Attr struct {
	Name string
	Args string
	Pos  token.Position
}

// TypeParam is one entry of a type parameter list
type TypeParam struct {
	Name       string
	Constraint string
}

// SelfRef records whether a type refers to the implementing type
type SelfRef int

const (
	NotSelf SelfRef = iota
	SelfValue
	SelfPointer
)

// Param is a parameter or result
type Param struct {
	Name     string
	Type     string
	Variadic bool
	Self     SelfRef
}

// Const is an associated constant. Default is the source of the default
// expression, or empty.
type Const struct {
	Name    string
	Type    string
	Default string
	Attrs   []Attr
	Pos     token.Position
}

// Func is an operation. Receiver is false for package-level operations
// declared with //portrait:func.
type Func struct {
	Name       string
	Receiver   bool
	TypeParams []TypeParam
	Params     []Param
	Results    []Param
	Attrs      []Attr
	Pos        token.Position
}

// TypeAlias is a parameterized associated type
type TypeAlias struct {
	Name       string
	TypeParams []TypeParam
	Attrs      []Attr
	Pos        token.Position
}

func (c *Const) MemberName() string       { return c.Name }
func (c *Const) Kind() Kind               { return KindConst }
func (c *Const) Attributes() []Attr       { return c.Attrs }
func (c *Const) Position() token.Position { return c.Pos }
func (*Const) member()                    {}

func (f *Func) MemberName() string       { return f.Name }
func (f *Func) Kind() Kind               { return KindFunc }
func (f *Func) Attributes() []Attr       { return f.Attrs }
func (f *Func) Position() token.Position { return f.Pos }
func (*Func) member()                    {}

func (t *TypeAlias) MemberName() string       { return t.Name }
func (t *TypeAlias) Kind() Kind               { return KindType }
func (t *TypeAlias) Attributes() []Attr       { return t.Attrs }
func (t *TypeAlias) Position() token.Position { return t.Pos }
func (*TypeAlias) member()                    {}

// ReturnsError reports whether the last result is the error type
func (f *Func) ReturnsError() bool {
	return len(f.Results) > 0 && f.Results[len(f.Results)-1].Type == "error"
}

// ValueResults returns the results without a trailing error
func (f *Func) ValueResults() []Param {
	if f.ReturnsError() {
		return f.Results[:len(f.Results)-1]
	}
	return f.Results
}

// AttrsNamed returns the attributes with the given name in declaration order
func AttrsNamed(m Member, name string) []Attr {
	var out []Attr
	for _, a := range m.Attributes() {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// FormatTypeParams renders "[A any, B comparable]", or "" for an empty list
func FormatTypeParams(tps []TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.Name + " " + tp.Constraint
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatTypeArgs renders "[A, B]" from the names of tps, or ""
func FormatTypeArgs(tps []TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}
