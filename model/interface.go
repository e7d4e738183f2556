package model

import "go/token"

// SelfName is the identifier that stands for the implementing type
const SelfName = "Self"

// Interface is a declared interface: an ordered sequence of members
type Interface struct {
	Name       string
	PkgName    string
	TypeParams []TypeParam
	// TypeArgs are set once the interface is localized for an implementation
	TypeArgs []string
	Members  []Member
	Pos      token.Position
}

// SelfIndex returns the position of the Self type parameter, or -1
func (i *Interface) SelfIndex() int {
	for n, tp := range i.TypeParams {
		if tp.Name == SelfName {
			return n
		}
	}
	return -1
}

// Ref renders a reference to the interface through qualifier with its
// type arguments, e.g. shapes.Equaler[Point]
func (i *Interface) Ref(qualifier string) string {
	return InterfaceRef{Qualifier: qualifier, Name: i.Name, TypeArgs: i.TypeArgs}.String()
}

// Funcs returns the operations in declaration order
func (i *Interface) Funcs() []*Func {
	var out []*Func
	for _, m := range i.Members {
		if f, ok := m.(*Func); ok {
			out = append(out, f)
		}
	}
	return out
}
