// Package capture transports interface declarations from the package that
// declares them to the packages that implement them.
//
// make records the verbatim interface text in a generated companion file
// next to the declaration. Implementation sites load that file later and
// invoke the template, which hands the recorded members, the caller's
// generator arguments and the partial implementation to a Target in one
// call.
package capture

import (
	"go/token"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/teranos/portrait/model"
)

const aliasPrefix = "portraitItems_"

// Template is a captured interface
type Template struct {
	// Name is the interface name the template is exported under
	Name string
	// Alias is the unexported constant holding the text
	Alias   string
	Text    string
	PkgName string
	Origin  token.Position
	Scope   *Scope
}

// Portrait is what an invoked template delivers to its target
type Portrait struct {
	// Interface holds the members exactly as captured, in declaration order
	Interface *model.Interface
	Scope     *Scope
	Template  *Template
}

// Target consumes an invoked template. args are the caller's generator
// arguments, passed through untouched.
type Target interface {
	Fill(p *Portrait, args string, impl *model.ImplBlock) (*model.ImplBlock, error)
}

// NewAlias returns a fresh template alias
func NewAlias() string {
	id := uuid.New()
	return aliasPrefix + base58.Encode(id[:])
}

// Interface parses the captured text
func (t *Template) Interface() (*model.Interface, error) {
	iface, err := ParseInterface(t.Text, t.Origin)
	if err != nil {
		return nil, err
	}
	iface.PkgName = t.PkgName
	return iface, nil
}

// Invoke forwards the captured members, args and impl to target
func (t *Template) Invoke(target Target, args string, impl *model.ImplBlock) (*model.ImplBlock, error) {
	iface, err := t.Interface()
	if err != nil {
		return nil, err
	}
	scope := t.Scope
	if scope == nil {
		scope = &Scope{Name: ScopeName(t.Name)}
	}
	return target.Fill(&Portrait{Interface: iface, Scope: scope, Template: t}, args, impl)
}
