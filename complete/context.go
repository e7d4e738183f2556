package complete

import (
	"fmt"
	"strings"

	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/internal/util"
	"github.com/teranos/portrait/model"
)

// Context is what a generator sees during one completion
type Context struct {
	// Interface is localized to the implementation site
	Interface *model.Interface
	Impl      *model.ImplBlock
	// Layout is the implementing type's field layout, when known
	Layout *model.Layout
}

// Receiver returns the receiver name used by generated methods
func (c *Context) Receiver() string {
	if c.Impl.Type.Recv != "" {
		return c.Impl.Type.Recv
	}
	return util.ReceiverName(c.Impl.Type.Name)
}

// Self returns the implementing type expression, e.g. Pair[A, B]
func (c *Context) Self() string {
	return c.Impl.Type.Expr()
}

// StaticName names the package-level declaration of a receiver-less member
func (c *Context) StaticName(member string) string {
	return c.Impl.Type.Name + member
}

// InterfaceFor renders the interface reference with Self replaced by typ,
// as used in constraint notes
func (c *Context) InterfaceFor(typ string) string {
	ref := c.Impl.Interface
	ref.Name = c.Interface.Name
	args := append([]string(nil), c.Interface.TypeArgs...)
	if i := c.Interface.SelfIndex(); i >= 0 && i < len(args) {
		args[i] = typ
	}
	ref.TypeArgs = args
	return ref.String()
}

// ParamNames returns usable names for the parameters of f. Unnamed and
// blank parameters, and parameters shadowing the receiver, become argN.
func (c *Context) ParamNames(f *model.Func) []string {
	recv := ""
	if f.Receiver {
		recv = c.Receiver()
	}
	seen := map[string]bool{}
	for _, p := range f.Params {
		seen[p.Name] = true
	}
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		n := p.Name
		if n == "" || n == "_" || n == recv {
			n = fmt.Sprintf("arg%d", i)
			for seen[n] || n == recv {
				n += "_"
			}
			seen[n] = true
		}
		names[i] = n
	}
	return names
}

// CallArgs renders an argument list forwarding names, spreading a variadic
// last parameter
func CallArgs(f *model.Func, names []string) string {
	args := make([]string, len(names))
	for i, n := range names {
		args[i] = n
		if f.Params[i].Variadic {
			args[i] += "..."
		}
	}
	return strings.Join(args, ", ")
}

// Signature renders the declaration header of f without the body. Methods
// get the implementation's receiver, receiver-less operations become
// <Type><Name> functions carrying the type's parameters.
func (c *Context) Signature(f *model.Func, names []string) string {
	var b strings.Builder
	b.WriteString("func ")
	if f.Receiver {
		fmt.Fprintf(&b, "(%s %s) %s", c.Receiver(), c.Impl.Type.ReceiverType(), f.Name)
		b.WriteString(model.FormatTypeParams(f.TypeParams))
	} else {
		b.WriteString(c.StaticName(f.Name))
		tps := append(append([]model.TypeParam(nil), c.Impl.Type.TypeParams...), f.TypeParams...)
		b.WriteString(model.FormatTypeParams(tps))
	}

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		t := p.Type
		if p.Variadic {
			t = "..." + t
		}
		params[i] = names[i] + " " + t
	}
	fmt.Fprintf(&b, "(%s)", strings.Join(params, ", "))
	b.WriteString(FormatResults(f.Results))
	return b.String()
}

// FormatResults renders a result list with a leading space, or ""
func FormatResults(rs []model.Param) string {
	switch len(rs) {
	case 0:
		return ""
	case 1:
		return " " + rs[0].Type
	}
	types := make([]string, len(rs))
	for i, r := range rs {
		types[i] = r.Type
	}
	return " (" + strings.Join(types, ", ") + ")"
}

// FuncDecl renders f with the given body lines
func (c *Context) FuncDecl(f *model.Func, names []string, body []string) string {
	var b strings.Builder
	b.WriteString(c.Signature(f, names))
	b.WriteString(" {\n")
	for _, line := range body {
		if line != "" {
			b.WriteString("\t")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

var constTypes = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// ConstDecl declares constant member c with value. Basic types become
// constants, everything else a package-level variable.
func (c *Context) ConstDecl(k *model.Const, value string) string {
	tok := "var"
	if constTypes[k.Type] {
		tok = "const"
	}
	return fmt.Sprintf("%s %s %s = %s\n", tok, c.StaticName(k.Name), k.Type, value)
}

// TypeDecl declares type alias member t as rhs
func (c *Context) TypeDecl(t *model.TypeAlias, rhs string) string {
	tps := append(append([]model.TypeParam(nil), c.Impl.Type.TypeParams...), t.TypeParams...)
	return fmt.Sprintf("type %s%s = %s\n", c.StaticName(t.Name), model.FormatTypeParams(tps), rhs)
}

// ZeroValue returns an expression for the zero value of typ
func ZeroValue(typ string) string {
	switch {
	case typ == "bool":
		return "false"
	case typ == "string":
		return `""`
	case constTypes[typ]:
		return "0"
	case typ == "error", typ == "any",
		strings.HasPrefix(typ, "*"),
		strings.HasPrefix(typ, "[]"),
		strings.HasPrefix(typ, "map["),
		strings.HasPrefix(typ, "chan"),
		strings.HasPrefix(typ, "<-chan"),
		strings.HasPrefix(typ, "func("),
		strings.HasPrefix(typ, "interface{"):
		return "nil"
	default:
		return "*new(" + typ + ")"
	}
}

// ZeroReturn returns a return statement yielding zero values for f
func ZeroReturn(f *model.Func) string {
	if len(f.Results) == 0 {
		return "return"
	}
	zs := make([]string, len(f.Results))
	for i, r := range f.Results {
		zs[i] = ZeroValue(r.Type)
	}
	return "return " + strings.Join(zs, ", ")
}

// StaticRef names the package-level declaration generated for member on
// typ, keeping typ's instantiation: pkg.Box[int] + Len -> pkg.BoxLen[int].
// extra type arguments are appended to the instantiation.
func StaticRef(typ, member string, extra []string) (string, error) {
	base, args := typ, ""
	if i := strings.IndexByte(typ, '['); i >= 0 {
		base, args = typ[:i], typ[i:]
	}
	base = strings.TrimPrefix(base, "*")
	for _, part := range strings.Split(base, ".") {
		if !directive.IsIdent(part) {
			return "", errors.Shapef("%s is not a named type, it has no package-level %s", typ, member)
		}
	}
	if len(extra) > 0 {
		if args == "" {
			args = "[" + strings.Join(extra, ", ") + "]"
		} else {
			args = strings.TrimSuffix(args, "]") + ", " + strings.Join(extra, ", ") + "]"
		}
	}
	return base + member + args, nil
}

// TypeParamNames returns the names of tps
func TypeParamNames(tps []model.TypeParam) []string {
	out := make([]string, len(tps))
	for i, tp := range tps {
		out[i] = tp.Name
	}
	return out
}
