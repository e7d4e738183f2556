package fielddelegate

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/internal/util"
	"github.com/teranos/portrait/model"
)

// slot is one field delegated to. path selects it from an instance of the
// implementing type, e.g. ".X" or ".Circle.Radius".
type slot struct {
	key       string
	typ       string
	typeParam bool
	path      string
}

// builder renders a value of the implementing type from per-slot values
type builder func(vals []string) string

type synth struct {
	ctx   *complete.Context
	f     *model.Func
	opts  *options
	names []string
	recv  string
	// type names the fragments mention besides field types
	refs []string
}

type policy int

const (
	policySingle policy = iota
	policyUnit
	policySelf
	policyReduce
)

func (s *synth) product(l *model.Layout) ([]string, error) {
	slots := make([]slot, len(l.Fields))
	keys := make([]string, len(l.Fields))
	for i, fd := range l.Fields {
		slots[i] = slot{key: fd.Name, typ: fd.Type, typeParam: fd.TypeParam, path: "." + fd.Name}
		keys[i] = fd.Name
	}
	self := s.ctx.Self()
	return s.fragment(slots, func(vals []string) string {
		return literal(self, keys, vals)
	}, false)
}

func (s *synth) union(l *model.Layout) ([]string, error) {
	if !s.f.Receiver {
		return nil, errors.WithHint(
			errors.Shapef("%s is a union, %s needs a receiver to select a variant", s.ctx.Impl.Type.Name, s.f.Name),
			"declare it as a method or provide it yourself")
	}
	for i, p := range s.f.Params {
		if p.Self != model.NotSelf {
			return nil, errors.Shapef("%s is a union, parameter %s of %s cannot be %s", s.ctx.Impl.Type.Name, s.names[i], s.f.Name, p.Type)
		}
	}

	self := s.ctx.Self()
	for _, v := range l.Variants {
		s.refs = append(s.refs, v.Type)
	}
	lines := []string{"switch {"}
	for _, v := range l.Variants {
		var (
			slots []slot
			build builder
		)
		if v.Opaque {
			slots = []slot{{typ: v.Type, path: "." + v.Name}}
			build = func(vals []string) string {
				return literal(self, []string{v.Name}, []string{"&" + vals[0]})
			}
		} else {
			keys := make([]string, len(v.Fields))
			for i, fd := range v.Fields {
				slots = append(slots, slot{key: fd.Name, typ: fd.Type, typeParam: fd.TypeParam, path: "." + v.Name + "." + fd.Name})
				keys[i] = fd.Name
			}
			build = func(vals []string) string {
				return literal(self, []string{v.Name}, []string{"&" + literal(v.Type, keys, vals)})
			}
		}

		frag, err := s.fragment(slots, build, v.Opaque)
		if err != nil {
			return nil, errors.Wrapf(err, "variant %s", v.Name)
		}
		lines = append(lines, fmt.Sprintf("case %s.%s != nil:", s.recv, v.Name))
		lines = append(lines, indent(frag)...)
	}
	lines = append(lines, "}")
	if len(s.f.Results) > 0 {
		lines = append(lines, "panic("+strconv.Quote(s.ctx.Impl.Type.Name+"."+s.f.Name+": no variant set")+")")
	}
	return lines, nil
}

func (s *synth) choose(n int) (policy, error) {
	vals := s.f.ValueResults()
	switch {
	case n == 1 && !s.selfResult():
		return policySingle, nil
	case len(vals) == 0:
		return policyUnit, nil
	case s.selfResult():
		return policySelf, nil
	case s.opts.reduce != "" && len(vals) == 1:
		if n == 0 && !s.opts.hasBase {
			return 0, errors.WithHint(
				errors.Wrapf(errors.ErrAggregation, "%s has no fields to reduce", s.ctx.Impl.Type.Name),
				"add reduce_base=<expr>")
		}
		return policyReduce, nil
	}
	return 0, errors.WithHint(
		errors.Wrapf(errors.ErrAggregation, "cannot combine %d field results of type %s", n, typeList(vals)),
		"add //portrait:"+Name+" reduce=<fn or operator> above "+s.f.Name+", or return nothing or Self")
}

func (s *synth) selfResult() bool {
	vals := s.f.ValueResults()
	return len(vals) == 1 && vals[0].Self != model.NotSelf
}

// fragment renders the delegation over slots. bind forces every call into a
// local variable even when the operation cannot fail.
func (s *synth) fragment(slots []slot, build builder, bind bool) ([]string, error) {
	p, err := s.choose(len(slots))
	if err != nil {
		return nil, err
	}
	calls := make([]string, len(slots))
	for i, sl := range slots {
		if calls[i], err = s.call(sl); err != nil {
			return nil, err
		}
	}

	fallible := s.f.ReturnsError()
	vals := s.f.ValueResults()
	refs := append([]string(nil), calls...)
	for _, sl := range slots {
		refs = append(refs, sl.typ)
	}
	nm := s.namer(refs...)

	if p == policySingle && (s.opts.ctor == "" || !fallible) {
		if len(s.f.Results) == 0 {
			return []string{calls[0]}, nil
		}
		return []string{"return " + calls[0]}, nil
	}

	if p == policyUnit {
		if !fallible {
			return calls, nil
		}
		var lines []string
		for _, c := range calls {
			lines = append(lines, "if err := "+c+"; err != nil {", "\treturn err", "}")
		}
		return append(lines, "return nil"), nil
	}

	// bind call results to locals when they must be checked or addressed
	var lines []string
	values := calls
	errName := ""
	if fallible || bind {
		if fallible {
			errName = nm.fresh("err")
		}
		values = make([]string, len(calls))
		for i, c := range calls {
			lhs := make([]string, 0, len(vals)+1)
			for j := range vals {
				base := localName(slots[i].key)
				if len(vals) > 1 {
					base += strconv.Itoa(j)
				}
				lhs = append(lhs, nm.fresh(base))
			}
			values[i] = strings.Join(lhs, ", ")
			if fallible {
				lhs = append(lhs, errName)
			}
			lines = append(lines, strings.Join(lhs, ", ")+" := "+c)
			if fallible {
				lines = append(lines,
					"if "+errName+" != nil {",
					"\t"+s.zeroReturn(errName),
					"}")
			}
		}
	}

	var result string
	switch p {
	case policySingle:
		result = values[0]
	case policySelf:
		parts := values
		if s.f.ValueResults()[0].Self == model.SelfPointer {
			parts = make([]string, len(values))
			for i, v := range values {
				parts[i] = "*" + v
			}
		}
		result = build(parts)
		if s.f.ValueResults()[0].Self == model.SelfPointer {
			result = "&" + result
		}
	case policyReduce:
		var pre []string
		result, pre, err = s.reduce(values, nm)
		if err != nil {
			return nil, err
		}
		lines = append(pre, lines...)
	}

	if fallible {
		if s.opts.ctor != "" {
			result = s.opts.ctor + "(" + result + ")"
		}
		return append(lines, "return "+result+", nil"), nil
	}
	return append(lines, "return "+result), nil
}

// call renders the delegated call on one slot
func (s *synth) call(sl slot) (string, error) {
	args := make([]string, len(s.f.Params))
	for i, p := range s.f.Params {
		name := s.names[i]
		switch {
		case p.Self != model.NotSelf && p.Variadic:
			return "", errors.Shapef("variadic parameter %s of %s cannot be split per field", name, s.f.Name)
		case p.Self == model.SelfValue:
			args[i] = name + sl.path
		case p.Self == model.SelfPointer:
			args[i] = "&" + name + sl.path
		case p.Variadic:
			args[i] = name + "..."
		default:
			args[i] = name
		}
	}
	joined := strings.Join(args, ", ")

	if s.f.Receiver {
		return s.recv + sl.path + "." + s.f.Name + "(" + joined + ")", nil
	}
	if sl.typeParam {
		return "", errors.WithHint(
			errors.Shapef("field %s has type parameter type %s, which has no package-level %s", sl.key, sl.typ, s.f.Name),
			"give the field a concrete type or provide "+s.ctx.StaticName(s.f.Name)+" yourself")
	}
	fn, err := complete.StaticRef(sl.typ, s.f.Name, complete.TypeParamNames(s.f.TypeParams))
	if err != nil {
		return "", err
	}
	return fn + "(" + joined + ")", nil
}

var operators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "&^": true, "<<": true, ">>": true,
	"&&": true, "||": true,
}

// reduce folds values left to right. A function literal is bound to a local
// first; pre holds that binding.
func (s *synth) reduce(values []string, nm *namer) (result string, pre []string, err error) {
	acc := values
	if s.opts.hasBase {
		base := s.opts.reduceBase
		if isBinary(base) {
			base = "(" + base + ")"
		}
		acc = append([]string{base}, values...)
	}

	op := s.opts.reduce
	if operators[op] {
		return strings.Join(acc, " "+op+" "), nil, nil
	}

	fn := op
	e, perr := parser.ParseExpr(op)
	if perr != nil {
		return "", nil, errors.Parsef("reduce=%s is neither an operator nor a function: %s", op, perr.Error())
	}
	if _, ok := e.(*ast.FuncLit); ok {
		fn = nm.fresh("reduce")
		pre = []string{fn + " := " + op}
	}
	out := acc[0]
	for _, v := range acc[1:] {
		out = fn + "(" + out + ", " + v + ")"
	}
	return out, pre, nil
}

func isBinary(expr string) bool {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return true
	}
	_, ok := e.(*ast.BinaryExpr)
	return ok
}

func (s *synth) zeroReturn(errName string) string {
	vals := s.f.ValueResults()
	out := make([]string, 0, len(vals)+1)
	for _, v := range vals {
		out = append(out, complete.ZeroValue(v.Type))
	}
	return "return " + strings.Join(append(out, errName), ", ")
}

// literal renders typ{k1: v1, ...}
func literal(typ string, keys, vals []string) string {
	parts := make([]string, len(keys))
	for i := range keys {
		parts[i] = keys[i] + ": " + vals[i]
	}
	return typ + "{" + strings.Join(parts, ", ") + "}"
}

func localName(key string) string {
	if key == "" {
		return "v"
	}
	return util.ToLowerCamel(key)
}

// namer hands out local names that shadow nothing the generated body
// refers to: parameters, the receiver, builtins such as new and nil, and
// every identifier in the calls, the signature and the reduce and try
// expressions.
type namer struct {
	taken map[string]bool
}

func (s *synth) namer(refs ...string) *namer {
	nm := &namer{taken: map[string]bool{s.recv: true}}
	for _, n := range s.names {
		nm.taken[n] = true
	}
	for _, n := range types.Universe.Names() {
		nm.taken[n] = true
	}
	refs = append(refs, s.refs...)
	refs = append(refs, s.ctx.Self(), s.opts.reduce, s.opts.reduceBase, s.opts.ctor)
	for _, p := range s.f.Params {
		refs = append(refs, p.Type)
	}
	for _, p := range s.f.Results {
		refs = append(refs, p.Type)
	}
	for _, r := range refs {
		identsOf(r, nm.taken)
	}
	return nm
}

// identsOf adds every identifier token of src to into
func identsOf(src string, into map[string]bool) {
	if src == "" {
		return
	}
	fset := token.NewFileSet()
	var sc scanner.Scanner
	sc.Init(fset.AddFile("", fset.Base(), len(src)), []byte(src), nil, 0)
	for {
		_, tok, lit := sc.Scan()
		if tok == token.EOF {
			return
		}
		if tok == token.IDENT {
			into[lit] = true
		}
	}
}

func (n *namer) fresh(base string) string {
	name := base
	for i := 1; n.taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	n.taken[name] = true
	return name
}
