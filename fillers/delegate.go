package fillers

import (
	"strings"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// DelegateName is the id of the forwarding generator
const DelegateName = "delegate"

// Delegate forwards every member to one target type. Methods are called on
// Value, an expression evaluated in the method body (typically a field of
// the receiver).
type Delegate struct {
	Target string
	Value  string
}

// NewDelegate parses: Target[; value]
func NewDelegate(args string) (complete.Generator, error) {
	parts, err := directive.SplitList(args, ';')
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 || len(parts) > 2 || parts[0] == "" {
		return nil, errors.Parsef("%s expects Target[; value], got %q", DelegateName, args)
	}
	d := &Delegate{Target: parts[0]}
	if len(parts) == 2 {
		if parts[1] == "" {
			return nil, errors.Parsef("%s: empty value expression", DelegateName)
		}
		d.Value = parts[1]
	}
	return d, nil
}

func (d *Delegate) GenerateConst(ctx *complete.Context, c *model.Const) (*model.Item, error) {
	ref, err := complete.StaticRef(d.Target, c.Name, nil)
	if err != nil {
		return nil, err
	}
	return &model.Item{Member: c, Decl: ctx.ConstDecl(c, ref)}, nil
}

func (d *Delegate) GenerateFunc(ctx *complete.Context, f *model.Func) (*model.Item, error) {
	names := ctx.ParamNames(f)
	var call string
	if f.Receiver {
		if d.Value == "" {
			return nil, errors.WithHint(errors.Unsupported(DelegateName+" without a value", "method"),
				"pass the value to call "+f.Name+" on: "+DelegateName+"("+d.Target+"; <expr>)")
		}
		call = d.Value + "." + f.Name + "(" + complete.CallArgs(f, names) + ")"
	} else {
		ref, err := complete.StaticRef(d.Target, f.Name, complete.TypeParamNames(f.TypeParams))
		if err != nil {
			return nil, err
		}
		call = ref + "(" + complete.CallArgs(f, names) + ")"
	}

	body := []string{call}
	if len(f.Results) > 0 {
		body[0] = "return " + call
	}
	return &model.Item{Member: f, Decl: ctx.FuncDecl(f, names, body)}, nil
}

func (d *Delegate) GenerateType(ctx *complete.Context, t *model.TypeAlias) (*model.Item, error) {
	ref, err := complete.StaticRef(d.Target, t.Name, complete.TypeParamNames(t.TypeParams))
	if err != nil {
		return nil, err
	}
	return &model.Item{Member: t, Decl: ctx.TypeDecl(t, ref)}, nil
}

// String renders the generator call
func (d *Delegate) String() string {
	parts := []string{d.Target}
	if d.Value != "" {
		parts = append(parts, d.Value)
	}
	return DelegateName + "(" + strings.Join(parts, "; ") + ")"
}
