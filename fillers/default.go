package fillers

import (
	"strings"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// DefaultName is the id of the zero-value generator
const DefaultName = "default"

// Default fills constants with their declared default and operations with
// zero-value returns
type Default struct{}

// NewDefault builds the default generator. It takes no arguments.
func NewDefault(args string) (complete.Generator, error) {
	if strings.TrimSpace(args) != "" {
		return nil, errors.Parsef("%s takes no arguments, got %q", DefaultName, args)
	}
	return Default{}, nil
}

func (Default) GenerateConst(ctx *complete.Context, c *model.Const) (*model.Item, error) {
	value := c.Default
	if value == "" {
		value = complete.ZeroValue(c.Type)
	}
	return &model.Item{Member: c, Decl: ctx.ConstDecl(c, value)}, nil
}

func (Default) GenerateFunc(ctx *complete.Context, f *model.Func) (*model.Item, error) {
	names := ctx.ParamNames(f)
	body := []string{complete.ZeroReturn(f)}
	if len(f.Results) == 0 {
		body = nil
	}
	return &model.Item{Member: f, Decl: ctx.FuncDecl(f, names, body)}, nil
}

func (Default) GenerateType(_ *complete.Context, t *model.TypeAlias) (*model.Item, error) {
	return nil, errors.WithHint(errors.Unsupported(DefaultName, "type"),
		"a type alias has no default, declare "+t.Name+" yourself")
}
