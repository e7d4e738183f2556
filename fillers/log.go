package fillers

import (
	"strconv"
	"strings"

	"github.com/teranos/portrait/complete"
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// LogName is the id of the logging generator
const LogName = "log"

// Log fills operations with a call to a printf-style logger followed by a
// zero-value return
type Log struct {
	Logger  string
	Leading []string
}

// NewLog parses: logger[, leading args...]
func NewLog(args string) (complete.Generator, error) {
	parts, err := directive.SplitList(args, ',')
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 || parts[0] == "" {
		return nil, errors.Parsef("%s expects logger[, args...], got %q", LogName, args)
	}
	for _, p := range parts[1:] {
		if p == "" {
			return nil, errors.Parsef("%s: empty argument in %q", LogName, args)
		}
	}
	return &Log{Logger: parts[0], Leading: parts[1:]}, nil
}

func (l *Log) GenerateConst(_ *complete.Context, c *model.Const) (*model.Item, error) {
	return nil, errors.WithHint(errors.Unsupported(LogName, "const"),
		"constants cannot log, declare "+c.Name+" yourself")
}

func (l *Log) GenerateFunc(ctx *complete.Context, f *model.Func) (*model.Item, error) {
	names := ctx.ParamNames(f)

	name := ctx.StaticName(f.Name)
	if f.Receiver {
		name = ctx.Impl.Type.Name + "." + f.Name
	}
	verbs := make([]string, len(names))
	for i := range verbs {
		verbs[i] = "%v"
	}
	format := strconv.Quote(name + "(" + strings.Join(verbs, ", ") + ")")

	args := append(append(append([]string(nil), l.Leading...), format), names...)
	body := []string{l.Logger + "(" + strings.Join(args, ", ") + ")"}
	if len(f.Results) > 0 {
		body = append(body, complete.ZeroReturn(f))
	}
	return &model.Item{Member: f, Decl: ctx.FuncDecl(f, names, body)}, nil
}

func (l *Log) GenerateType(ctx *complete.Context, t *model.TypeAlias) (*model.Item, error) {
	return &model.Item{Member: t, Decl: ctx.TypeDecl(t, "struct{}")}, nil
}
