package fielddelegate

import (
	"github.com/teranos/portrait/directive"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/model"
)

// options configure one operation through //portrait:derive_delegate lines
type options struct {
	reduce     string
	reduceBase string
	hasBase    bool
	try        bool
	// ctor wraps the aggregated value on success; empty returns it as is
	ctor string
}

func parseOptions(f *model.Func) (*options, error) {
	var (
		reduce directive.Once[string]
		base   directive.Once[string]
		try    directive.Once[string]
	)
	for _, a := range model.AttrsNamed(f, Name) {
		kvs, err := directive.KeyValues(a.Args)
		if err != nil {
			return nil, err
		}
		for _, kv := range kvs {
			switch kv.Key {
			case "reduce":
				if kv.Value == "" {
					return nil, errors.Parsef("reduce needs a function or operator")
				}
				err = reduce.Set(kv.Key, kv.Value)
			case "reduce_base":
				if kv.Value == "" {
					return nil, errors.Parsef("reduce_base needs an expression")
				}
				err = base.Set(kv.Key, kv.Value)
			case "try":
				err = try.Set(kv.Key, kv.Value)
			default:
				err = errors.Parsef("unknown %s option %q", Name, kv.Key)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	o := &options{reduce: reduce.Or("")}
	o.reduceBase, o.hasBase = base.Get()
	if o.hasBase && o.reduce == "" {
		return nil, errors.Parsef("reduce_base without reduce")
	}
	o.ctor, o.try = try.Get()
	return o, nil
}
