package directive

import (
	"strings"

	"github.com/teranos/portrait/errors"
)

// Make holds //portrait:make options
type Make struct {
	Name        string
	Imports     []string
	AutoImports bool
	DebugPrint  bool
}

// ParseMake parses: [name=<ident>] [import(<entries>)] [auto_imports] [__debug_print]
func ParseMake(args string) (*Make, error) {
	fields, err := Fields(args)
	if err != nil {
		return nil, err
	}

	var (
		name    Once[string]
		imports Once[[]string]
		auto    Once[bool]
		debug   Once[bool]
	)
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "name="):
			v := strings.TrimPrefix(f, "name=")
			if !IsIdent(v) {
				return nil, errors.Parsef("name must be an identifier, got %q", v)
			}
			if err := name.Set("name", v); err != nil {
				return nil, err
			}
		case strings.HasPrefix(f, "import("):
			fn, inner, err := ParseCall(f)
			if err != nil || fn != "import" {
				return nil, errors.Parsef("malformed import list %q", f)
			}
			entries, err := SplitList(inner, ',')
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if e == "" {
					return nil, errors.Parsef("empty entry in %q", f)
				}
			}
			if err := imports.Set("import", entries); err != nil {
				return nil, err
			}
		case f == "auto_imports":
			if err := auto.Set(f, true); err != nil {
				return nil, err
			}
		case f == "__debug_print":
			if err := debug.Set(f, true); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Parsef("unknown make option %q", f)
		}
	}

	return &Make{
		Name:        name.Or(""),
		Imports:     imports.Or(nil),
		AutoImports: auto.Or(false),
		DebugPrint:  debug.Or(false),
	}, nil
}

// Fill holds //portrait:fill options
type Fill struct {
	DebugPrint bool
	ModPath    string
	Generator  string
	Args       string
}

// Call renders the generator invocation, e.g. delegate(Inner; p.inner)
func (f *Fill) Call() string {
	if f.Args == "" {
		return f.Generator
	}
	return f.Generator + "(" + f.Args + ")"
}

// ParseFill parses: [@DEBUG_PRINT_FILLER_OUTPUT] [@MOD_PATH(<path>)] <generator>[(<args>)]
func ParseFill(args string) (*Fill, error) {
	fields, err := Fields(args)
	if err != nil {
		return nil, err
	}
	out, rest, err := parseAtOptions(fields)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, errors.Parsef("missing generator")
	}
	out.Generator, out.Args, err = ParseCall(strings.Join(rest, " "))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Derive holds //portrait:derive options
type Derive struct {
	Fill
	Interface string
}

// ParseDerive parses: [@options] <Interface> with <generator>[(<args>)]
func ParseDerive(args string) (*Derive, error) {
	fields, err := Fields(args)
	if err != nil {
		return nil, err
	}
	opts, rest, err := parseAtOptions(fields)
	if err != nil {
		return nil, err
	}

	with := -1
	for i, f := range rest {
		if f == "with" {
			with = i
			break
		}
	}
	if with < 1 || with == len(rest)-1 {
		return nil, errors.Parsef("expected <Interface> with <generator>, got %q", args)
	}

	out := &Derive{Fill: *opts, Interface: strings.Join(rest[:with], "")}
	out.Generator, out.Args, err = ParseCall(strings.Join(rest[with+1:], " "))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseAtOptions(fields []string) (*Fill, []string, error) {
	var (
		debug   Once[bool]
		modPath Once[string]
	)
	i := 0
	for ; i < len(fields) && strings.HasPrefix(fields[i], "@"); i++ {
		f := fields[i]
		switch {
		case f == "@DEBUG_PRINT_FILLER_OUTPUT":
			if err := debug.Set(f, true); err != nil {
				return nil, nil, err
			}
		case strings.HasPrefix(f, "@MOD_PATH("):
			_, inner, err := ParseCall(f[1:])
			if err != nil {
				return nil, nil, err
			}
			inner = strings.Trim(inner, `"`)
			if inner == "" {
				return nil, nil, errors.Parsef("@MOD_PATH needs a path")
			}
			if err := modPath.Set("@MOD_PATH", inner); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, errors.Parsef("unknown option %q", f)
		}
	}
	return &Fill{DebugPrint: debug.Or(false), ModPath: modPath.Or("")}, fields[i:], nil
}
