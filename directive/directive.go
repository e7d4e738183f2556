// Package directive parses //portrait: comment directives and their options.
package directive

import (
	"go/ast"
	"go/token"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/portrait/errors"
)

// Prefix starts every directive comment
const Prefix = "//portrait:"

// Directive names
const (
	NameMake     = "make"
	NameFill     = "fill"
	NameDerive   = "derive"
	NameUnion    = "union"
	NameConst    = "const"
	NameType     = "type"
	NameFunc     = "func"
	NameTemplate = "template"
	NameScope    = "scope"
)

// Directive is one parsed //portrait:<name> <args> line
type Directive struct {
	Name string
	Args string
	Pos  token.Pos
}

// Split parses a comment line into directive name and arguments
func Split(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, Prefix) {
		return "", "", false
	}
	rest := text[len(Prefix):]
	i := strings.IndexFunc(rest, unicode.IsSpace)
	if i < 0 {
		return rest, "", rest != ""
	}
	return rest[:i], strings.TrimSpace(rest[i:]), i > 0
}

// FromGroup returns the directives of a comment group in order
func FromGroup(cg *ast.CommentGroup) []Directive {
	if cg == nil {
		return nil
	}
	var out []Directive
	for _, c := range cg.List {
		if name, args, ok := Split(c.Text); ok {
			out = append(out, Directive{Name: name, Args: args, Pos: c.Slash})
		}
	}
	return out
}

// Find returns the directives named name in the given comment groups
func Find(name string, groups ...*ast.CommentGroup) []Directive {
	var out []Directive
	for _, cg := range groups {
		for _, d := range FromGroup(cg) {
			if d.Name == name {
				out = append(out, d)
			}
		}
	}
	return out
}

// Once holds a value that may be set at most one time
type Once[T any] struct {
	value T
	set   bool
}

// Set stores v, failing if a value was already stored under name
func (o *Once[T]) Set(name string, v T) error {
	if o.set {
		return errors.Parsef("argument %q cannot be set twice", name)
	}
	o.value, o.set = v, true
	return nil
}

// Get returns the value and whether it was set
func (o *Once[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the value, or def when unset
func (o *Once[T]) Or(def T) T {
	if !o.set {
		return def
	}
	return o.value
}

// Fields splits s on whitespace outside brackets and quotes
func Fields(s string) ([]string, error) {
	return splitTop(s, func(r rune) bool { return unicode.IsSpace(r) }, true)
}

// SplitList splits s on sep outside brackets and quotes, trimming each part.
// An empty input yields no parts.
func SplitList(s string, sep rune) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts, err := splitTop(s, func(r rune) bool { return r == sep }, false)
	if err != nil {
		return nil, err
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func splitTop(s string, isSep func(rune) bool, dropEmpty bool) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		stack []rune
		quote rune
		esc   bool
	)
	flush := func() {
		if cur.Len() > 0 || !dropEmpty {
			out = append(out, cur.String())
		}
		cur.Reset()
	}
	for _, r := range s {
		if quote != 0 {
			cur.WriteRune(r)
			switch {
			case esc:
				esc = false
			case r == '\\' && quote != '`':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'', '`':
			quote = r
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opening(r) {
				return nil, errors.Parsef("unbalanced %q in %q", r, s)
			}
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 && quote == 0 && isSep(r) {
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	if quote != 0 {
		return nil, errors.Parsef("unterminated quote in %q", s)
	}
	if len(stack) > 0 {
		return nil, errors.Parsef("unclosed %q in %q", stack[len(stack)-1], s)
	}
	flush()
	return out, nil
}

func opening(r rune) rune {
	switch r {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

// ParseCall splits "name(args)" into name and args. A bare name has no args.
func ParseCall(s string) (name, args string, err error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if !isPath(s) {
			return "", "", errors.Parsef("expected generator name, got %q", s)
		}
		return s, "", nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", "", errors.Parsef("expected %q to end with ')'", s)
	}
	name = strings.TrimSpace(s[:open])
	if !isPath(name) {
		return "", "", errors.Parsef("expected generator name before '(' in %q", s)
	}
	args = s[open+1 : len(s)-1]
	if _, err := splitTop(args, func(rune) bool { return false }, true); err != nil {
		return "", "", err
	}
	return name, strings.TrimSpace(args), nil
}

func isPath(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !IsIdent(part) {
			return false
		}
	}
	return true
}

// IsIdent reports whether s is a Go identifier
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// KV is one key[=value] argument
type KV struct {
	Key      string
	Value    string
	HasValue bool
}

// KeyValues parses shell-quoted key[=value] arguments
func KeyValues(s string) ([]KV, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "%s in %q", err.Error(), s)
	}
	out := make([]KV, 0, len(words))
	for _, w := range words {
		k, v, has := strings.Cut(w, "=")
		if !IsIdent(k) {
			return nil, errors.Parsef("expected key=value, got %q", w)
		}
		out = append(out, KV{Key: k, Value: v, HasValue: has})
	}
	return out, nil
}
